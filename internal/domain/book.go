package domain

import "time"

type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	Discount        float64   `json:"discount"`
	DiscountedPrice float64   `json:"discountedPrice"`
	Stock           int       `json:"stock"`
	CoverImage      string    `json:"coverImage"`
	Format          string    `json:"format"`
	Featured        bool      `json:"featured"`
	Rating          float64   `json:"rating"`
	ISBN            string    `json:"isbn"`
	Publisher       string    `json:"publisher"`
	PublicationDate string    `json:"publicationDate"`
	Language        string    `json:"language,omitempty"`
	PageCount       int       `json:"pageCount,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// EffectivePrice is the price a buyer actually pays: the discounted
// price when a discount is active, the list price otherwise.
func (b Book) EffectivePrice() float64 {
	if b.Discount > 0 && b.DiscountedPrice > 0 {
		return b.DiscountedPrice
	}
	return b.Price
}
