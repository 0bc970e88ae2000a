package domain

import "time"

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentInfo     PaymentInfo     `json:"paymentInfo"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shippingCost"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	Transaction     Transaction     `json:"transaction"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	BookID   string  `json:"book"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Discount float64 `json:"discount"`
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type PaymentInfo struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

type Transaction struct {
	ID     string `json:"id"`
	Status string `json:"transactionStatus"`
}

// PaymentVerification is the gateway-shaped payload of the verify
// endpoint. The HTTP status of a verify poll carries no meaning; only
// this payload decides whether payment reached a terminal state.
type PaymentVerification struct {
	OrderID        string  `json:"order_id"`
	Currency       string  `json:"currency"`
	Amount         float64 `json:"amount"`
	ReceivedAmount string  `json:"received_amount"`
	BankStatus     string  `json:"bank_status"`
	BankTrxID      string  `json:"bank_trx_id"`
	InvoiceNo      string  `json:"invoice_no"`
	SpCode         string  `json:"sp_code"`
	SpMessage      string  `json:"sp_message"`
	Method         string  `json:"method"`
	DateTime       string  `json:"date_time"`
}

// Terminal reports whether the gateway has finished processing, either
// way. "Success" and "Failed"/"Cancel" are terminal; "Pending" is not.
func (v PaymentVerification) Terminal() bool {
	switch v.BankStatus {
	case "Success", "Failed", "Cancel":
		return true
	}
	return false
}

func (v PaymentVerification) Succeeded() bool {
	return v.BankStatus == "Success"
}
