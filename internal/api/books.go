package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_bookshop/internal/domain"
)

type BookInput struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	Discount        float64 `json:"discount"`
	Stock           int     `json:"stock"`
	CoverImage      string  `json:"coverImage"`
	Format          string  `json:"format"`
	Featured        bool    `json:"featured"`
	ISBN            string  `json:"isbn"`
	Publisher       string  `json:"publisher"`
	PublicationDate string  `json:"publicationDate"`
}

// Books lists the catalog. Params carry search/filter/pagination terms
// and are part of the cache key.
func (c *Client) Books(ctx context.Context, params url.Values) ([]domain.Book, *domain.Meta, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/books",
		params:   params,
		provides: []Tag{TagBook},
	})
	if err != nil {
		return nil, nil, err
	}

	var books []domain.Book
	if err := decodeData(env, &books); err != nil {
		return nil, nil, err
	}
	return books, env.Meta, nil
}

func (c *Client) Book(ctx context.Context, id string) (*domain.Book, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/books/" + id,
		provides: []Tag{TagBook},
	})
	if err != nil {
		return nil, err
	}

	var book domain.Book
	if err := decodeData(env, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) CreateBook(ctx context.Context, input BookInput) (*domain.Book, error) {
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/books",
		body:        input,
		invalidates: []Tag{TagBook},
	})
	if err != nil {
		return nil, err
	}

	var book domain.Book
	if err := decodeData(env, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) CreateBooks(ctx context.Context, inputs []BookInput) error {
	_, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/books/bulk",
		body:        inputs,
		invalidates: []Tag{TagBook},
	})
	return err
}

func (c *Client) EditBook(ctx context.Context, id string, input BookInput) (*domain.Book, error) {
	env, err := c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/books/" + id,
		body:        input,
		invalidates: []Tag{TagBook},
	})
	if err != nil {
		return nil, err
	}

	var book domain.Book
	if err := decodeData(env, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/books/" + id,
		invalidates: []Tag{TagBook},
	})
	return err
}
