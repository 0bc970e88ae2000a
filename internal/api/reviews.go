package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_bookshop/internal/domain"
)

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (c *Client) ReviewsByBook(ctx context.Context, bookID string, params url.Values) ([]domain.Review, *domain.Meta, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/reviews/book/" + bookID,
		params:   params,
		provides: []Tag{TagReview},
	})
	if err != nil {
		return nil, nil, err
	}

	var reviews []domain.Review
	if err := decodeData(env, &reviews); err != nil {
		return nil, nil, err
	}
	return reviews, env.Meta, nil
}

func (c *Client) MyReviews(ctx context.Context, params url.Values) ([]domain.Review, *domain.Meta, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/reviews/my-reviews",
		params:   params,
		provides: []Tag{TagReview},
	})
	if err != nil {
		return nil, nil, err
	}

	var reviews []domain.Review
	if err := decodeData(env, &reviews); err != nil {
		return nil, nil, err
	}
	return reviews, env.Meta, nil
}

// Review mutations also invalidate Book: the aggregate rating shown on
// book cards is derived server-side from reviews.
func (c *Client) CreateReview(ctx context.Context, bookID string, input ReviewInput) (*domain.Review, error) {
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/reviews/book/" + bookID,
		body:        input,
		invalidates: []Tag{TagReview, TagBook},
	})
	if err != nil {
		return nil, err
	}

	var review domain.Review
	if err := decodeData(env, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) UpdateReview(ctx context.Context, id string, input ReviewInput) (*domain.Review, error) {
	env, err := c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/reviews/" + id,
		body:        input,
		invalidates: []Tag{TagReview, TagBook},
	})
	if err != nil {
		return nil, err
	}

	var review domain.Review
	if err := decodeData(env, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/reviews/" + id,
		invalidates: []Tag{TagReview, TagBook},
	})
	return err
}
