package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_bookshop/internal/domain"
)

type ProfileInput struct {
	Name  domain.Name `json:"name"`
	Image string      `json:"image,omitempty"`
}

// MyProfile fetches the displayable identity. It is never served from
// cache: the profile must always reflect the current session, not a
// previous user on a shared device.
func (c *Client) MyProfile(ctx context.Context) (*domain.Profile, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/users/my-profile",
		provides: []Tag{TagProfile},
		noCache:  true,
	})
	if err != nil {
		return nil, err
	}

	var profile domain.Profile
	if err := decodeData(env, &profile); err != nil {
		return nil, err
	}
	c.session.SetProfile(&profile)
	return &profile, nil
}

func (c *Client) EditMyProfile(ctx context.Context, input ProfileInput) (*domain.Profile, error) {
	env, err := c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/users/my-profile",
		body:        input,
		invalidates: []Tag{TagProfile},
	})
	if err != nil {
		return nil, err
	}

	var profile domain.Profile
	if err := decodeData(env, &profile); err != nil {
		return nil, err
	}
	c.session.SetProfile(&profile)
	return &profile, nil
}

// Users lists accounts; admin only.
func (c *Client) Users(ctx context.Context, params url.Values) ([]domain.User, *domain.Meta, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/admin/users",
		params:   params,
		provides: []Tag{TagUser},
	})
	if err != nil {
		return nil, nil, err
	}

	var users []domain.User
	if err := decodeData(env, &users); err != nil {
		return nil, nil, err
	}
	return users, env.Meta, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, blocked bool) error {
	_, err := c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/admin/users/" + id,
		body:        map[string]bool{"isBlocked": blocked},
		invalidates: []Tag{TagUser},
	})
	return err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/admin/users/" + id,
		invalidates: []Tag{TagUser},
	})
	return err
}
