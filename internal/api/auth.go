package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_bookshop/internal/domain"
)

type RegisterInput struct {
	Name     domain.Name `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

type tokenData struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for an access token and installs it in
// the session. The refresh cookie rides along on the response.
func (c *Client) Login(ctx context.Context, email, password string) error {
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        map[string]string{"email": email, "password": password},
		invalidates: []Tag{TagProfile, TagUser},
	})
	if err != nil {
		return err
	}

	var data tokenData
	if err := decodeData(env, &data); err != nil {
		return err
	}
	return c.session.SetUser(data.AccessToken)
}

func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/register",
		body:        input,
		invalidates: []Tag{TagProfile, TagUser},
	})
	if err != nil {
		return err
	}

	var data tokenData
	if err := decodeData(env, &data); err != nil {
		return err
	}
	return c.session.SetUser(data.AccessToken)
}

// Logout invalidates the server-side refresh cookie and discards the
// local session. The local session is dropped even when the HTTP call
// fails; a dead backend must not keep a user signed in.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
	})

	c.session.Clear()
	c.cache.Invalidate(TagProfile, TagUser, TagCart, TagOrder)
	return err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/change-password",
		body: map[string]string{
			"oldPassword": oldPassword,
			"newPassword": newPassword,
		},
	})
	return err
}
