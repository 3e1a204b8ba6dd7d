package api

import (
	"context"
	"net/http"

	"car-listing/internal/auth/domain/model"
)

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	var out authResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var out authResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout tells the server to drop its cookie. The local session is cleared
// even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, "", nil)
	if clearErr := c.session.Clear(); clearErr != nil {
		c.log.Warnf("failed to clear session: %v", clearErr)
	}
	return err
}

// Me fetches the signed-in user and records it in the session.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, "", &out); err != nil {
		return nil, err
	}
	if out.User != nil {
		if err := c.session.Set(out.User, c.session.Token()); err != nil {
			c.log.Warnf("failed to persist session: %v", err)
		}
	}
	return out.User, nil
}

// Refresh exchanges the current token for a fresh one.
func (c *Client) Refresh(ctx context.Context) (*model.User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, "", &out); err != nil {
		return nil, err
	}
	return out.User, nil
}
