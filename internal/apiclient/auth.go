package apiclient

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"labelshop/internal/session"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with an email or username. Credentials arrive as cookies in the jar.
func (c *Client) Login(ctx context.Context, identifier, password string) (*User, error) {
	var out authEnvelope
	in := map[string]string{"identifier": identifier, "password": password}
	if err := c.do(session.WithoutRefresh(ctx), http.MethodPost, "/api/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	c.markLoggedIn(ctx)
	return &out.User, nil
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	var out authEnvelope
	if err := c.do(session.WithoutRefresh(ctx), http.MethodPost, "/api/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	c.markLoggedIn(ctx)
	return &out.User, nil
}

// Logout revokes the session server-side. The local flag is cleared even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(session.WithoutRefresh(ctx), http.MethodPost, "/api/auth/logout", nil, nil, nil)
	if c.flag != nil {
		c.flag.MarkLoggedOut(ctx)
	}
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out authEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Bootstrap returns the signed-in user, or nil when there is none. It skips the
// network entirely when the session flag says no login happened on this device.
func (c *Client) Bootstrap(ctx context.Context) (*User, error) {
	if c.flag != nil && !c.flag.MightHaveValidSession() {
		return nil, nil
	}
	u, err := c.Me(ctx)
	if errors.Is(err, ErrUnauthorized) {
		c.logger.Debug("stored session no longer valid")
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("session probe failed", zap.Error(err))
		return nil, err
	}
	return u, nil
}

// MightHaveValidSession reports the local heuristic. Without a flag it is always true.
func (c *Client) MightHaveValidSession() bool {
	return c.flag == nil || c.flag.MightHaveValidSession()
}

func (c *Client) markLoggedIn(ctx context.Context) {
	if c.flag != nil {
		c.flag.MarkLoggedIn(ctx)
	}
}
