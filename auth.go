package roma

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/binrc/roma-client-go/internal/api"
	"github.com/binrc/roma-client-go/internal/credentials"
)

// now is replaced in tests.
var now = time.Now

// Login exchanges a username and password for a session and writes the
// token, API key and identity to the credential store. A response carrying
// only an API key is a valid session. Any failure leaves the store empty.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &ValidationError{Field: "username", Err: errors.New("must not be empty")}
	}

	resp, err := c.apiClient.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		c.clearQuietly()
		return nil, err
	}
	if resp.Token == "" && resp.APIKey == "" {
		c.clearQuietly()
		return nil, ErrNoToken
	}

	creds := credentials.Credentials{
		Token:    resp.Token,
		APIKey:   resp.APIKey,
		Username: username,
	}
	if resp.User != nil {
		if resp.User.Username != "" {
			creds.Username = resp.User.Username
		}
		creds.Email = resp.User.Email
	}
	if err := c.Store().Set(creds); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}
	return resp, nil
}

// UseAPIKey stores key as the only credential and verifies it by fetching
// the current user. The key is dropped again if verification fails.
func (c *Client) UseAPIKey(ctx context.Context, key string) (*User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &ValidationError{Field: "api key", Err: errors.New("must not be empty")}
	}

	if err := c.Store().Set(credentials.Credentials{APIKey: key}); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}

	user, err := c.apiClient.GetCurrentUser(ctx)
	if err != nil {
		c.clearQuietly()
		return nil, err
	}

	creds := credentials.Credentials{APIKey: key, Username: user.Username, Email: user.Email}
	if err := c.Store().Set(creds); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}
	return user, nil
}

// Logout removes every stored credential. The backend keeps no session
// state, so no request is sent.
func (c *Client) Logout() error {
	return c.Store().Clear()
}

// Session returns the stored credentials and what can be read from the
// token locally.
func (c *Client) Session() (Session, error) {
	creds, err := c.Store().Get()
	if err != nil {
		return Session{}, fmt.Errorf("read credentials: %w", err)
	}
	return Session{
		Credentials: creds,
		TokenInfo:   credentials.InspectToken(creds.Token, now()),
	}, nil
}

func (c *Client) clearQuietly() {
	_ = c.Store().Clear()
}
