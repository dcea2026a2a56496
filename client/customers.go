package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-nimbu-client/transport"
)

const (
	customerLoginPath         = "/customers/login"
	customerMePath            = "/customers/me"
	customerPasswordResetPath = "/customers/password/reset"
)

// Login authenticates a customer. The returned session token is sent with
// every subsequent request until Logout.
func (c *Client) Login(ctx context.Context, email, password string) (*CurrentCustomer, error) {
	customer, err := PostAs[CurrentCustomer](ctx, c, customerLoginPath, map[string]string{
		"username": email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	c.setSessionToken(customer.SessionToken)
	c.logger.Debug().Str("customer_id", customer.ID).Msg("customer logged in")
	return &customer, nil
}

// ValidateSession adopts sessionToken and checks it against the API. An
// expired session returns (nil, nil). On any failure the session token is
// cleared.
func (c *Client) ValidateSession(ctx context.Context, sessionToken string) (*Customer, error) {
	c.setSessionToken(sessionToken)

	resp, err := c.Fetch(ctx, transport.MethodGet, customerMePath, nil)
	if err != nil {
		c.setSessionToken("")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.setSessionToken("")
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Debug().Msg("customer session is no longer valid")
			return nil, nil
		}
		return nil, newAPIError(resp)
	}

	var customer Customer
	if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
		return nil, errors.Wrap(err, "[ValidateSession] failed to decode customer")
	}
	return &customer, nil
}

// Me returns the customer owning the current session token.
func (c *Client) Me(ctx context.Context) (*Customer, error) {
	customer, err := GetAs[Customer](ctx, c, customerMePath)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// RequestPasswordReset asks the API to send a password reset mail.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.Post(ctx, customerPasswordResetPath, map[string]string{"email": email}, nil)
}

// Logout forgets the customer session token. The session is not revoked
// server side.
func (c *Client) Logout() {
	c.setSessionToken("")
}
