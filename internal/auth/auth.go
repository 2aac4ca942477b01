// Package auth resolves bearer tokens to user identities against an
// external identity service.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthorized indicates the token is missing, malformed, or rejected by
// the identity service.
var ErrUnauthorized = errors.New("auth: invalid or expired token")

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// doer is the subset of http.Client the verifier needs, split out so tests
// can stub the identity service.
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPVerifier validates tokens by calling the identity service's user-info
// endpoint. Every request is verified remotely; there is no local session
// cache.
type HTTPVerifier struct {
	url    string
	client doer
}

// Opts holds parameters for creating an HTTPVerifier.
type Opts struct {
	UserInfoURL string
	Timeout     time.Duration
	Client      doer // overrides the default client, for testing
}

// NewHTTPVerifier creates an HTTPVerifier.
func NewHTTPVerifier(opts Opts) (*HTTPVerifier, error) {
	if opts.UserInfoURL == "" {
		return nil, fmt.Errorf("auth: user info url is required")
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPVerifier{url: opts.UserInfoURL, client: client}, nil
}

// Resolve returns the user id the identity service associates with the
// token. A non-200 response maps to ErrUnauthorized; transport failures are
// returned as-is so callers can tell a bad token from a down service.
func (v *HTTPVerifier) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return "", fmt.Errorf("auth: build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: call identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrUnauthorized
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("auth: decode user info: %w", err)
	}
	if user.ID == "" {
		return "", ErrUnauthorized
	}
	return user.ID, nil
}
