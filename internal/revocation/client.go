// Package revocation is the external revocation-service client consulted
// during capability verification. The service itself is an external
// collaborator; this package only specifies and implements the client
// contract the capability engine depends on, satisfying
// nuc.RevocationChecker.
package revocation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Config controls the client's transport and retry behavior: exponential
// backoff with a capped attempt count, applied synchronously — capability
// verification blocks on the revocation check rather than enqueueing it
// for later delivery.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 200 * time.Millisecond
	}
	return c
}

// Client calls the external revocation service's "is any of these token
// hashes revoked" endpoint.
type Client struct {
	cfg Config
}

// New builds a Client.
func New(cfg Config) *Client {
	return &Client{cfg: cfg.withDefaults()}
}

type checkRequest struct {
	Hashes []string `json:"hashes"`
}

type checkResponse struct {
	Revoked []string `json:"revoked"`
}

// AnyRevoked reports whether any hash in tokenHashes has been revoked.
// Transient transport failures are retried with exponential backoff; a
// failure on the final attempt is returned to the caller, which the
// capability engine treats as a DatabaseError rather than silently
// granting access.
func (c *Client) AnyRevoked(ctx context.Context, tokenHashes []string) (bool, error) {
	if len(tokenHashes) == 0 || c.cfg.BaseURL == "" {
		return false, nil
	}

	body, err := json.Marshal(checkRequest{Hashes: tokenHashes})
	if err != nil {
		return false, fmt.Errorf("revocation: encoding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.cfg.BaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(delay):
			}
		}

		revoked, err := c.checkOnce(ctx, body)
		if err == nil {
			return revoked, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("revocation check attempt failed")
	}

	return false, fmt.Errorf("revocation: all attempts failed: %w", lastErr)
}

func (c *Client) checkOnce(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/revoked", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var out checkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}
	return len(out.Revoked) > 0, nil
}
