package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// expiryLeeway is how long before the token's exp claim we stop trusting a
// cached token, so a credential never expires mid-cycle.
const expiryLeeway = 30 * time.Second

// Client exchanges a refresh token for short-lived access tokens and caches
// them until close to expiry.
type Client struct {
	Endpoint     string
	RefreshToken string
	HTTPClient   *http.Client

	mu     sync.Mutex
	cached string
	expiry time.Time

	now func() time.Time
}

func NewClient(endpoint, refreshToken string) *Client {
	return &Client{
		Endpoint:     endpoint,
		RefreshToken: refreshToken,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != "" && c.now().Before(c.expiry.Add(-expiryLeeway)) {
		return c.cached, nil
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: c.RefreshToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth endpoint: status %d body=%q",
			resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	var out refreshResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("auth endpoint: decode error: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("auth endpoint returned an empty token")
	}

	c.cached = out.AccessToken
	c.expiry = tokenExpiry(out.AccessToken, c.now())
	return c.cached, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// agent only needs it to schedule refreshes, not to trust the token.
func tokenExpiry(tok string, now time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tok, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return now.Add(5 * time.Minute)
	}
	return claims.ExpiresAt.Time
}
