package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/stamerd/stosufy/src/features/config"
)

// Token is the pair returned by the remote token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Client talks to the remote auth endpoints: OAuth code exchange, token
// refresh and session-cookie validation.
type Client struct {
	config *config.Manager
	http   *http.Client
}

// NewClient creates a new auth client.
func NewClient(cfg *config.Manager) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

var sessionCookiePattern = regexp.MustCompile(`osu_session=([^;]+)`)

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	cfg := c.config.Get().Auth
	return c.tokenRequest(ctx, map[string]string{
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
		"redirect_uri":  cfg.RedirectURL,
	})
}

// Refresh trades a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	cfg := c.config.Get().Auth
	return c.tokenRequest(ctx, map[string]string{
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	})
}

func (c *Client) tokenRequest(ctx context.Context, body map[string]string) (*Token, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Get().Auth.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

// CheckSession validates a session key against the remote endpoint. The
// endpoint rotates the cookie on every call, so the returned key replaces
// the stored one.
func (c *Client) CheckSession(ctx context.Context, sessionKey string) (string, error) {
	if sessionKey == "" {
		return "", fmt.Errorf("no session key configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Get().Auth.SessionURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cookie", "osu_session="+sessionKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("session check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session check returned status %d", resp.StatusCode)
	}

	match := sessionCookiePattern.FindStringSubmatch(resp.Header.Get("Set-Cookie"))
	if match == nil {
		return sessionKey, nil
	}
	return match[1], nil
}
