package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stamerd/stosufy/src/infra/settings"
)

// Credentials are the live tokens handed to the download pipeline.
type Credentials struct {
	AccessToken string
	SessionKey  string
}

// Service owns the current credential state: it loads persisted tokens,
// exchanges codes, and refreshes the access token in the background shortly
// before it expires.
type Service struct {
	client   *Client
	settings *settings.Store

	mu      sync.RWMutex
	current settings.Credentials

	stopRefresh chan struct{}
	stopOnce    sync.Once
}

// NewService creates the auth service, loading any persisted tokens.
func NewService(client *Client, prefs *settings.Store) *Service {
	s := &Service{
		client:      client,
		settings:    prefs,
		stopRefresh: make(chan struct{}),
	}
	if creds, ok := prefs.Credentials(); ok {
		s.current = *creds
	}
	return s
}

// Credentials returns the current token pair for authenticated calls.
func (s *Service) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Credentials{
		AccessToken: s.current.AccessToken,
		SessionKey:  s.current.SessionKey,
	}
}

// Login exchanges an authorization code and persists the resulting tokens.
func (s *Service) Login(ctx context.Context, code, sessionKey string) error {
	token, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	if sessionKey != "" {
		rotated, err := s.client.CheckSession(ctx, sessionKey)
		if err != nil {
			slog.Warn("Session key validation failed", "error", err)
		} else {
			sessionKey = rotated
		}
	}

	s.store(token, sessionKey)
	return nil
}

// Refresh exchanges the stored refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	refreshToken := s.current.RefreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	token, err := s.client.Refresh(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	s.store(token, "")
	return nil
}

func (s *Service) store(token *Token, sessionKey string) {
	s.mu.Lock()
	s.current.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.current.RefreshToken = token.RefreshToken
	}
	if sessionKey != "" {
		s.current.SessionKey = sessionKey
	}
	s.current.ExpiryTime = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second).UnixMilli()
	snapshot := s.current
	s.mu.Unlock()

	if err := s.settings.SaveCredentials(&snapshot); err != nil {
		slog.Error("Failed to persist credentials", "error", err)
	}
}

// StartRefreshLoop refreshes the access token one minute before expiry
// until the context is cancelled or Stop is called.
func (s *Service) StartRefreshLoop(ctx context.Context) {
	go func() {
		for {
			s.mu.RLock()
			expiry := time.UnixMilli(s.current.ExpiryTime)
			hasToken := s.current.RefreshToken != ""
			s.mu.RUnlock()

			var wait time.Duration
			if !hasToken {
				wait = time.Minute
			} else {
				wait = time.Until(expiry) - time.Minute
				if wait < time.Second {
					wait = time.Second
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-s.stopRefresh:
				return
			case <-time.After(wait):
			}

			if !hasToken {
				continue
			}
			if err := s.Refresh(ctx); err != nil {
				slog.Warn("Background token refresh failed", "error", err)
				// Back off before the next attempt.
				select {
				case <-ctx.Done():
					return
				case <-s.stopRefresh:
					return
				case <-time.After(time.Minute):
				}
			}
		}
	}()
}

// Stop terminates the background refresh loop.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopRefresh) })
}
