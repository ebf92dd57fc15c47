// Package session owns the single bearer token of the signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/R3E-Network/complaint_client/internal/kvstore"
)

// TokenKey is the store key holding the session token.
const TokenKey = "authToken"

// Session reads, writes and erases the session token in a kvstore.Store.
//
// There is no locking beyond what the store provides: a 401 erasure racing a
// fresh login resolves as last write wins.
type Session struct {
	store kvstore.Store
}

// New wraps store.
func New(store kvstore.Store) *Session {
	return &Session{store: store}
}

// Token returns the stored token, or "" when none is stored.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, TokenKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	return token, nil
}

// Save replaces the stored token.
func (s *Session) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("save session token: token is empty")
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// Clear erases the stored token. Clearing an empty session is a no-op.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// Authenticated reports whether a token is stored.
func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}
