package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain"
	"github.com/Strob0t/TaskForge/internal/port/credentials"
	"github.com/Strob0t/TaskForge/internal/port/database"
)

// accountGetter is the slice of the store the token source needs.
type accountGetter interface {
	GetConnectedAccount(ctx context.Context, ownerID, provider string) (*database.ConnectedAccount, error)
}

// TokenSource implements credentials.Source on top of the connected_accounts
// table. Token refresh is owned by the OAuth layer; this source only reads.
type TokenSource struct {
	store accountGetter
	now   func() time.Time // for testing
}

// NewTokenSource creates a TokenSource backed by the given store.
func NewTokenSource(store accountGetter) *TokenSource {
	return &TokenSource{store: store, now: time.Now}
}

// Token returns the stored bearer token for the owner and provider.
// Returns credentials.ErrNotConnected when no account exists and
// credentials.ErrExpired when the token is past its expiry.
func (ts *TokenSource) Token(ctx context.Context, ownerID, provider string) (string, error) {
	acc, err := ts.store.GetConnectedAccount(ctx, ownerID, provider)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", credentials.ErrNotConnected
		}
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if !acc.ExpiresAt.IsZero() && ts.now().After(acc.ExpiresAt) {
		return "", credentials.ErrExpired
	}
	return acc.AccessToken, nil
}
