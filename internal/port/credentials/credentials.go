// Package credentials defines the boundary to the excluded OAuth layer.
package credentials

import (
	"context"
	"errors"
)

// Providers known to the credential store.
const (
	ProviderGoogle  = "google"
	ProviderHubSpot = "hubspot"
)

// ErrNotConnected indicates the owner never connected the provider.
var ErrNotConnected = errors.New("provider not connected")

// ErrExpired indicates the stored token is past its expiry. Refresh is the
// OAuth layer's job; adapters surface this as a typed failure.
var ErrExpired = errors.New("provider token expired")

// Source yields bearer tokens for remote provider calls.
type Source interface {
	Token(ctx context.Context, ownerID, provider string) (string, error)
}
