package storage

import (
	"context"
	"time"
)

// Store tracks revoked session tokens until their natural expiry, so a
// logged-out token stops working before its exp claim runs out.
type Store interface {
	// Revoke marks a token as revoked for ttl.
	Revoke(ctx context.Context, token string, ttl time.Duration) error

	// IsRevoked reports whether the token has been revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// Close releases backend resources.
	Close() error
}
