package auth

import (
	"context"
	"time"
)

// TokenBlacklist defines the storage operations for revoked tokens.
type TokenBlacklist interface {
	// Add blacklists the jti until the token's original expiry, after which the
	// entry may be dropped automatically.
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	// IsBlacklisted reports whether the jti has been revoked.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
