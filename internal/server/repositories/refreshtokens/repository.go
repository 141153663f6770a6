// Package refreshtokens declares the repository contract for the refresh
// token revocation list.
package refreshtokens

import (
	"context"
	"time"
)

// Repository records refresh token ids (jti) that have been exchanged.
type Repository interface {
	// Revoke marks jti as used. It reports false when jti was already
	// revoked, which means the token is being replayed.
	Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) (bool, error)

	// PurgeExpired drops entries whose token would be rejected as expired anyway.
	PurgeExpired(ctx context.Context) (int64, error)
}
