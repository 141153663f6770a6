// Package tokens declares the repository contract for short-lived
// confirmation and password reset codes.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/uptask/internal/server/models"
)

// Repository stores mailed one-time codes. Rows past expires_at are treated
// as absent by every lookup.
type Repository interface {
	Create(ctx context.Context, token *models.Token) (*models.Token, error)

	// FindActive returns the unexpired token with the given value and purpose,
	// or common.ErrorNotFound.
	FindActive(ctx context.Context, token string, purpose models.TokenPurpose) (*models.Token, error)

	// Consume deletes the unexpired token with the given value and purpose and
	// returns it. Of two concurrent callers only one gets the row; the other
	// sees common.ErrorNotFound.
	Consume(ctx context.Context, token string, purpose models.TokenPurpose) (*models.Token, error)

	// IssuedSince reports whether any token was created for userID after since.
	IssuedSince(ctx context.Context, userID string, since time.Time) (bool, error)

	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByUserAndPurpose(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error)

	// PurgeExpired removes every expired row.
	PurgeExpired(ctx context.Context) (int64, error)
}
