// Package users declares the repository contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/uptask/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound
// when no row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// LockByID reads the user row with a row lock held until the
	// surrounding transaction ends.
	LockByID(ctx context.Context, id string) (*models.User, error)
	Confirm(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, name string, email string) error
	EmailTakenByOther(ctx context.Context, email string, exceptID string) (bool, error)
}
