// Package notes declares the repository contract for task notes.
package notes

import (
	"context"

	"github.com/dmitrijs2005/uptask/internal/server/models"
)

type Repository interface {
	// Create inserts a note; note.CreatedBy.ID must be set.
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	ListByTask(ctx context.Context, taskID string) ([]models.Note, error)
	Delete(ctx context.Context, id string) error
	DeleteByTask(ctx context.Context, taskID string) error
	DeleteByProject(ctx context.Context, projectID string) error
}
