// Package tasks declares the repository contract for tasks and their
// status history.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/uptask/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)

	AddStatusChange(ctx context.Context, taskID string, userID string, status models.TaskStatus) error
	// History returns status changes oldest first, with the acting user resolved.
	History(ctx context.Context, taskID string) ([]models.StatusChange, error)
	DeleteHistoryByTask(ctx context.Context, taskID string) error
	DeleteHistoryByProject(ctx context.Context, projectID string) error
}
