// Package projects declares the repository contract for projects and their
// team memberships.
package projects

import (
	"context"

	"github.com/dmitrijs2005/uptask/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	// GetByID loads the project with its team member ids.
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// ListForUser returns projects managed by userID or where userID is a member.
	ListForUser(ctx context.Context, userID string) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, projectID string, userID string) error
	// RemoveMember reports false when userID was not a member.
	RemoveMember(ctx context.Context, projectID string, userID string) (bool, error)
	Members(ctx context.Context, projectID string) ([]models.UserSummary, error)
	DeleteMembers(ctx context.Context, projectID string) error
}
