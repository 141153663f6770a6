package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/repomanager"
)

// ProjectInput carries the editable project fields.
type ProjectInput struct {
	ProjectName string
	ClientName  string
	Description string
}

// ProjectService manages projects. Authorization is checked by the caller
// with the access package before any mutation.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewProjectService returns a ProjectService running its multi-table writes
// in transactions on db.
func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, log: log}
}

// Load fetches a project with its team ids.
func (s *ProjectService) Load(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.repomanager.Projects(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.log, "load project", notFoundAs(err, common.ErrProjectNotFound))
	}
	return p, nil
}

// Create stores a project managed by managerID with an empty team.
func (s *ProjectService) Create(ctx context.Context, managerID string, in ProjectInput) (*models.Project, error) {
	p, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		ProjectName: in.ProjectName,
		ClientName:  in.ClientName,
		Description: in.Description,
		ManagerID:   managerID,
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "create project", err)
	}
	s.log.Info(ctx, "project created", "project_id", p.ID)
	return p, nil
}

// List returns the projects userID manages or belongs to.
func (s *ProjectService) List(ctx context.Context, userID string) ([]models.Project, error) {
	list, err := s.repomanager.Projects(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.log, "list projects", err)
	}
	return list, nil
}

// Detail returns p together with its tasks.
func (s *ProjectService) Detail(ctx context.Context, p *models.Project) (*models.ProjectDetail, error) {
	tasks, err := s.repomanager.Tasks(s.db).ListByProject(ctx, p.ID)
	if err != nil {
		return nil, internalError(ctx, s.log, "project detail", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return &models.ProjectDetail{Project: *p, Tasks: tasks}, nil
}

func (s *ProjectService) Update(ctx context.Context, p *models.Project, in ProjectInput) (*models.Project, error) {
	updated := *p
	updated.ProjectName = in.ProjectName
	updated.ClientName = in.ClientName
	updated.Description = in.Description

	if err := s.repomanager.Projects(s.db).Update(ctx, &updated); err != nil {
		return nil, internalError(ctx, s.log, "update project", notFoundAs(err, common.ErrProjectNotFound))
	}
	return &updated, nil
}

// Delete removes the project and everything that hangs off it: notes,
// status history, tasks and team memberships.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Notes(tx).DeleteByProject(ctx, projectID); err != nil {
			return err
		}
		tasks := s.repomanager.Tasks(tx)
		if err := tasks.DeleteHistoryByProject(ctx, projectID); err != nil {
			return err
		}
		if _, err := tasks.DeleteByProject(ctx, projectID); err != nil {
			return err
		}
		projects := s.repomanager.Projects(tx)
		if err := projects.DeleteMembers(ctx, projectID); err != nil {
			return err
		}
		return notFoundAs(projects.Delete(ctx, projectID), common.ErrProjectNotFound)
	})
	if err != nil {
		return internalError(ctx, s.log, "delete project", err)
	}
	s.log.Info(ctx, "project deleted", "project_id", projectID)
	return nil
}
