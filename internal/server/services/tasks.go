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

// TaskInput carries the editable task fields.
type TaskInput struct {
	Name        string
	Description string
}

// TaskService manages tasks and their status history.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, log: log}
}

// Load fetches a task or fails with ErrTaskNotFound.
func (s *TaskService) Load(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.repomanager.Tasks(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.log, "load task", notFoundAs(err, common.ErrTaskNotFound))
	}
	return t, nil
}

// Create adds a pending task to projectID. A project removed in the meantime
// yields ErrProjectNotFound.
func (s *TaskService) Create(ctx context.Context, projectID string, in TaskInput) (*models.Task, error) {
	t, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		ProjectID:   projectID,
		Name:        in.Name,
		Description: in.Description,
	})
	if dbx.IsForeignKeyViolation(err) {
		return nil, common.ErrProjectNotFound
	}
	if err != nil {
		return nil, internalError(ctx, s.log, "create task", err)
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, projectID string) ([]models.Task, error) {
	list, err := s.repomanager.Tasks(s.db).ListByProject(ctx, projectID)
	if err != nil {
		return nil, internalError(ctx, s.log, "list tasks", err)
	}
	if list == nil {
		list = []models.Task{}
	}
	return list, nil
}

// Detail returns t with its status history and notes populated.
func (s *TaskService) Detail(ctx context.Context, t *models.Task) (*models.Task, error) {
	history, err := s.repomanager.Tasks(s.db).History(ctx, t.ID)
	if err != nil {
		return nil, internalError(ctx, s.log, "task detail", err)
	}
	notes, err := s.repomanager.Notes(s.db).ListByTask(ctx, t.ID)
	if err != nil {
		return nil, internalError(ctx, s.log, "task detail", err)
	}

	out := *t
	out.CompletedBy = history
	out.Notes = notes
	if out.CompletedBy == nil {
		out.CompletedBy = []models.StatusChange{}
	}
	if out.Notes == nil {
		out.Notes = []models.Note{}
	}
	return &out, nil
}

func (s *TaskService) Update(ctx context.Context, t *models.Task, in TaskInput) (*models.Task, error) {
	updated := *t
	updated.Name = in.Name
	updated.Description = in.Description

	if err := s.repomanager.Tasks(s.db).Update(ctx, &updated); err != nil {
		return nil, internalError(ctx, s.log, "update task", notFoundAs(err, common.ErrTaskNotFound))
	}
	return &updated, nil
}

// Delete removes the task with its notes and status history.
func (s *TaskService) Delete(ctx context.Context, taskID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Notes(tx).DeleteByTask(ctx, taskID); err != nil {
			return err
		}
		tasks := s.repomanager.Tasks(tx)
		if err := tasks.DeleteHistoryByTask(ctx, taskID); err != nil {
			return err
		}
		return notFoundAs(tasks.Delete(ctx, taskID), common.ErrTaskNotFound)
	})
	if err != nil {
		return internalError(ctx, s.log, "delete task", err)
	}
	return nil
}

// UpdateStatus sets the status and appends a history entry attributed to
// userID in the same transaction.
func (s *TaskService) UpdateStatus(ctx context.Context, t *models.Task, userID string, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, common.ErrInvalidTaskStatus
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tasks := s.repomanager.Tasks(tx)
		if err := tasks.UpdateStatus(ctx, t.ID, status); err != nil {
			return notFoundAs(err, common.ErrTaskNotFound)
		}
		return tasks.AddStatusChange(ctx, t.ID, userID, status)
	})
	if err != nil {
		return nil, internalError(ctx, s.log, "update task status", err)
	}

	s.log.Info(ctx, "task status changed", "task_id", t.ID, "status", status)
	return s.Load(ctx, t.ID)
}
