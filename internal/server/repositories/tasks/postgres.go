package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/server/models"
)

const taskColumns = `id, project_id, name, description, status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var status string
	if err := s.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (project_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, status, created_at, updated_at
		 `

	var status string
	err := r.db.QueryRowContext(ctx, query, t.ProjectID, t.Name, t.Description).
		Scan(&t.ID, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Status = models.TaskStatus(status)
	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *models.Task) error {
	query :=
		`UPDATE tasks SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, t.ID, t.Name, t.Description).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	query :=
		`UPDATE tasks SET status = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	query := `DELETE FROM tasks WHERE project_id = $1`

	res, err := r.db.ExecContext(ctx, query, projectID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) AddStatusChange(ctx context.Context, taskID string, userID string, status models.TaskStatus) error {
	query :=
		`INSERT INTO task_status_changes (task_id, user_id, status)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, taskID, userID, string(status)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, taskID string) ([]models.StatusChange, error) {
	query :=
		`SELECT u.id, u.name, u.email, c.status, c.changed_at
		 FROM task_status_changes c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.task_id = $1
		 ORDER BY c.id
		 `

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := []models.StatusChange{}
	for rows.Next() {
		var c models.StatusChange
		var status string
		if err := rows.Scan(&c.User.ID, &c.User.Name, &c.User.Email, &status, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Status = models.TaskStatus(status)
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return history, nil
}

func (r *PostgresRepository) DeleteHistoryByTask(ctx context.Context, taskID string) error {
	query := `DELETE FROM task_status_changes WHERE task_id = $1`

	if _, err := r.db.ExecContext(ctx, query, taskID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteHistoryByProject(ctx context.Context, projectID string) error {
	query :=
		`DELETE FROM task_status_changes
		 WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)
		 `

	if _, err := r.db.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
