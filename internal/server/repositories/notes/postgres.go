package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/server/models"
)

const noteSelect = `SELECT n.id, n.task_id, n.content, n.created_at, u.id, u.name, u.email
		 FROM notes n
		 JOIN users u ON u.id = n.created_by`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	n := &models.Note{}
	err := s.Scan(&n.ID, &n.TaskID, &n.Content, &n.CreatedAt, &n.CreatedBy.ID, &n.CreatedBy.Name, &n.CreatedBy.Email)
	return n, err
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	query :=
		`INSERT INTO notes (task_id, content, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, n.TaskID, n.Content, n.CreatedBy.ID).Scan(&n.ID, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := noteSelect + `
		 WHERE n.id = $1`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByTask(ctx context.Context, taskID string) ([]models.Note, error) {
	query := noteSelect + `
		 WHERE n.task_id = $1
		 ORDER BY n.created_at`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM notes WHERE id = $1`

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

func (r *PostgresRepository) DeleteByTask(ctx context.Context, taskID string) error {
	query := `DELETE FROM notes WHERE task_id = $1`

	if _, err := r.db.ExecContext(ctx, query, taskID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByProject(ctx context.Context, projectID string) error {
	query :=
		`DELETE FROM notes
		 WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)
		 `

	if _, err := r.db.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
