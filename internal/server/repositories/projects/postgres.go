package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query :=
		`INSERT INTO projects (project_name, client_name, description, manager_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.ProjectName, p.ClientName, p.Description, p.ManagerID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if p.Team == nil {
		p.Team = []string{}
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query :=
		`SELECT id, project_name, client_name, description, manager_id, created_at, updated_at
		 FROM projects
		 WHERE id = $1
		 `

	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.ProjectName, &p.ClientName, &p.Description, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	team, err := r.memberIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Team = team
	return p, nil
}

func (r *PostgresRepository) memberIDs(ctx context.Context, projectID string) ([]string, error) {
	query :=
		`SELECT user_id FROM project_members
		 WHERE project_id = $1
		 ORDER BY added_at
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

// ListForUser does not populate Team.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	query :=
		`SELECT p.id, p.project_name, p.client_name, p.description, p.manager_id, p.created_at, p.updated_at
		 FROM projects p
		 WHERE p.manager_id = $1
		    OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = $1)
		 ORDER BY p.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.ProjectName, &p.ClientName, &p.Description, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Project) error {
	query :=
		`UPDATE projects
		 SET project_name = $2, client_name = $3, description = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.ID, p.ProjectName, p.ClientName, p.Description).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, projectID string, userID string) error {
	query :=
		`INSERT INTO project_members (project_id, user_id)
		 VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, projectID string, userID string) (bool, error) {
	query :=
		`DELETE FROM project_members
		 WHERE project_id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Members(ctx context.Context, projectID string) ([]models.UserSummary, error) {
	query :=
		`SELECT u.id, u.name, u.email
		 FROM project_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = $1
		 ORDER BY m.added_at
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	members := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return members, nil
}

func (r *PostgresRepository) DeleteMembers(ctx context.Context, projectID string) error {
	query := `DELETE FROM project_members WHERE project_id = $1`

	if _, err := r.db.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
