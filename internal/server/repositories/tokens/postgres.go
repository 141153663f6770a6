package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	query := `
		INSERT INTO tokens (token, user_id, purpose, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, token.Token, token.UserID, string(token.Purpose), token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, token string, purpose models.TokenPurpose) (*models.Token, error) {
	query := `
		SELECT id, token, user_id, purpose, created_at, expires_at
		FROM tokens
		WHERE token = $1 AND purpose = $2 AND expires_at > now()
	`
	return r.scanOne(ctx, query, token, string(purpose))
}

func (r *PostgresRepository) Consume(ctx context.Context, token string, purpose models.TokenPurpose) (*models.Token, error) {
	query := `
		DELETE FROM tokens
		WHERE token = $1 AND purpose = $2 AND expires_at > now()
		RETURNING id, token, user_id, purpose, created_at, expires_at
	`
	return r.scanOne(ctx, query, token, string(purpose))
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Token, error) {
	t := &models.Token{}
	var p string
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&t.ID, &t.Token, &t.UserID, &p, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Purpose = models.TokenPurpose(p)
	return t, nil
}

func (r *PostgresRepository) IssuedSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM tokens WHERE user_id = $1 AND created_at > $2)
	`
	var found bool
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := `
		DELETE FROM tokens
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE user_id = $1
	`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) DeleteByUserAndPurpose(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE user_id = $1 AND purpose = $2
	`
	return r.exec(ctx, query, userID, string(purpose))
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE expires_at <= now()
	`
	return r.exec(ctx, query)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
