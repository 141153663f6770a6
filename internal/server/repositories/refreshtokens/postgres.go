// Package refreshtokens provides a PostgreSQL-backed revocation list for
// rotated refresh tokens.
package refreshtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/uptask/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Revoke inserts jti; a conflicting insert affects zero rows.
func (r *PostgresRepository) Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) (bool, error) {
	query := `
		INSERT INTO revoked_refresh_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, jti, userID, expiresAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

// PurgeExpired deletes entries past their token's expiry.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM revoked_refresh_tokens
		WHERE expires_at <= now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
