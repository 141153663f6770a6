package ratelimits

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/uptask/internal/dbx"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Increment is a single upsert, so concurrent callers never lose hits.
func (r *PostgresRepository) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	query := `
		INSERT INTO rate_limits (key, hits, expires_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (key) DO UPDATE SET
			hits = CASE WHEN rate_limits.expires_at <= $3 THEN 1 ELSE rate_limits.hits + 1 END,
			expires_at = CASE WHEN rate_limits.expires_at <= $3 THEN EXCLUDED.expires_at ELSE rate_limits.expires_at END
		RETURNING hits, expires_at
	`
	now := r.now()

	var (
		hits      int
		expiresAt time.Time
	)
	if err := r.db.QueryRowContext(ctx, query, key, now.Add(window), now).Scan(&hits, &expiresAt); err != nil {
		return 0, time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return hits, expiresAt, nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM rate_limits
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, r.now())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
