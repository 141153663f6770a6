// Package ratelimits declares the repository contract for shared
// fixed-window request counters.
package ratelimits

import (
	"context"
	"time"
)

type Repository interface {
	// Increment bumps the counter for key, starting a new window ending at
	// now+window when none is open, and returns the count and window end.
	Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
	PurgeExpired(ctx context.Context) (int64, error)
}
