package server

import (
	"context"
	"time"

	"github.com/dmitrijs2005/uptask/internal/logging"
)

// PurgeTask removes expired rows of one kind and reports how many went.
type PurgeTask struct {
	Name  string
	Purge func(ctx context.Context) (int64, error)
}

// Janitor periodically drops expired one-time codes, refresh revocations and
// rate-limit windows. Reads already ignore expired rows, so a missed sweep
// only costs storage.
type Janitor struct {
	log      logging.Logger
	interval time.Duration
	tasks    []PurgeTask
}

func NewJanitor(log logging.Logger, interval time.Duration, tasks ...PurgeTask) *Janitor {
	return &Janitor{log: log, interval: interval, tasks: tasks}
}

// Add registers t for the following sweeps.
func (j *Janitor) Add(t PurgeTask) {
	j.tasks = append(j.tasks, t)
}

// Run sweeps on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs every task once. A failing task does not stop the rest.
func (j *Janitor) Sweep(ctx context.Context) {
	for _, t := range j.tasks {
		n, err := t.Purge(ctx)
		if err != nil {
			j.log.Warn(ctx, "purge failed", "task", t.Name, "error", err)
			continue
		}
		if n > 0 {
			j.log.Debug(ctx, "purged expired rows", "task", t.Name, "rows", n)
		}
	}
}
