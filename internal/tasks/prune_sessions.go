package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
)

// SessionPruner drops expired bearer tokens.
type SessionPruner interface {
	PruneExpired() error
}

// PruneSessionsTask removes expired sessions from the session store.
type PruneSessionsTask struct{}

// Config returns the queue configuration for session pruning.
func (t PruneSessionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_sessions",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

func PruneSessionsProcessor(pruner SessionPruner) backlite.QueueProcessor[PruneSessionsTask] {
	return func(ctx context.Context, task PruneSessionsTask) error {
		if pruner == nil {
			return fmt.Errorf("session pruner not configured")
		}
		if err := pruner.PruneExpired(); err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		return nil
	}
}

// NewPruneSessionsQueue creates a backlite queue for session pruning.
func NewPruneSessionsQueue(pruner SessionPruner) backlite.Queue {
	return backlite.NewQueue(PruneSessionsProcessor(pruner))
}
