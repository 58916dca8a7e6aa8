package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// EventPruner drops activity events older than a retention period.
type EventPruner interface {
	Prune(retention time.Duration) (int64, error)
}

// PruneEventsTask trims the activity log to RetentionDays.
type PruneEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for activity log pruning.
func (t PruneEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_events",
		MaxAttempts: 3,
		Backoff:     10 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

func PruneEventsProcessor(pruner EventPruner) backlite.QueueProcessor[PruneEventsTask] {
	return func(ctx context.Context, task PruneEventsTask) error {
		if pruner == nil {
			return fmt.Errorf("event pruner not configured")
		}
		if task.RetentionDays <= 0 {
			return fmt.Errorf("invalid retention: %d days", task.RetentionDays)
		}
		n, err := pruner.Prune(time.Duration(task.RetentionDays) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
		if n > 0 {
			log.Printf("[TASK] Pruned %d activity events older than %d days", n, task.RetentionDays)
		}
		return nil
	}
}

// NewPruneEventsQueue creates a backlite queue for activity log pruning.
func NewPruneEventsQueue(pruner EventPruner) backlite.Queue {
	return backlite.NewQueue(PruneEventsProcessor(pruner))
}
