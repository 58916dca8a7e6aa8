package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readsync/internal/library"
)

// LibraryVerifier audits stored books against the catalog.
type LibraryVerifier interface {
	Verify(ctx context.Context, deep bool) (*library.AuditReport, error)
}

// VerifyLibraryTask audits the library. It reports problems and never
// repairs or deletes anything.
type VerifyLibraryTask struct {
	// Deep re-hashes every object instead of comparing sizes only.
	Deep bool `json:"deep,omitempty"`
}

// Config returns the queue configuration for library audits.
func (t VerifyLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "verify_library",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// VerifyLibraryProcessor creates a processor function for VerifyLibraryTask.
// A report with problems fails the task so it is retained for inspection.
func VerifyLibraryProcessor(verifier LibraryVerifier) backlite.QueueProcessor[VerifyLibraryTask] {
	return func(ctx context.Context, task VerifyLibraryTask) error {
		if verifier == nil {
			return fmt.Errorf("library verifier not configured")
		}

		report, err := verifier.Verify(ctx, task.Deep)
		if err != nil {
			return fmt.Errorf("verify library: %w", err)
		}

		log.Printf("[TASK] Library audit complete: %d checked, %d healthy, %d problems",
			report.Checked, report.Healthy, len(report.Issues))
		if !report.OK() {
			return fmt.Errorf("library audit found %d problems", len(report.Issues))
		}
		return nil
	}
}

// NewVerifyLibraryQueue creates a backlite queue for library audits.
func NewVerifyLibraryQueue(verifier LibraryVerifier) backlite.Queue {
	return backlite.NewQueue(VerifyLibraryProcessor(verifier))
}
