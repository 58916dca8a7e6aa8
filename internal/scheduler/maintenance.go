// Package scheduler enqueues periodic maintenance tasks on a cron schedule.
// The jobs themselves run on the task queue workers.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readsync/internal/tasks"
)

const (
	// DefaultSessionPruneSchedule runs session pruning hourly.
	DefaultSessionPruneSchedule = "17 * * * *"
	// DefaultEventPruneSchedule trims the activity log nightly.
	DefaultEventPruneSchedule = "41 4 * * *"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// NextRun returns the first activation of spec after from.
func NextRun(spec string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Enqueuer adds a single task to the queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Jobs selects the periodic jobs. An empty schedule disables a job.
type Jobs struct {
	LibraryAuditSchedule string
	LibraryAuditDeep     bool
	SessionPruneSchedule string
	EventPruneSchedule   string
	EventRetentionDays   int
}

// MaintenanceScheduler enqueues library audits and session pruning.
type MaintenanceScheduler struct {
	queue Enqueuer
	jobs  Jobs

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewMaintenanceScheduler(queue Enqueuer, jobs Jobs) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue: queue,
		jobs:  jobs,
		cron:  cron.New(cron.WithParser(parser)),
	}
}

// Start registers the configured jobs and starts the cron runner. It stops
// when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	scheduled := 0
	if spec := s.jobs.LibraryAuditSchedule; spec != "" {
		task := tasks.VerifyLibraryTask{Deep: s.jobs.LibraryAuditDeep}
		if err := s.add(spec, "library audit", task); err != nil {
			return err
		}
		scheduled++
	}
	if spec := s.jobs.SessionPruneSchedule; spec != "" {
		if err := s.add(spec, "session pruning", tasks.PruneSessionsTask{}); err != nil {
			return err
		}
		scheduled++
	}
	if spec := s.jobs.EventPruneSchedule; spec != "" && s.jobs.EventRetentionDays > 0 {
		task := tasks.PruneEventsTask{RetentionDays: s.jobs.EventRetentionDays}
		if err := s.add(spec, "activity pruning", task); err != nil {
			return err
		}
		scheduled++
	}
	if scheduled == 0 {
		log.Printf("Maintenance scheduler: no jobs configured")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

func (s *MaintenanceScheduler) add(spec, name string, task backlite.Task) error {
	if err := ValidateSchedule(spec); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", spec, name, err)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.enqueue(name, task) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	next, _ := NextRun(spec, time.Now())
	log.Printf("Maintenance scheduler: %s scheduled '%s'. Next run: %v", name, spec, next)
	return nil
}

func (s *MaintenanceScheduler) enqueue(name string, task backlite.Task) {
	id, err := s.queue.Enqueue(task)
	if err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue %s: %v", name, err)
		return
	}
	log.Printf("Maintenance scheduler: enqueued %s as task %s", name, id)
}

// Stop waits for running cron callbacks and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	log.Printf("Maintenance scheduler: stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Entries returns the number of registered jobs.
func (s *MaintenanceScheduler) Entries() int {
	return len(s.cron.Entries())
}
