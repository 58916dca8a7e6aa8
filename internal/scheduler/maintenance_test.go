package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readsync/internal/tasks"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (f *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	return "task-1", nil
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule(DefaultSessionPruneSchedule))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
	assert.Error(t, ValidateSchedule("nonsense"))
}

func TestNextRun(t *testing.T) {
	from := time.Date(2025, 1, 1, 1, 0, 0, 0, time.Local)
	next, err := NextRun("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 3, 0, 0, 0, time.Local), next)
}

func TestMaintenanceScheduler_Start(t *testing.T) {
	t.Run("registers configured jobs and stops with the context", func(t *testing.T) {
		s := NewMaintenanceScheduler(&fakeQueue{}, Jobs{
			LibraryAuditSchedule: "0 3 * * *",
			SessionPruneSchedule: DefaultSessionPruneSchedule,
		})
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, s.Start(ctx))
		assert.True(t, s.IsRunning())
		assert.Equal(t, 2, s.Entries())

		require.NoError(t, s.Start(ctx), "second start is a no-op")
		assert.Equal(t, 2, s.Entries())

		cancel()
		assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
	})

	t.Run("activity pruning needs a retention", func(t *testing.T) {
		s := NewMaintenanceScheduler(&fakeQueue{}, Jobs{EventPruneSchedule: DefaultEventPruneSchedule})
		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())

		s = NewMaintenanceScheduler(&fakeQueue{}, Jobs{EventPruneSchedule: DefaultEventPruneSchedule, EventRetentionDays: 30})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, s.Start(ctx))
		assert.Equal(t, 1, s.Entries())
		s.Stop()
	})

	t.Run("no jobs leaves the scheduler idle", func(t *testing.T) {
		s := NewMaintenanceScheduler(&fakeQueue{}, Jobs{})
		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
	})

	t.Run("invalid schedule is rejected", func(t *testing.T) {
		s := NewMaintenanceScheduler(&fakeQueue{}, Jobs{LibraryAuditSchedule: "every day"})
		err := s.Start(context.Background())
		assert.ErrorContains(t, err, "library audit")
		assert.False(t, s.IsRunning())
	})
}

func TestMaintenanceScheduler_Enqueue(t *testing.T) {
	q := &fakeQueue{}
	s := NewMaintenanceScheduler(q, Jobs{LibraryAuditDeep: true})

	s.enqueue("library audit", tasks.VerifyLibraryTask{Deep: true})
	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.VerifyLibraryTask{Deep: true}, q.tasks[0])

	q.err = errors.New("queue closed")
	s.enqueue("session pruning", tasks.PruneSessionsTask{})
	assert.Len(t, q.tasks, 1, "failures are logged and dropped")
}
