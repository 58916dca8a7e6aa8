package http

import (
	"context"
	"io"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/database/changefeed"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/library"
)

// Each controller depends on the narrowest interface it needs. The concrete
// implementations live in services, library, auth and tasks.

// SyncOperations is the record synchronization surface used by SyncController.
type SyncOperations interface {
	Check(kind entities.Kind, key entities.Key) (entities.RowState, error)
	Update(rec entities.Record, clientTimestamp int64, force bool) (int64, error)
	Delete(kind entities.Kind, key entities.Key) (int64, error)
	Get(kind entities.Kind, username, fileID string) ([]entities.Record, error)
	ListSince(kind entities.Kind, username string, since int64, limit int) (changefeed.Page, error)
}

// BookLibrary is the content-addressed store used by LibraryController.
type BookLibrary interface {
	ResolveByContent(sha string, size int64) (string, bool, error)
	Ingest(ctx context.Context, up library.Upload) (*entities.Book, error)
	FetchForDownload(fileID string) (*entities.Book, error)
	Open(ctx context.Context, book *entities.Book) (io.ReadCloser, error)
	MaxFileSize() int64
}

// Authenticator issues sessions for LoginController.
type Authenticator interface {
	Login(req auth.LoginRequest) (*auth.Session, error)
}

// LoginLimiter throttles repeated login failures.
type LoginLimiter interface {
	Allow(ip, username string) (bool, time.Duration)
	RecordFailure(ip, username string) (bool, time.Duration)
	RecordSuccess(ip, username string)
}

// TaskQueue enqueues background jobs and reports their status.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// ActivityLog records logins and uploads and lists a user's recent events.
type ActivityLog interface {
	LogLogin(username, ip, userAgent, failure string)
	LogUpload(username, fileID string, err error)
	Recent(username string, limit int) ([]entities.Event, error)
}
