// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - SyncStore: tombstoned rows and the book-state cascade (internal/services/interfaces.go)
//   - ChangeFeed: rows changed after a cursor (internal/services/interfaces.go)
//   - Catalog: the content-addressed book index (internal/library/repository.go)
//   - UserStore: accounts and password hashes (internal/auth/service.go)
//
// ## Storage Interfaces
//
//   - Backend: places, opens and stats book files (internal/storage/client.go)
//
// ## HTTP Surface
//
// Controllers depend on the narrow interfaces in internal/http/stores.go:
// SyncOperations, BookLibrary, Authenticator, LoginLimiter and TaskQueue.
//
// ## Background Work
//
//   - LibraryVerifier and SessionPruner: task processors (internal/tasks)
//   - Enqueuer: the cron scheduler's view of the queue (internal/scheduler)
//
// # Adding a New Storage Backend
//
//  1. Create a package under internal/storage/providers/
//
//     type Store struct { ... }
//
//     func (s *Store) Name() string
//     func (s *Store) Place(ctx context.Context, scratchPath, key string) (string, error)
//     func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error)
//     func (s *Store) Stat(ctx context.Context, location string) (*storage.ObjectInfo, error)
//
//  2. Add a STORAGE_BACKEND value in internal/config and select it in
//     entrypoint.NewBackend.
//
//  3. Add a compile-time check to checks.go:
//
//     var _ storage.Backend = (*mystore.Store)(nil)
//
// # Adding a New Maintenance Job
//
//  1. Define a backlite task and processor in internal/tasks/
//
//  2. Register its queue in entrypoint.Run
//
//  3. Add a schedule to scheduler.Jobs
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
