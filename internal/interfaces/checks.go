package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/readsync/internal/activity"
	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/database/catalog"
	"github.com/mrlokans/readsync/internal/database/changefeed"
	"github.com/mrlokans/readsync/internal/database/events"
	"github.com/mrlokans/readsync/internal/database/syncstore"
	"github.com/mrlokans/readsync/internal/database/users"
	"github.com/mrlokans/readsync/internal/http"
	"github.com/mrlokans/readsync/internal/library"
	"github.com/mrlokans/readsync/internal/scheduler"
	"github.com/mrlokans/readsync/internal/services"
	"github.com/mrlokans/readsync/internal/storage"
	"github.com/mrlokans/readsync/internal/storage/providers/local"
	"github.com/mrlokans/readsync/internal/storage/providers/s3"
	"github.com/mrlokans/readsync/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.SyncStore = (*syncstore.Repository)(nil)
var _ services.ChangeFeed = (*changefeed.Repository)(nil)
var _ library.Catalog = (*catalog.Repository)(nil)
var _ auth.UserStore = (*users.Repository)(nil)
var _ activity.Store = (*events.Repository)(nil)

// =============================================================================
// Storage Backends
// =============================================================================

var _ storage.Backend = (*local.Store)(nil)
var _ storage.Backend = (*s3.Store)(nil)

// =============================================================================
// HTTP Surface
// =============================================================================

var _ http.SyncOperations = (*services.SyncService)(nil)
var _ http.BookLibrary = (*library.Repository)(nil)
var _ http.Authenticator = (*auth.Service)(nil)
var _ http.LoginLimiter = (*auth.RateLimiter)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ auth.TokenValidator = (*auth.SessionManager)(nil)
var _ http.ActivityLog = (*activity.Log)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.LibraryVerifier = (*library.Repository)(nil)
var _ tasks.SessionPruner = (*auth.SessionManager)(nil)
var _ tasks.EventPruner = (*activity.Log)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
