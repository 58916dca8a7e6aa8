package http

import (
	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/database"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Sync     SyncOperations
	Library  BookLibrary
	Database *database.Database

	// Authentication
	AuthService    Authenticator
	AuthMiddleware *auth.Middleware
	Sessions       auth.TokenValidator
	RateLimiter    LoginLimiter

	// Task queue (optional). When nil the task endpoints are not registered.
	TaskQueue TaskQueue

	// Activity log (optional). When nil nothing is recorded and /events is
	// not registered.
	Activity ActivityLog

	Version string
}
