package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/activity"
	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/database/changefeed"
	"github.com/mrlokans/readsync/internal/database/events"
	"github.com/mrlokans/readsync/internal/database/syncstore"
	"github.com/mrlokans/readsync/internal/database/users"
	http_controllers "github.com/mrlokans/readsync/internal/http"
	"github.com/mrlokans/readsync/internal/logging"
	"github.com/mrlokans/readsync/internal/scheduler"
	"github.com/mrlokans/readsync/internal/services"
	"github.com/mrlokans/readsync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before draining the queue.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	_, closeLog := logging.Setup(cfg.Log)
	defer closeLog()

	log.Printf("Starting readsync v%s", version)
	log.Printf("Configuration: %s", cfg)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	ctx := context.Background()

	library, err := OpenLibrary(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize library: %v", err)
	}

	store, err := NewSessionStore(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	sessions := auth.NewSessionManager(store, cfg.Auth.TokenTimeout)
	authService := auth.NewService(users.NewRepository(db.DB), sessions, cfg.Auth.BcryptCost, cfg.Sync.Compat)
	limiter := auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth))

	if n, err := users.NewRepository(db.DB).Count(); err == nil && n == 0 {
		log.Printf("No users found. Create one with 'readsync add-user -username <name> -password <secret>'")
	}

	syncService := services.NewSyncService(
		syncstore.NewRepository(db.DB),
		changefeed.NewRepository(db.DB),
		nil,
	)

	var activityLog *activity.Log
	if cfg.Activity.Enabled {
		activityLog = activity.NewLog(events.NewRepository(db.DB))
		defer activityLog.Wait()
	}

	routerCfg := http_controllers.RouterConfig{
		Sync:           syncService,
		Library:        library,
		Database:       db,
		AuthService:    authService,
		AuthMiddleware: auth.NewMiddleware(sessions),
		Sessions:       sessions,
		RateLimiter:    limiter,
		Version:        version,
	}
	if activityLog != nil {
		routerCfg.Activity = activityLog
	}

	var taskClient *tasks.Client
	var maintenance *scheduler.MaintenanceScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewVerifyLibraryQueue(library),
			tasks.NewPruneSessionsQueue(sessions),
		)
		if activityLog != nil {
			taskClient.Register(tasks.NewPruneEventsQueue(activityLog))
		}

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		jobs := scheduler.Jobs{SessionPruneSchedule: scheduler.DefaultSessionPruneSchedule}
		if cfg.LibraryAudit.Enabled {
			jobs.LibraryAuditSchedule = cfg.LibraryAudit.Schedule
			jobs.LibraryAuditDeep = cfg.LibraryAudit.Deep
		}
		if activityLog != nil {
			jobs.EventPruneSchedule = scheduler.DefaultEventPruneSchedule
			jobs.EventRetentionDays = cfg.Activity.RetentionDays
		}
		maintenance = scheduler.NewMaintenanceScheduler(taskClient, jobs)
		if err := maintenance.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}

		routerCfg.TaskQueue = taskClient
	} else if cfg.LibraryAudit.Enabled {
		log.Printf("WARNING: library audit is enabled but the task queue is disabled; audits will not run")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
