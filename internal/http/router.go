package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates the HTTP router with all endpoints.
//
// Sync endpoints answer unauthenticated requests with 200 and an in-band
// "unauthorised" error; upload and download use 401.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Sessions, cfg.Version)
	router.GET("/", health.Ping)
	router.GET("/ping", health.Ping)
	router.GET("/health", health.Status)
	router.GET("/ruOK/:token", health.TokenAlive)

	login := NewLoginController(cfg.AuthService, cfg.RateLimiter)
	login.activity = cfg.Activity
	router.POST("/login", login.Login)

	syncController := NewSyncController(cfg.Sync)
	libraryController := NewLibraryController(cfg.Library)
	libraryController.activity = cfg.Activity

	api := router.Group("/", cfg.AuthMiddleware.RequireJSON())
	{
		api.POST("/check", syncController.Check)
		api.POST("/update", syncController.Update)
		api.POST("/delete", syncController.Delete)
		api.POST("/get", syncController.Get)
		api.POST("/getSince", syncController.GetSince)
		api.POST("/resolve", libraryController.Resolve)
	}

	files := router.Group("/", cfg.AuthMiddleware.RequireStrict())
	{
		files.POST("/uploadBook", libraryController.UploadBook)
		files.GET("/book/:fileId", libraryController.GetBook)

		if cfg.TaskQueue != nil {
			tasksController := NewTasksController(cfg.TaskQueue)
			files.POST("/tasks/verifyLibrary", tasksController.VerifyLibrary)
			files.GET("/tasks/:id", tasksController.GetTaskStatus)
		}

		if cfg.Activity != nil {
			files.GET("/events", NewEventsController(cfg.Activity).List)
		}
	}

	return router
}
