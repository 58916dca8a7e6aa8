package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db       *database.Database
	sessions auth.TokenValidator
	version  string
}

func NewHealthController(db *database.Database, sessions auth.TokenValidator, version string) *HealthController {
	return &HealthController{
		db:       db,
		sessions: sessions,
		version:  version,
	}
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// Ping handles GET / and GET /ping
func (h *HealthController) Ping(c *gin.Context) {
	respondOK(c, gin.H{"status": "server up"})
}

// TokenAlive handles GET /ruOK/:token, a heartbeat that also tells the
// client whether its token is still valid.
func (h *HealthController) TokenAlive(c *gin.Context) {
	if h.sessions == nil || h.sessions.UsernameIfValid(c.Param("token")) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
