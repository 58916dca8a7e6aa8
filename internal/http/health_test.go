package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readsync/internal/database"
)

func setupHealthTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "health.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func getHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(setupHealthTestDB(t), nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports a missing database without failing", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db := setupHealthTestDB(t)
		db.Close()

		w, response := getHealth(t, NewHealthController(db, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})
}

func TestHealthController_TokenAliveWithoutSessions(t *testing.T) {
	router := gin.New()
	router.GET("/ruOK/:token", NewHealthController(nil, nil, "").TokenAlive)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ruOK/abc", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
