package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/tasks"
)

// TasksController enqueues library audits and reports task status.
type TasksController struct {
	queue TaskQueue
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// VerifyLibraryRequest is the optional body of POST /tasks/verifyLibrary.
type VerifyLibraryRequest struct {
	Deep bool `json:"deep"`
}

// VerifyLibrary handles POST /tasks/verifyLibrary
func (tc *TasksController) VerifyLibrary(c *gin.Context) {
	var req VerifyLibraryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFail(c, http.StatusBadRequest, "invalid_json", "")
			return
		}
	}

	ids, err := tc.queue.Add(tasks.VerifyLibraryTask{Deep: req.Deep}).Save()
	if err != nil {
		log.Printf("Internal error (enqueue verify_library): %v", err)
		respondFail(c, http.StatusInternalServerError, codeServerError, "")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "taskId": ids[0], "deep": req.Deep})
}

// GetTaskStatus handles GET /tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		log.Printf("Internal error (task status): %v", err)
		respondFail(c, http.StatusInternalServerError, codeServerError, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": taskID, "status": tasks.StatusName(status)})
}
