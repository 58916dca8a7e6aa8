package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/entities"
)

// EventsController lists the caller's own account activity.
type EventsController struct {
	activity ActivityLog
}

func NewEventsController(activity ActivityLog) *EventsController {
	return &EventsController{activity: activity}
}

// List handles GET /events?limit=N
func (ec *EventsController) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondFail(c, http.StatusBadRequest, codeInvalidRequest, "bad limit")
			return
		}
		limit = n
	}

	events, err := ec.activity.Recent(auth.GetUsername(c), limit)
	if err != nil {
		log.Printf("Internal error (events): %v", err)
		respondFail(c, http.StatusInternalServerError, codeServerError, "")
		return
	}
	if events == nil {
		events = []entities.Event{}
	}
	respondOK(c, gin.H{"events": events})
}
