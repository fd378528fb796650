package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/events"
	"github.com/abhisek/workbook/internal/logger"
)

type EventHandler struct {
	events *events.Logger
	log    *logger.Logger
}

// POST /api/events
// body: { "event": "output_exported", "classId": "...", "properties": {...} }
// Storage is best effort; "stored" reports whether the write landed.
func (h *EventHandler) Ingest(c *gin.Context) {
	id, ok := auth.Current(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", auth.ErrUnauthorized)
		return
	}
	var req struct {
		Event      string         `json:"event"`
		ClassID    string         `json:"classId"`
		Properties map[string]any `json:"properties"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.Event = strings.TrimSpace(req.Event)
	if req.Event == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("event type is required"))
		return
	}

	var classID *uuid.UUID
	if req.ClassID != "" {
		cid, err := uuid.Parse(req.ClassID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid classId"))
			return
		}
		classID = &cid
	}

	stored := h.events.Log(c.Request.Context(), id.UserID, classID, req.Event, req.Properties)
	RespondOK(c, gin.H{"message": "event logged", "stored": stored})
}
