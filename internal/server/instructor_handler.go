package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/classroom"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/repos"
)

type InstructorHandler struct {
	classroom *classroom.Service
	log       *logger.Logger
}

func classParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := repos.ParseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/instructor/classes
func (h *InstructorHandler) ListClasses(c *gin.Context) {
	id, _ := auth.Current(c)
	classes, err := h.classroom.ListClasses(c.Request.Context(), id.UserID)
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"classes": classes})
}

// POST /api/instructor/classes
// body: { "name": "Research Methods 101" }
func (h *InstructorHandler) CreateClass(c *gin.Context) {
	id, _ := auth.Current(c)
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	class, err := h.classroom.CreateClass(c.Request.Context(), id.UserID, req.Name)
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"class": class})
}

// POST /api/instructor/classes/:id/enrollments
// body: { "userId": "..." }
func (h *InstructorHandler) Enroll(c *gin.Context) {
	id, _ := auth.Current(c)
	classID, ok := classParam(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid userId"))
		return
	}
	e, err := h.classroom.Enroll(c.Request.Context(), id.UserID, classID, userID)
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"enrollment": e})
}

// GET /api/instructor/classes/:id/stats
func (h *InstructorHandler) Stats(c *gin.Context) {
	id, _ := auth.Current(c)
	classID, ok := classParam(c)
	if !ok {
		return
	}
	report, err := h.classroom.Report(c.Request.Context(), id.UserID, classID)
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	RespondOK(c, report)
}
