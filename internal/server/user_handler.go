package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/events"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/metrics"
	"github.com/abhisek/workbook/internal/nudge"
	"github.com/abhisek/workbook/internal/session"
	"github.com/abhisek/workbook/internal/settings"
)

// Nudge outcomes for the decision counter.
const (
	outcomeShown     = "shown"
	outcomeAccepted  = "accepted"
	outcomeDismissed = "dismissed"
)

type UserHandler struct {
	sessions *sessions
	events   *events.Logger
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// run opens the caller's session. It reports false after responding when
// there is no caller or their settings cannot be loaded.
func (h *UserHandler) run(c *gin.Context, fn func(id auth.Identity, s *session.Session)) bool {
	id, ok := auth.Current(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", auth.ErrUnauthorized)
		return false
	}
	err := h.sessions.with(c.Request.Context(), id.UserID.String(), func(s *session.Session) {
		fn(id, s)
	})
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "settings_unavailable", err)
		return false
	}
	return true
}

func tagParam(c *gin.Context) (string, bool) {
	tag := strings.TrimSpace(c.Param("tag"))
	if tag == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("tag is required"))
		return "", false
	}
	return tag, true
}

// GET /api/user/preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	var out settings.Settings
	if h.run(c, func(_ auth.Identity, s *session.Session) { out = s.Settings() }) {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// POST /api/user/preferences
// body: a full settings document; absent fields take their defaults.
func (h *UserHandler) SavePreferences(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	next, err := settings.UnmarshalOver(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var out settings.Settings
	if h.run(c, func(_ auth.Identity, s *session.Session) { out = s.Replace(next) }) {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// PATCH /api/user/settings
func (h *UserHandler) PatchSettings(c *gin.Context) {
	var p settings.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var out settings.Settings
	if h.run(c, func(_ auth.Identity, s *session.Session) { out = s.Patch(p) }) {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// POST /api/user/reset
func (h *UserHandler) Reset(c *gin.Context) {
	var out settings.Settings
	if h.run(c, func(_ auth.Identity, s *session.Session) { out = s.Reset() }) {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// POST /api/user/signals
// body: { "tag": "tone:everyday", "context": "summary" }
func (h *UserHandler) AddSignal(c *gin.Context) {
	var req struct {
		Tag     string `json:"tag"`
		Context string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.Tag = strings.TrimSpace(req.Tag)
	if req.Tag == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("tag is required"))
		return
	}
	var (
		out  settings.Settings
		next *string
	)
	ok := h.run(c, func(_ auth.Identity, s *session.Session) {
		out = s.AddSignal(req.Tag, req.Context)
		if tag, ok := s.NextNudge(); ok {
			next = &tag
		}
	})
	if ok {
		RespondOK(c, gin.H{"preferences": out, "nudge": next})
	}
}

// GET /api/user/preferences/active
func (h *UserHandler) ActivePreferences(c *gin.Context) {
	var out []string
	if h.run(c, func(_ auth.Identity, s *session.Session) { out = s.ActivePreferences() }) {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// PUT /api/user/preferences/:tag
func (h *UserHandler) AdoptPreference(c *gin.Context) {
	h.setPreference(c, true)
}

// DELETE /api/user/preferences/:tag
func (h *UserHandler) RemovePreference(c *gin.Context) {
	h.setPreference(c, false)
}

func (h *UserHandler) setPreference(c *gin.Context, adopt bool) {
	tag, ok := tagParam(c)
	if !ok {
		return
	}
	var out settings.Settings
	ran := h.run(c, func(id auth.Identity, s *session.Session) {
		out = s.SetPreference(tag, adopt)
		h.events.PreferenceApplied(c.Request.Context(), id.UserID, nil, tag, adopt)
	})
	if ran {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// DELETE /api/user/preferences/active
func (h *UserHandler) ClearPreferences(c *gin.Context) {
	var out settings.Settings
	if h.run(c, func(_ auth.Identity, s *session.Session) { out = s.ClearPreferences() }) {
		RespondOK(c, gin.H{"preferences": out})
	}
}

// GET /api/user/nudge
// 200 with the first eligible decision, 204 when nothing qualifies.
func (h *UserHandler) NextNudge(c *gin.Context) {
	var (
		decision nudge.Decision
		found    bool
		userID   uuid.UUID
	)
	ran := h.run(c, func(id auth.Identity, s *session.Session) {
		userID = id.UserID
		var tag string
		if tag, found = s.NextNudge(); found {
			decision = s.EvaluateNudge(tag)
		}
	})
	if !ran {
		return
	}
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	h.metrics.NudgeDecision(decision.Tag, outcomeShown)
	h.events.NudgeShown(c.Request.Context(), userID, nil, decision.Tag)
	RespondOK(c, decision)
}

// POST /api/user/nudge/:tag/apply
func (h *UserHandler) ApplyNudge(c *gin.Context) {
	tag, ok := tagParam(c)
	if !ok {
		return
	}
	var out settings.Settings
	ran := h.run(c, func(id auth.Identity, s *session.Session) {
		out = s.ApplyNudge(tag)
		ctx := c.Request.Context()
		h.events.NudgeAccepted(ctx, id.UserID, nil, tag)
		h.events.PreferenceApplied(ctx, id.UserID, nil, tag, true)
	})
	if ran {
		h.metrics.NudgeDecision(tag, outcomeAccepted)
		RespondOK(c, gin.H{"preferences": out})
	}
}

// POST /api/user/nudge/:tag/dismiss
func (h *UserHandler) DismissNudge(c *gin.Context) {
	tag, ok := tagParam(c)
	if !ok {
		return
	}
	var out settings.Settings
	ran := h.run(c, func(id auth.Identity, s *session.Session) {
		out = s.DismissNudge(tag)
		h.events.NudgeDismissed(c.Request.Context(), id.UserID, nil, tag)
	})
	if ran {
		h.metrics.NudgeDecision(tag, outcomeDismissed)
		RespondOK(c, gin.H{"preferences": out})
	}
}
