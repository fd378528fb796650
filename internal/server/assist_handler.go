package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/workbook/internal/assist"
	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/events"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/session"
)

type AssistHandler struct {
	assist   *assist.Service
	sessions *sessions
	events   *events.Logger
	log      *logger.Logger
}

type assistRequest struct {
	Text     string `json:"text"`
	URL      string `json:"url"`
	Question string `json:"question"`
	assist.Options
}

// POST /api/summarize
func (h *AssistHandler) Summarize(c *gin.Context) {
	h.handle(c, assist.ModeSummarize, func(res *assist.Result) gin.H {
		return gin.H{"summary": res.Text}
	})
}

// POST /api/qa
func (h *AssistHandler) Ask(c *gin.Context) {
	h.handle(c, assist.ModeAsk, func(res *assist.Result) gin.H {
		return gin.H{"answer": res.Text}
	})
}

// POST /api/outline
func (h *AssistHandler) Outline(c *gin.Context) {
	h.handle(c, assist.ModeOutline, func(res *assist.Result) gin.H {
		return gin.H{"outline": res.Text}
	})
}

// POST /api/citations
func (h *AssistHandler) Citations(c *gin.Context) {
	h.handle(c, assist.ModeCitations, func(res *assist.Result) gin.H {
		if len(res.URLs) == 0 {
			return gin.H{"citations": []string{}, "suggestions": res.Text}
		}
		return gin.H{"citations": res.URLs, "formatted": res.Text, "structured": res.Citations}
	})
}

// handle runs mode for the request. Options start from the caller's stored
// settings and preferences, or the defaults for anonymous callers, and the
// request body overrides them field by field.
func (h *AssistHandler) handle(c *gin.Context, mode assist.Mode, render func(*assist.Result) gin.H) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := c.Request.Context()
	req := assistRequest{Options: assist.DefaultOptions()}
	id, signedIn := auth.Current(c)
	if signedIn {
		err := h.sessions.with(ctx, id.UserID.String(), func(s *session.Session) {
			req.Options = assist.OptionsFor(s.Settings())
		})
		if err != nil {
			h.log.Warn("assist using default options", "user", id.UserID, "error", err)
		}
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	opts := req.Options

	res, err := h.assist.Run(ctx, mode, assist.Input{
		Text:     req.Text,
		URL:      req.URL,
		Question: req.Question,
		Options:  opts,
	})
	switch {
	case errors.Is(err, assist.ErrNoSource), errors.Is(err, assist.ErrNoQuestion):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	case err != nil:
		h.log.Error("assist failed", "mode", mode, "error", err)
		RespondError(c, http.StatusBadGateway, "assist_failed", errors.New("failed to generate a response"))
		return
	}

	if signedIn {
		h.events.ModeUsed(ctx, id.UserID, nil, string(mode), opts.LanguageStyle, opts.Lens)
	}
	RespondOK(c, render(res))
}
