package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/repos"
)

type SavedQueryHandler struct {
	repo repos.SavedQueryRepo
	log  *logger.Logger
}

// GET /api/saved-queries
func (h *SavedQueryHandler) List(c *gin.Context) {
	id, _ := auth.Current(c)
	out, err := h.repo.ListByUser(c.Request.Context(), nil, id.UserID)
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"savedQueries": out})
}

// POST /api/saved-queries
// body: { "title", "query", "mode", "url", "result", "tags", "folder" }
func (h *SavedQueryHandler) Create(c *gin.Context) {
	id, _ := auth.Current(c)
	var req struct {
		Title  string   `json:"title"`
		Query  string   `json:"query"`
		Mode   string   `json:"mode"`
		URL    string   `json:"url"`
		Result string   `json:"result"`
		Tags   []string `json:"tags"`
		Folder string   `json:"folder"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := h.repo.Create(c.Request.Context(), nil, &repos.SavedQuery{
		UserID: id.UserID,
		Title:  req.Title,
		Query:  req.Query,
		Mode:   req.Mode,
		URL:    nonEmpty(req.URL),
		Result: nonEmpty(req.Result),
		Tags:   repos.EncodeTags(req.Tags),
		Folder: nonEmpty(req.Folder),
	})
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"savedQuery": q})
}

// PUT /api/saved-queries/:id
// body: { "title", "tags", "isFavorite", "folder" }, all optional
func (h *SavedQueryHandler) Update(c *gin.Context) {
	id, _ := auth.Current(c)
	qid, ok := queryParam(c)
	if !ok {
		return
	}
	var req struct {
		Title      *string   `json:"title"`
		Tags       *[]string `json:"tags"`
		IsFavorite *bool     `json:"isFavorite"`
		Folder     *string   `json:"folder"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := h.repo.Update(c.Request.Context(), nil, qid, id.UserID, repos.SavedQueryUpdate{
		Title:      req.Title,
		Tags:       req.Tags,
		IsFavorite: req.IsFavorite,
		Folder:     req.Folder,
	})
	if err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"savedQuery": q})
}

// DELETE /api/saved-queries/:id
func (h *SavedQueryHandler) Delete(c *gin.Context) {
	id, _ := auth.Current(c)
	qid, ok := queryParam(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), nil, qid, id.UserID); err != nil {
		respondStoreError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"message": "saved query deleted"})
}

func queryParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := repos.ParseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return uuid.Nil, false
	}
	return id, true
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
