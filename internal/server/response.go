package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/workbook/internal/classroom"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/repos"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondStoreError maps repository errors to responses. Unexpected errors
// are logged and hidden from the caller.
func respondStoreError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, repos.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", repos.ErrNotFound)
	case errors.Is(err, repos.ErrInvalid), errors.Is(err, classroom.ErrInvalid):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
	}
}
