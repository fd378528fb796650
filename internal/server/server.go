// Package server exposes settings, nudges, events, classes, the assistant
// and saved queries over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/workbook/internal/assist"
	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/classroom"
	"github.com/abhisek/workbook/internal/events"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/metrics"
	"github.com/abhisek/workbook/internal/nudge"
	"github.com/abhisek/workbook/internal/repos"
	"github.com/abhisek/workbook/internal/session"
)

// Deps are the collaborators behind the API. Repos, Classroom, Assist and
// Auth are required. Settings defaults to the preference documents in Repos.
type Deps struct {
	Repos     *repos.Repos
	Settings  session.RemoteStore
	Classroom *classroom.Service
	Assist    *assist.Service
	Events    *events.Logger
	Auth      *auth.Middleware
	Metrics   *metrics.Metrics
	Nudges    *nudge.Engine
	Clock     func() time.Time

	AllowedOrigins []string
	Log            *logger.Logger
}

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func New(deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Nudges == nil {
		deps.Nudges = nudge.New()
	}
	deps.Log = logger.OrNop(deps.Log)
	return &Server{Engine: NewRouter(deps), log: deps.Log.With("service", "HTTPServer")}
}

// Run serves on addr until ctx ends, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
