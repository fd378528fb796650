package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/workbook/internal/repos"
)

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS(deps.AllowedOrigins))
	r.Use(deps.Metrics.Middleware())

	log := deps.Log
	if deps.Settings == nil {
		deps.Settings = repos.RemoteSettings{Repo: deps.Repos.Preferences}
	}
	sess := newSessions(deps.Settings, deps.Nudges, deps.Clock, deps.Metrics, log.With("component", "sessions"))

	user := &UserHandler{sessions: sess, events: deps.Events, metrics: deps.Metrics, log: log.With("handler", "UserHandler")}
	event := &EventHandler{events: deps.Events, log: log.With("handler", "EventHandler")}
	instructor := &InstructorHandler{classroom: deps.Classroom, log: log.With("handler", "InstructorHandler")}
	assistant := &AssistHandler{assist: deps.Assist, sessions: sess, events: deps.Events, log: log.With("handler", "AssistHandler")}
	saved := &SavedQueryHandler{repo: deps.Repos.SavedQueries, log: log.With("handler", "SavedQueryHandler")}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group("/api")

	// Assistant (anonymous allowed)
	open := api.Group("/")
	open.Use(deps.Auth.OptionalAuth())
	{
		open.POST("/summarize", assistant.Summarize)
		open.POST("/qa", assistant.Ask)
		open.POST("/outline", assistant.Outline)
		open.POST("/citations", assistant.Citations)
	}

	protected := api.Group("/")
	protected.Use(deps.Auth.RequireAuth())
	{
		// Settings and preferences
		protected.GET("/user/preferences", user.GetPreferences)
		protected.POST("/user/preferences", user.SavePreferences)
		protected.PATCH("/user/settings", user.PatchSettings)
		protected.POST("/user/reset", user.Reset)
		protected.POST("/user/signals", user.AddSignal)
		protected.GET("/user/preferences/active", user.ActivePreferences)
		protected.DELETE("/user/preferences/active", user.ClearPreferences)
		protected.PUT("/user/preferences/:tag", user.AdoptPreference)
		protected.DELETE("/user/preferences/:tag", user.RemovePreference)

		// Nudges
		protected.GET("/user/nudge", user.NextNudge)
		protected.POST("/user/nudge/:tag/apply", user.ApplyNudge)
		protected.POST("/user/nudge/:tag/dismiss", user.DismissNudge)

		// Events
		protected.POST("/events", event.Ingest)

		// Saved queries
		protected.GET("/saved-queries", saved.List)
		protected.POST("/saved-queries", saved.Create)
		protected.PUT("/saved-queries/:id", saved.Update)
		protected.DELETE("/saved-queries/:id", saved.Delete)
	}

	instructors := api.Group("/instructor")
	instructors.Use(deps.Auth.RequireAuth(), deps.Auth.RequireInstructor())
	{
		instructors.GET("/classes", instructor.ListClasses)
		instructors.POST("/classes", instructor.CreateClass)
		instructors.POST("/classes/:id/enrollments", instructor.Enroll)
		instructors.GET("/classes/:id/stats", instructor.Stats)
	}

	return r
}
