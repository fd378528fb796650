package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/workbook/internal/assist"
	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/cache"
	"github.com/abhisek/workbook/internal/classroom"
	"github.com/abhisek/workbook/internal/events"
	"github.com/abhisek/workbook/internal/llm"
	"github.com/abhisek/workbook/internal/metrics"
	"github.com/abhisek/workbook/internal/server"
)

const memoryReportCacheSize = 256

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openRemote(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		cfg, log := e.cfg, e.log

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret (or WORKBOOK_JWT_SECRET) is required")
		}
		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}

		m := metrics.Default()

		provider, err := llm.NewProvider(ctx, cfg.LLMProviderConfig(),
			llm.WithRecorder(e.repos.LLMRequests),
			llm.WithObserver(m.ObserveLLM),
			llm.WithLogger(log),
		)
		if err != nil {
			return fmt.Errorf("init llm provider: %w", err)
		}

		var reports cache.ReportCache = cache.NewMemory(memoryReportCacheSize)
		if cfg.Redis.Addr != "" {
			rc := cache.NewRedis(redis.NewClient(cache.RedisOptions(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)), cfg.RedisTTL())
			defer rc.Close()
			if err := rc.Ping(ctx); err != nil {
				log.Warn("redis unavailable, report cache stays in memory", "addr", cfg.Redis.Addr, "error", err)
			} else {
				reports = rc
			}
		}

		srv := server.New(server.Deps{
			Repos: e.repos,
			Classroom: classroom.New(e.repos,
				classroom.WithCache(reports),
				classroom.WithMetrics(m),
				classroom.WithWindow(cfg.ActivityWindow()),
				classroom.WithLogger(log),
			),
			Assist: assist.NewService(provider, assist.NewHTTPFetcher(nil), assist.DefaultConfig(), log),
			Events: events.New(e.repos.Events,
				events.WithClassLookup(e.repos.Classes),
				events.WithLogger(log),
				events.WithFailureHook(m.EventFailure),
			),
			Auth:           auth.NewMiddleware(issuer, log),
			Metrics:        m,
			Nudges:         nudgeEngine(cfg),
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Log:            log,
		})
		return srv.Run(ctx, cfg.HTTP.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
