package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/config"
	"github.com/abhisek/workbook/internal/db"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/nudge"
	"github.com/abhisek/workbook/internal/repos"
	"github.com/abhisek/workbook/internal/session"
	"github.com/abhisek/workbook/internal/store"
)

const flushTimeout = 10 * time.Second

// env is what a command needs from configuration. Close releases whatever
// was opened.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	gdb   *gorm.DB
	repos *repos.Repos
	cache *store.Store
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// openRemote loads config and connects to the authoritative store.
func openRemote(cmd *cobra.Command) (*env, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	gdb, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, log: log, gdb: gdb, repos: repos.New(gdb, log)}, nil
}

// Close releases the cache and database handles and flushes the logger.
func (e *env) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.gdb != nil {
		_ = db.Close(e.gdb)
	}
	e.log.Sync()
}

// resolveCachePath returns the local cache path using --db (highest
// priority), then config/WORKBOOK_CACHE_DB, then the default XDG path.
func resolveCachePath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path, store.EnsureDir(cfg.Cache.Path)
	}
	return store.DefaultDBPath()
}

func nudgeEngine(cfg *config.Config) *nudge.Engine {
	var opts []nudge.Option
	if len(cfg.Nudge.Candidates) > 0 {
		opts = append(opts, nudge.WithCandidates(cfg.Nudge.Candidates))
	}
	if cfg.Nudge.EvidenceThreshold > 0 {
		opts = append(opts, nudge.WithEvidenceThreshold(cfg.Nudge.EvidenceThreshold))
	}
	if cfg.Nudge.DismissalCeiling > 0 {
		opts = append(opts, nudge.WithDismissalCeiling(cfg.Nudge.DismissalCeiling))
	}
	return nudge.New(opts...)
}

// withSession loads the session selected by --user, runs fn and waits for
// the resulting writes. An anonymous session never touches the remote
// store.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	e := &env{cfg: cfg, log: log}
	defer e.Close()

	cachePath, err := resolveCachePath(cmd, cfg)
	if err != nil {
		return fmt.Errorf("resolve cache path: %w", err)
	}
	e.cache, err = store.Open(cachePath)
	if err != nil {
		return fmt.Errorf("open local cache: %w", err)
	}

	opts := []session.Option{
		session.WithNudgeEngine(nudgeEngine(cfg)),
		session.WithLogger(log),
	}
	var remote session.RemoteStore
	if userID, _ := cmd.Flags().GetString("user"); userID != "" {
		if _, err := repos.ParseID(userID); err != nil {
			return fmt.Errorf("invalid user id %q", userID)
		}
		e.gdb, err = db.Open(cfg.Database.Driver, cfg.Database.DSN, log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		remote = repos.RemoteSettings{Repo: repos.NewPreferencesRepo(e.gdb, log)}
		opts = append(opts, session.WithUser(userID))
	}

	s := session.New(remote, store.NewLocalCache(e.cache), opts...)
	ctx := cmd.Context()
	_, src := s.Load(ctx)
	log.Debug("settings loaded", "source", src)
	if s.Detached() {
		return fmt.Errorf("could not load settings for user %s from the database", s.UserID())
	}

	runErr := fn(ctx, s)

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.Flush(flushCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
