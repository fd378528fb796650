package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/metrics"
	"github.com/abhisek/workbook/internal/nudge"
	"github.com/abhisek/workbook/internal/session"
)

// errSettingsUnavailable is returned by with when the caller's stored
// settings could not be read.
var errSettingsUnavailable = errors.New("settings are temporarily unavailable")

// sessions opens a settings session per request. Requests for the same
// user are serialized so a read-modify-write never loses another request's
// change.
type sessions struct {
	remote  session.RemoteStore
	engine  *nudge.Engine
	clock   func() time.Time
	metrics *metrics.Metrics
	log     *logger.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newSessions(remote session.RemoteStore, engine *nudge.Engine, clock func() time.Time, m *metrics.Metrics, log *logger.Logger) *sessions {
	return &sessions{
		remote:  remote,
		engine:  engine,
		clock:   clock,
		metrics: m,
		log:     log,
		locks:   make(map[string]*userLock),
	}
}

func (s *sessions) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

// with loads userID's settings, runs fn and waits for the write to land
// before returning, so the next request reads it back. fn is not run when
// the remote store could not be read.
func (s *sessions) with(ctx context.Context, userID string, fn func(*session.Session)) error {
	unlock := s.lock(userID)
	defer unlock()

	sess := session.New(s.remote, nil,
		session.WithUser(userID),
		session.WithClock(s.clock),
		session.WithNudgeEngine(s.engine),
		session.WithLogger(s.log),
		session.WithPersistErrorHook(s.metrics.PersistFailure),
	)
	if _, src := sess.Load(ctx); src != session.SourceRemote {
		s.log.Warn("settings load fell back, request refused", "user", userID, "source", src)
		return errSettingsUnavailable
	}
	fn(sess)
	if err := sess.Flush(ctx); err != nil {
		s.log.Warn("settings flush interrupted", "user", userID, "error", err)
	}
	return nil
}
