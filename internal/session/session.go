// Package session owns one user's Settings for the lifetime of a session.
// All mutations go through a serialized read-modify-write; persistence is
// asynchronous and write failures never reach the caller.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/nudge"
	"github.com/abhisek/workbook/internal/settings"
)

// RemoteStore is the authoritative store for authenticated users.
type RemoteStore interface {
	LoadSettings(ctx context.Context, userID string) (settings.Settings, error)
	SaveSettings(ctx context.Context, userID string, s settings.Settings) error
}

// LocalStore is the anonymous cache. LoadSettings reports found == false
// when nothing has been stored yet.
type LocalStore interface {
	LoadSettings(ctx context.Context) (s settings.Settings, found bool, err error)
	SaveSettings(ctx context.Context, s settings.Settings) error
}

// Source says where a loaded Settings came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Store names passed to the persist error hook.
const (
	StoreRemote = "remote"
	StoreLocal  = "local"
)

const persistTimeout = 10 * time.Second

// Session holds the in-memory Settings for one user, or for the anonymous
// user when no user id is set. The in-memory state is the source of truth
// for the session.
type Session struct {
	remote RemoteStore
	local  LocalStore
	engine *nudge.Engine
	clock  func() time.Time
	log    *logger.Logger
	onFail func(store string, err error)

	mu     sync.Mutex
	state  settings.Settings
	userID string
	seq    uint64
	// detached is set when an authenticated load fell back from the remote
	// store; remote writes are held while it is set.
	detached bool

	persistMu sync.Mutex
	persisted uint64
	pending   sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithNudgeEngine sets the eligibility engine. The default uses the
// standard rules.
func WithNudgeEngine(e *nudge.Engine) Option {
	return func(s *Session) { s.engine = e }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithPersistErrorHook is called after a failed background write.
func WithPersistErrorHook(fn func(store string, err error)) Option {
	return func(s *Session) { s.onFail = fn }
}

// WithUser starts the session authenticated as userID.
func WithUser(userID string) Option {
	return func(s *Session) { s.userID = userID }
}

// New returns a Session holding default settings. Call Load to populate it.
// Either store may be nil; writes aimed at a nil store are dropped.
func New(remote RemoteStore, local LocalStore, opts ...Option) *Session {
	s := &Session{
		remote: remote,
		local:  local,
		clock:  time.Now,
		state:  settings.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = nudge.New()
	}
	s.log = logger.OrNop(s.log).With("component", "session")
	return s
}

// UserID returns the authenticated user, or "" for an anonymous session.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Engine returns the nudge engine in use.
func (s *Session) Engine() *nudge.Engine {
	return s.engine
}

// Load replaces the in-memory state from the store that is authoritative
// for this session. An authenticated session reads the remote store and
// falls back to the local cache when that fails; either falls back to
// defaults. Load never fails. After an authenticated fallback the session
// is detached: changes stay in memory and are not written to the remote
// store until a later Load reads it successfully.
func (s *Session) Load(ctx context.Context) (settings.Settings, Source) {
	userID := s.UserID()
	loaded, src := s.read(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		// Authentication changed while we were reading.
		return s.state.Clone(), src
	}
	s.state = loaded
	s.seq++
	s.detached = userID != "" && s.remote != nil && src != SourceRemote
	return s.state.Clone(), src
}

func (s *Session) read(ctx context.Context, userID string) (settings.Settings, Source) {
	if userID != "" && s.remote != nil {
		loaded, err := s.remote.LoadSettings(ctx, userID)
		if err == nil {
			loaded.Normalize()
			return loaded, SourceRemote
		}
		s.log.Warn("remote settings load failed, falling back to local cache", "user", userID, "error", err)
	}
	if s.local != nil {
		loaded, found, err := s.local.LoadSettings(ctx)
		switch {
		case err != nil:
			s.log.Warn("local settings load failed, using defaults", "error", err)
		case found:
			loaded.Normalize()
			return loaded, SourceLocal
		}
	}
	return settings.Default(), SourceDefault
}

// Authenticate switches the session to userID and reloads from the remote
// store. Anonymous state held in memory is discarded, not merged.
func (s *Session) Authenticate(ctx context.Context, userID string) (settings.Settings, Source) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	return s.Load(ctx)
}

// SignOut returns the session to anonymous and reloads from the local
// cache.
func (s *Session) SignOut(ctx context.Context) (settings.Settings, Source) {
	return s.Authenticate(ctx, "")
}

// Detached reports whether the last authenticated Load fell back from the
// remote store.
func (s *Session) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

// Settings returns a copy of the current state.
func (s *Session) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to a copy of the current state, installs the result
// and schedules a background write of it. It returns the new state.
func (s *Session) Update(fn func(*settings.Settings)) settings.Settings {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	next.Normalize()
	s.state = next
	s.seq++
	seq, userID, detached := s.seq, s.userID, s.detached
	snapshot := next.Clone()
	s.mu.Unlock()

	if detached {
		s.log.Warn("remote settings not loaded, keeping change in memory", "user", userID)
		return next.Clone()
	}
	s.persist(seq, userID, snapshot)
	return next.Clone()
}

func (s *Session) persist(seq uint64, userID string, snapshot settings.Settings) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		s.persistMu.Lock()
		defer s.persistMu.Unlock()
		if seq <= s.persisted {
			return
		}
		s.persisted = seq

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		store, err := s.write(ctx, userID, snapshot)
		if err != nil {
			s.log.Warn("settings persist failed", "store", store, "user", userID, "error", err)
			if s.onFail != nil {
				s.onFail(store, err)
			}
		}
	}()
}

func (s *Session) write(ctx context.Context, userID string, snapshot settings.Settings) (string, error) {
	if userID != "" {
		if s.remote == nil {
			return StoreRemote, nil
		}
		return StoreRemote, s.remote.SaveSettings(ctx, userID, snapshot)
	}
	if s.local == nil {
		return StoreLocal, nil
	}
	return StoreLocal, s.local.SaveSettings(ctx, snapshot)
}

// Flush waits for scheduled writes to finish or for ctx to end.
func (s *Session) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush settings: %w", ctx.Err())
	}
}
