package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/workbook/internal/settings"
)

var t0 = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := t0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fakeRemote struct {
	mu      sync.Mutex
	docs    map[string]settings.Settings
	loadErr error
	saveErr error
	saves   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[string]settings.Settings{}}
}

func (f *fakeRemote) LoadSettings(_ context.Context, userID string) (settings.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return settings.Settings{}, f.loadErr
	}
	s, ok := f.docs[userID]
	if !ok {
		return settings.Default(), nil
	}
	return s.Clone(), nil
}

func (f *fakeRemote) SaveSettings(_ context.Context, userID string, s settings.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.docs[userID] = s.Clone()
	return nil
}

func (f *fakeRemote) get(userID string) (settings.Settings, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.docs[userID]
	return s, ok
}

type fakeLocal struct {
	mu      sync.Mutex
	doc     *settings.Settings
	loadErr error
	saves   int
}

func (f *fakeLocal) LoadSettings(_ context.Context) (settings.Settings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return settings.Settings{}, false, f.loadErr
	}
	if f.doc == nil {
		return settings.Settings{}, false, nil
	}
	return f.doc.Clone(), true, nil
}

func (f *fakeLocal) SaveSettings(_ context.Context, s settings.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	c := s.Clone()
	f.doc = &c
	return nil
}

func (f *fakeLocal) get() *settings.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc
}

func flush(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestLoad_AnonymousWithoutCache(t *testing.T) {
	s := New(newFakeRemote(), &fakeLocal{})
	got, src := s.Load(context.Background())
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, settings.Default(), got)
}

func TestLoad_AnonymousFromCache(t *testing.T) {
	cached := settings.Default()
	cached.Language = "Spanish"
	remote := newFakeRemote()
	remote.docs["u1"] = settings.Default()

	s := New(remote, &fakeLocal{doc: &cached})
	got, src := s.Load(context.Background())
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, "Spanish", got.Language)
}

func TestLoad_AuthenticatedFromRemote(t *testing.T) {
	remote := newFakeRemote()
	doc := settings.Default()
	doc.Language = "French"
	remote.docs["u1"] = doc

	s := New(remote, &fakeLocal{}, WithUser("u1"))
	got, src := s.Load(context.Background())
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, "French", got.Language)
}

func TestLoad_RemoteFailureFallsBack(t *testing.T) {
	remote := newFakeRemote()
	remote.loadErr = errors.New("connection refused")
	cached := settings.Default()
	cached.Community = "Robotics club"

	s := New(remote, &fakeLocal{doc: &cached}, WithUser("u1"))
	got, src := s.Load(context.Background())
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, "Robotics club", got.Community)

	s = New(remote, &fakeLocal{loadErr: errors.New("disk gone")}, WithUser("u1"))
	got, src = s.Load(context.Background())
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, settings.Default(), got)

	s = New(remote, nil, WithUser("u1"))
	_, src = s.Load(context.Background())
	assert.Equal(t, SourceDefault, src)
}

func TestUpdate_FailedRemoteLoadNeverOverwritesDocument(t *testing.T) {
	remote := newFakeRemote()
	stored := settings.Default()
	stored.SetPreference("tone:academic", true, t0)
	stored.AddSignal("tone:academic", "summary", t0)
	remote.docs["u1"] = stored

	remote.loadErr = errors.New("connection reset")
	s := New(remote, nil, WithUser("u1"), WithClock(fixedClock()))
	_, src := s.Load(context.Background())
	require.Equal(t, SourceDefault, src)
	assert.True(t, s.Detached())

	remote.mu.Lock()
	remote.loadErr = nil
	remote.mu.Unlock()

	got := s.AddSignal("tone:everyday", "summary")
	flush(t, s)
	assert.Len(t, got.Signals, 1, "change is kept in memory")

	saved, ok := remote.get("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"tone:academic"}, saved.ActivePreferences())
	assert.Len(t, saved.Signals, 1)
	assert.Equal(t, "tone:academic", saved.Signals[0].Tag)
	assert.Zero(t, remote.saves)

	// A successful reload reattaches the session.
	_, src = s.Load(context.Background())
	require.Equal(t, SourceRemote, src)
	assert.False(t, s.Detached())
	s.AddSignal("tone:everyday", "summary")
	flush(t, s)
	saved, _ = remote.get("u1")
	assert.Len(t, saved.Signals, 2)
	assert.Equal(t, 1, remote.saves)
}

func TestAuthenticate_ReplacesAnonymousState(t *testing.T) {
	remote := newFakeRemote()
	account := settings.Default()
	account.SetPreference("tone:academic", true, t0)
	remote.docs["u1"] = account
	local := &fakeLocal{}

	s := New(remote, local, WithClock(fixedClock()))
	s.Load(context.Background())
	s.SetPreference("lens:music", true)
	flush(t, s)

	got, src := s.Authenticate(context.Background(), "u1")
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, []string{"tone:academic"}, got.ActivePreferences(), "anonymous state is not merged")
	assert.Equal(t, "u1", s.UserID())

	// The anonymous cache is untouched.
	require.NotNil(t, local.get())
	assert.Equal(t, []string{"lens:music"}, local.get().ActivePreferences())

	got, src = s.SignOut(context.Background())
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, []string{"lens:music"}, got.ActivePreferences())
}

func TestUpdate_WritesOnlyToAuthoritativeStore(t *testing.T) {
	remote := newFakeRemote()
	local := &fakeLocal{}

	s := New(remote, local, WithUser("u1"), WithClock(fixedClock()))
	s.Load(context.Background())
	s.AddSignal("tone:everyday", "summary")
	flush(t, s)

	saved, ok := remote.get("u1")
	require.True(t, ok)
	assert.Len(t, saved.Signals, 1)
	assert.Zero(t, local.saves)

	anon := New(remote, local, WithClock(fixedClock()))
	anon.AddSignal("lens:sports", "qa")
	flush(t, anon)
	assert.Equal(t, 1, local.saves)
	require.NotNil(t, local.get())
	assert.Len(t, local.get().Signals, 1)
}

func TestUpdate_PersistFailureIsSwallowed(t *testing.T) {
	remote := newFakeRemote()
	remote.saveErr = errors.New("db down")

	var mu sync.Mutex
	var failed []string
	s := New(remote, nil, WithUser("u1"), WithClock(fixedClock()),
		WithPersistErrorHook(func(store string, err error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, store)
		}))

	got := s.SetPreference("depth:short", true)
	flush(t, s)

	assert.True(t, got.HasPreference("depth:short"))
	st := s.Settings()
	assert.True(t, st.HasPreference("depth:short"), "in-memory state stays authoritative")
	mu.Lock()
	assert.Equal(t, []string{StoreRemote}, failed)
	mu.Unlock()
}

func TestUpdate_ConcurrentWritersDoNotLoseSignals(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, nil, WithUser("u1"), WithClock(fixedClock()))

	const writers, each = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				s.AddSignal("aids:vocab", "qa")
			}
		}()
	}
	wg.Wait()
	flush(t, s)

	st := s.Settings()
	assert.Equal(t, writers*each, st.SignalCount("aids:vocab"))

	saved, ok := remote.get("u1")
	require.True(t, ok)
	assert.Equal(t, writers*each, saved.SignalCount("aids:vocab"), "the newest state is the one persisted")
}

func TestSession_NudgeFlow(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, nil, WithUser("u1"), WithClock(fixedClock()))
	level := settings.ReadingLevelStandard
	s.Patch(settings.Patch{DefaultReadingLevel: &level})

	for _, ctx := range []string{"summary", "qa", "summary"} {
		s.AddSignal("tone:everyday", ctx)
	}
	require.True(t, s.ShouldShowNudge("tone:everyday"))
	tag, ok := s.NextNudge()
	require.True(t, ok)
	assert.Equal(t, "tone:everyday", tag)

	got := s.ApplyNudge(tag)
	pref := got.Preferences["tone:everyday"]
	assert.True(t, pref.Default)
	assert.False(t, pref.Since.IsZero())
	assert.Contains(t, s.ActivePreferences(), "tone:everyday")
	assert.Equal(t, "already-adopted", string(s.EvaluateNudge("tone:everyday").Reason))

	s.AddSignal("lens:sports", "qa")
	s.AddSignal("lens:sports", "qa")
	s.DismissNudge("lens:sports")
	s.DismissNudge("lens:sports")
	assert.False(t, s.ShouldShowNudge("lens:sports"))

	flush(t, s)
	saved, _ := remote.get("u1")
	assert.Equal(t, 2, saved.Dismissals("lens:sports"))
	assert.True(t, saved.HasPreference("tone:everyday"))
}

func TestSession_ResetAndClear(t *testing.T) {
	s := New(nil, &fakeLocal{}, WithClock(fixedClock()))
	s.AddSignal("a", "summary")
	s.SetPreference("a", true)
	s.SetPreference("b", true)

	got := s.ClearPreferences()
	assert.Empty(t, got.Preferences)
	assert.Len(t, got.Signals, 1)

	got = s.Reset()
	assert.Equal(t, settings.Default(), got)
	flush(t, s)
}

func TestSession_Replace(t *testing.T) {
	s := New(nil, nil)
	doc := settings.Default()
	doc.Language = "German"
	doc.Preferences["x"] = settings.Preference{Default: false}

	got := s.Replace(doc)
	assert.Equal(t, "German", got.Language)
	assert.Empty(t, got.Preferences, "non-default entries are dropped")
	flush(t, s)
}

func TestFlush_RespectsContext(t *testing.T) {
	block := make(chan struct{})
	remote := &blockingRemote{release: block}
	s := New(remote, nil, WithUser("u1"))
	s.AddSignal("a", "qa")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Flush(ctx))

	close(block)
	flush(t, s)
}

type blockingRemote struct {
	release chan struct{}
}

func (b *blockingRemote) LoadSettings(context.Context, string) (settings.Settings, error) {
	return settings.Default(), nil
}

func (b *blockingRemote) SaveSettings(context.Context, string, settings.Settings) error {
	<-b.release
	return nil
}
