package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/workbook/internal/db"
	"github.com/abhisek/workbook/internal/llm"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/repos"
	"github.com/abhisek/workbook/internal/settings"
)

func openRepos(t *testing.T, name string) *repos.Repos {
	t.Helper()
	gdb, err := db.Open("sqlite", "file:"+name+"?mode=memory&cache=shared", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return repos.New(gdb, logger.NewNop())
}

func createUser(t *testing.T, r *repos.Repos, email, role string) *repos.User {
	t.Helper()
	u, err := r.Users.Create(context.Background(), nil, &repos.User{Name: email, Email: email, Role: role})
	require.NoError(t, err)
	return u
}

func TestUsers(t *testing.T) {
	r := openRepos(t, "repos_users")
	ctx := context.Background()

	u := createUser(t, r, "  Ana@Example.com ", "")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, repos.RoleStudent, u.Role)

	got, err := r.Users.GetByEmail(ctx, nil, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.Users.GetByID(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, repos.ErrNotFound)

	ok, err := r.Users.Exists(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPreferences_UnknownUserGetsDefaults(t *testing.T) {
	r := openRepos(t, "repos_prefs_unknown")
	ctx := context.Background()
	id := uuid.New()

	s, err := r.Preferences.Get(ctx, nil, id)
	require.NoError(t, err)
	assert.False(t, s.HasOnboarded)
	assert.Equal(t, settings.Default().Language, s.Language)

	stored, err := r.Preferences.Upsert(ctx, nil, id, settings.Default())
	require.NoError(t, err)
	assert.False(t, stored)

	blobs, err := r.Preferences.Blobs(ctx, nil, []uuid.UUID{id})
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestPreferences_KnownUserWithoutDocumentIsOnboarded(t *testing.T) {
	r := openRepos(t, "repos_prefs_onboard")
	ctx := context.Background()
	u := createUser(t, r, "ben@example.com", repos.RoleStudent)

	s, err := r.Preferences.Get(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.True(t, s.HasOnboarded)

	blobs, err := r.Preferences.Blobs(ctx, nil, []uuid.UUID{u.ID})
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, u.ID.String(), blobs[0].UserID)
}

func TestPreferences_UpsertAndGet(t *testing.T) {
	r := openRepos(t, "repos_prefs_upsert")
	ctx := context.Background()
	u := createUser(t, r, "cam@example.com", repos.RoleStudent)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	s := settings.Default()
	s.Language = "Spanish"
	s.Interests = []string{"music", "soccer"}
	s.AddSignal("lens:music", "summary", now)
	s.SetPreference("tone:academic", true, now)
	s.DismissNudge("aids:vocab")
	s.LastSession = &now

	stored, err := r.Preferences.Upsert(ctx, nil, u.ID, s)
	require.NoError(t, err)
	require.True(t, stored)

	got, err := r.Preferences.Get(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", got.Language)
	assert.Equal(t, []string{"music", "soccer"}, got.Interests)
	require.Len(t, got.Signals, 1)
	assert.Equal(t, "lens:music", got.Signals[0].Tag)
	assert.True(t, got.HasPreference("tone:academic"))
	assert.Equal(t, 1, got.Dismissals("aids:vocab"))
	require.NotNil(t, got.LastSession)
	assert.True(t, now.Equal(*got.LastSession))

	s.Language = "French"
	s.ClearPreferences()
	_, err = r.Preferences.Upsert(ctx, nil, u.ID, s)
	require.NoError(t, err)

	got, err = r.Preferences.Get(ctx, nil, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "French", got.Language)
	assert.Empty(t, got.Preferences)

	require.NoError(t, r.Preferences.Delete(ctx, nil, u.ID))
	blobs, err := r.Preferences.Blobs(ctx, nil, []uuid.UUID{u.ID})
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestRemoteSettings_IgnoresMalformedIDs(t *testing.T) {
	r := openRepos(t, "repos_remote")
	remote := repos.RemoteSettings{Repo: r.Preferences}

	s, err := remote.LoadSettings(context.Background(), "anonymous")
	require.NoError(t, err)
	assert.Equal(t, settings.Default().Language, s.Language)
	assert.NoError(t, remote.SaveSettings(context.Background(), "anonymous", s))
}

func TestClasses(t *testing.T) {
	r := openRepos(t, "repos_classes")
	ctx := context.Background()
	instructor := createUser(t, r, "gail@example.com", repos.RoleInstructor)
	other := createUser(t, r, "hal@example.com", repos.RoleInstructor)
	student := createUser(t, r, "ivy@example.com", repos.RoleStudent)

	class, err := r.Classes.Create(ctx, nil, &repos.Class{Name: "Bio", InstructorID: instructor.ID})
	require.NoError(t, err)

	_, err = r.Classes.GetOwned(ctx, nil, class.ID, other.ID)
	assert.ErrorIs(t, err, repos.ErrNotFound)

	first, err := r.Classes.Enroll(ctx, nil, class.ID, student.ID)
	require.NoError(t, err)
	again, err := r.Classes.Enroll(ctx, nil, class.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	enrollments, err := r.Classes.Enrollments(ctx, nil, class.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "ivy@example.com", enrollments[0].User.Email)

	ids, err := r.Classes.ClassesForUser(ctx, nil, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{class.ID}, ids)

	list, err := r.Classes.ListByInstructor(ctx, nil, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEvents(t *testing.T) {
	r := openRepos(t, "repos_events")
	ctx := context.Background()
	userID := uuid.New()
	classID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	created, err := r.Events.Create(ctx, nil, []*repos.Event{
		{UserID: userID, ClassID: &classID, Event: "session_start", TS: now.Add(-40 * 24 * time.Hour)},
		{UserID: userID, ClassID: &classID, Event: "mode_used", Properties: []byte(`{"mode":"ask"}`), TS: now},
		{UserID: userID, Event: "output_exported", TS: now},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.NotEqual(t, uuid.Nil, created[0].ID)
	assert.JSONEq(t, `{}`, string(created[0].Properties))

	recent, err := r.Events.ListForClass(ctx, nil, classID, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "mode_used", recent[0].Event)

	mine, err := r.Events.ListForUser(ctx, nil, userID, 2)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := r.Events.Create(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestToAnalytics(t *testing.T) {
	classID := uuid.New()
	rows := []*repos.Event{
		{UserID: uuid.New(), ClassID: &classID, Event: "mode_used", Properties: []byte(`{"mode":"outline"}`), TS: time.Now()},
		{UserID: uuid.New(), Event: "session_end", Properties: []byte(`{not json`), TS: time.Now()},
	}

	out, errs := repos.ToAnalytics(rows)
	require.Len(t, out, 2)
	assert.Equal(t, "outline", out[0].Properties["mode"])
	assert.Equal(t, classID.String(), out[0].ClassID)
	assert.Empty(t, out[1].Properties)
	assert.Empty(t, out[1].ClassID)
	assert.Len(t, errs, 1)
}

func TestSavedQueries(t *testing.T) {
	r := openRepos(t, "repos_saved")
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	_, err := r.SavedQueries.Create(ctx, nil, &repos.SavedQuery{UserID: owner, Title: "t"})
	assert.ErrorIs(t, err, repos.ErrInvalid)

	q, err := r.SavedQueries.Create(ctx, nil, &repos.SavedQuery{UserID: owner, Title: "Bees", Query: "why", Mode: "ask"})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(q.Tags))

	fav := true
	_, err = r.SavedQueries.Update(ctx, nil, q.ID, stranger, repos.SavedQueryUpdate{IsFavorite: &fav})
	assert.ErrorIs(t, err, repos.ErrNotFound)
	assert.ErrorIs(t, r.SavedQueries.Delete(ctx, nil, q.ID, stranger), repos.ErrNotFound)

	tags := []string{"bio"}
	updated, err := r.SavedQueries.Update(ctx, nil, q.ID, owner, repos.SavedQueryUpdate{IsFavorite: &fav, Tags: &tags})
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)
	assert.JSONEq(t, `["bio"]`, string(updated.Tags))
	assert.Equal(t, "Bees", updated.Title)

	list, err := r.SavedQueries.ListByUser(ctx, nil, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.SavedQueries.Delete(ctx, nil, q.ID, owner))
	list, err = r.SavedQueries.ListByUser(ctx, nil, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLLMRequests(t *testing.T) {
	r := openRepos(t, "repos_llm")
	ctx := context.Background()

	records := []llm.RequestRecord{
		{Provider: "mock", Model: "m1", Purpose: llm.PurposeSummarize, InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "mock", Model: "m1", Purpose: llm.PurposeSummarize, InputTokens: 20, OutputTokens: 15, LatencyMs: 300, Success: true},
		{Provider: "mock", Model: "m2", Purpose: llm.PurposeAsk, InputTokens: 7, OutputTokens: 3, LatencyMs: 50, Success: false, ErrorMessage: "boom"},
	}
	for _, rec := range records {
		require.NoError(t, r.LLMRequests.RecordLLMRequest(ctx, rec))
	}

	byPurpose, err := r.LLMRequests.UsageByPurpose(ctx, nil)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, repos.LLMUsage{Key: llm.PurposeSummarize, Calls: 2, InputTokens: 30, OutputTokens: 20, AvgLatencyMs: 200}, byPurpose[0])

	byModel, err := r.LLMRequests.UsageByModel(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", byModel[0].Key)

	asks, err := r.LLMRequests.List(ctx, nil, 0, llm.PurposeAsk)
	require.NoError(t, err)
	require.Len(t, asks, 1)
	assert.Equal(t, "boom", asks[0].ErrorMessage)

	got, err := r.LLMRequests.Get(ctx, nil, asks[0].ID)
	require.NoError(t, err)
	assert.False(t, got.Success)

	_, err = r.LLMRequests.Get(ctx, nil, 9999)
	assert.ErrorIs(t, err, repos.ErrNotFound)
}
