package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 8, 20, 14, 0, 0, 0, time.UTC)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "English", s.Language)
	assert.Equal(t, OutputStyleParagraphs, s.OutputStyle)
	assert.Equal(t, ReadingLevelSimple, s.DefaultReadingLevel)
	assert.True(t, s.MicroPromptsEnabled)
	assert.False(t, s.HasOnboarded)
	assert.Empty(t, s.Signals)
	assert.NotNil(t, s.Preferences)
	assert.NotNil(t, s.Nudges)
	assert.Nil(t, s.LastSession)
}

func TestAddSignal_AppendsInOrder(t *testing.T) {
	s := Default()
	s.AddSignal("tone:everyday", "summary", t0)
	s.AddSignal("lens:sports", "qa", t0.Add(time.Minute))
	s.AddSignal("not-a-known-tag", "outline", t0.Add(2*time.Minute))

	require.Len(t, s.Signals, 3)
	assert.Equal(t, "tone:everyday", s.Signals[0].Tag)
	assert.Equal(t, "lens:sports", s.Signals[1].Tag)
	assert.Equal(t, "not-a-known-tag", s.Signals[2].Tag)
	assert.Equal(t, "outline", s.Signals[2].Context)
	require.NotNil(t, s.LastSession)
	assert.Equal(t, t0.Add(2*time.Minute), *s.LastSession)
}

func TestSignalCount(t *testing.T) {
	s := Default()
	s.AddSignal("a", "summary", t0)
	s.AddSignal("b", "summary", t0)
	s.AddSignal("a", "qa", t0)
	assert.Equal(t, 2, s.SignalCount("a"))
	assert.Equal(t, 1, s.SignalCount("b"))
	assert.Equal(t, 0, s.SignalCount("c"))
}

func TestSetPreference(t *testing.T) {
	s := Default()

	s.SetPreference("tone:academic", true, t0)
	assert.Equal(t, Preference{Default: true, Since: t0}, s.Preferences["tone:academic"])
	assert.Equal(t, []string{"tone:academic"}, s.ActivePreferences())

	// Applying again refreshes Since.
	later := t0.Add(time.Hour)
	s.SetPreference("tone:academic", true, later)
	assert.Equal(t, later, s.Preferences["tone:academic"].Since)
	assert.Len(t, s.Preferences, 1)

	s.SetPreference("tone:academic", false, later)
	_, ok := s.Preferences["tone:academic"]
	assert.False(t, ok, "removal must delete the key")
	assert.Empty(t, s.ActivePreferences())
}

func TestSetPreference_RemoveIsIdempotent(t *testing.T) {
	s := Default()
	s.SetPreference("depth:short", true, t0)
	s.SetPreference("aids:vocab", true, t0)

	s.SetPreference("depth:short", false, t0)
	once := s.Clone()
	s.SetPreference("depth:short", false, t0)

	assert.Equal(t, once, s)
	assert.Equal(t, []string{"aids:vocab"}, s.ActivePreferences())
}

func TestSetPreference_RemoveAbsentIsNoop(t *testing.T) {
	s := Default()
	before := s.Clone()
	s.SetPreference("lens:music", false, t0)
	assert.Equal(t, before, s)
}

func TestClearPreferences(t *testing.T) {
	s := Default()
	s.SetPreference("a", true, t0)
	s.SetPreference("b", true, t0)
	s.ClearPreferences()
	assert.Empty(t, s.Preferences)
}

func TestDismissNudge(t *testing.T) {
	s := Default()
	s.DismissNudge("tone:everyday")
	s.DismissNudge("tone:everyday")
	s.DismissNudge("depth:short")
	assert.Equal(t, 2, s.Dismissals("tone:everyday"))
	assert.Equal(t, 1, s.Dismissals("depth:short"))
	assert.Equal(t, 0, s.Dismissals("aids:vocab"))
}

func TestApplyPatch(t *testing.T) {
	s := Default()
	s.AddSignal("a", "summary", t0)

	style := OutputStyleBullets
	level := ReadingLevelStandard
	onboarded := true
	interests := []string{"music", "basketball"}
	s.Apply(Patch{
		OutputStyle:         &style,
		DefaultReadingLevel: &level,
		HasOnboarded:        &onboarded,
		Interests:           &interests,
	})

	assert.Equal(t, OutputStyleBullets, s.OutputStyle)
	assert.Equal(t, ReadingLevelStandard, s.DefaultReadingLevel)
	assert.True(t, s.HasOnboarded)
	assert.Equal(t, []string{"music", "basketball"}, s.Interests)
	assert.Equal(t, "English", s.Language, "untouched fields keep their value")
	assert.Len(t, s.Signals, 1, "patches never touch signals")
}

func TestClone_IsDeep(t *testing.T) {
	s := Default()
	s.AddSignal("a", "summary", t0)
	s.SetPreference("a", true, t0)
	s.DismissNudge("b")

	c := s.Clone()
	c.Signals[0].Tag = "changed"
	c.Preferences["x"] = Preference{Default: true}
	c.Nudges["b"] = 9
	*c.LastSession = t0.Add(time.Hour)

	assert.Equal(t, "a", s.Signals[0].Tag)
	assert.NotContains(t, s.Preferences, "x")
	assert.Equal(t, 1, s.Nudges["b"])
	assert.Equal(t, t0, *s.LastSession)
}
