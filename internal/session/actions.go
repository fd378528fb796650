package session

import (
	"github.com/abhisek/workbook/internal/nudge"
	"github.com/abhisek/workbook/internal/settings"
)

// AddSignal records a reaction to a generated result.
func (s *Session) AddSignal(tag, resultContext string) settings.Settings {
	now := s.clock()
	return s.Update(func(st *settings.Settings) {
		st.AddSignal(tag, resultContext, now)
	})
}

// SetPreference adopts tag as a default, or removes it.
func (s *Session) SetPreference(tag string, isDefault bool) settings.Settings {
	now := s.clock()
	return s.Update(func(st *settings.Settings) {
		st.SetPreference(tag, isDefault, now)
	})
}

// ClearPreferences removes every adopted preference.
func (s *Session) ClearPreferences() settings.Settings {
	return s.Update(func(st *settings.Settings) {
		st.ClearPreferences()
	})
}

// ActivePreferences returns the adopted tags, sorted.
func (s *Session) ActivePreferences() []string {
	st := s.Settings()
	return st.ActivePreferences()
}

// ApplyNudge accepts the nudge for tag.
func (s *Session) ApplyNudge(tag string) settings.Settings {
	now := s.clock()
	return s.Update(func(st *settings.Settings) {
		nudge.Apply(st, tag, now)
	})
}

// DismissNudge rejects the nudge for tag.
func (s *Session) DismissNudge(tag string) settings.Settings {
	return s.Update(func(st *settings.Settings) {
		nudge.Dismiss(st, tag)
	})
}

// ShouldShowNudge reports whether a nudge for tag may be shown now.
func (s *Session) ShouldShowNudge(tag string) bool {
	st := s.Settings()
	return s.engine.ShouldShow(&st, tag)
}

// EvaluateNudge explains the eligibility decision for tag.
func (s *Session) EvaluateNudge(tag string) nudge.Decision {
	st := s.Settings()
	return s.engine.Evaluate(&st, tag)
}

// NextNudge returns the first eligible candidate tag.
func (s *Session) NextNudge() (string, bool) {
	st := s.Settings()
	return s.engine.Next(&st)
}

// Patch merges a partial update of the scalar settings.
func (s *Session) Patch(p settings.Patch) settings.Settings {
	return s.Update(func(st *settings.Settings) {
		st.Apply(p)
	})
}

// Replace installs a whole document, as saved by a client.
func (s *Session) Replace(next settings.Settings) settings.Settings {
	next = next.Clone()
	return s.Update(func(st *settings.Settings) {
		*st = next
	})
}

// Reset replaces everything with defaults.
func (s *Session) Reset() settings.Settings {
	return s.Update(func(st *settings.Settings) {
		*st = settings.Default()
	})
}
