package settings

import (
	"slices"
	"sort"
	"time"
)

// Default returns a fresh Settings with the product defaults.
func Default() Settings {
	return Settings{
		Language:            "English",
		Interests:           []string{},
		Community:           "General",
		OutputStyle:         OutputStyleParagraphs,
		TextSize:            "medium",
		DefaultReadingLevel: ReadingLevelSimple,
		MicroPromptsEnabled: true,
		Curiosity:           "",
		HasOnboarded:        false,
		Signals:             []Signal{},
		Preferences:         map[string]Preference{},
		Nudges:              map[string]int{},
	}
}

// Normalize replaces nil collections with empty ones and drops preference
// entries that are not marked default.
func (s *Settings) Normalize() {
	if s.Interests == nil {
		s.Interests = []string{}
	}
	if s.Signals == nil {
		s.Signals = []Signal{}
	}
	if s.Preferences == nil {
		s.Preferences = map[string]Preference{}
	}
	for tag, p := range s.Preferences {
		if !p.Default {
			delete(s.Preferences, tag)
		}
	}
	if s.Nudges == nil {
		s.Nudges = map[string]int{}
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.Interests = slices.Clone(s.Interests)
	out.Signals = slices.Clone(s.Signals)
	out.Preferences = make(map[string]Preference, len(s.Preferences))
	for k, v := range s.Preferences {
		out.Preferences[k] = v
	}
	out.Nudges = make(map[string]int, len(s.Nudges))
	for k, v := range s.Nudges {
		out.Nudges[k] = v
	}
	if s.LastSession != nil {
		t := *s.LastSession
		out.LastSession = &t
	}
	out.Normalize()
	return out
}

// AddSignal appends a reaction to the end of the signal sequence and stamps
// the session time. Tags are not validated.
func (s *Settings) AddSignal(tag, context string, now time.Time) {
	now = now.UTC()
	s.Signals = append(s.Signals, Signal{Tag: tag, Context: context, Timestamp: now})
	s.LastSession = &now
}

// SignalCount returns how many signals carry tag.
func (s *Settings) SignalCount(tag string) int {
	n := 0
	for _, sig := range s.Signals {
		if sig.Tag == tag {
			n++
		}
	}
	return n
}

// SetPreference makes tag a default (refreshing Since when it already is) or
// removes it entirely. Removing an absent tag is a no-op.
func (s *Settings) SetPreference(tag string, isDefault bool, now time.Time) {
	if s.Preferences == nil {
		s.Preferences = map[string]Preference{}
	}
	if isDefault {
		s.Preferences[tag] = Preference{Default: true, Since: now.UTC()}
		return
	}
	delete(s.Preferences, tag)
}

// ClearPreferences removes every active preference.
func (s *Settings) ClearPreferences() {
	for _, tag := range s.ActivePreferences() {
		s.SetPreference(tag, false, time.Time{})
	}
}

// HasPreference reports whether tag is an active default.
func (s *Settings) HasPreference(tag string) bool {
	return s.Preferences[tag].Default
}

// ActivePreferences returns the tags currently marked default, sorted. The
// result is a set; the order carries no meaning.
func (s *Settings) ActivePreferences() []string {
	tags := make([]string, 0, len(s.Preferences))
	for tag, p := range s.Preferences {
		if p.Default {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// DismissNudge increments the dismissal counter for tag.
func (s *Settings) DismissNudge(tag string) {
	if s.Nudges == nil {
		s.Nudges = map[string]int{}
	}
	s.Nudges[tag]++
}

// Dismissals returns the dismissal count for tag.
func (s *Settings) Dismissals(tag string) int {
	return s.Nudges[tag]
}

// Apply merges a partial update into the scalar fields.
func (s *Settings) Apply(p Patch) {
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Interests != nil {
		s.Interests = slices.Clone(*p.Interests)
	}
	if p.Community != nil {
		s.Community = *p.Community
	}
	if p.OutputStyle != nil {
		s.OutputStyle = *p.OutputStyle
	}
	if p.TextSize != nil {
		s.TextSize = *p.TextSize
	}
	if p.DefaultReadingLevel != nil {
		s.DefaultReadingLevel = *p.DefaultReadingLevel
	}
	if p.MicroPromptsEnabled != nil {
		s.MicroPromptsEnabled = *p.MicroPromptsEnabled
	}
	if p.Curiosity != nil {
		s.Curiosity = *p.Curiosity
	}
	if p.HasOnboarded != nil {
		s.HasOnboarded = *p.HasOnboarded
	}
	s.Normalize()
}
