package settings

import (
	"encoding/json"
	"time"
)

// Output styles.
const (
	OutputStyleParagraphs = "paragraphs"
	OutputStyleBullets    = "bullets"
)

// Reading levels.
const (
	ReadingLevelSimple   = "simple"
	ReadingLevelStandard = "standard"
)

// Signal is one observed reaction to a generated result. Tags are free-form;
// only the presentation layer gives them labels.
type Signal struct {
	Tag       string    `json:"tag"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts signals written by older clients, which stored the
// time under "at". An unparseable time leaves Timestamp zero rather than
// rejecting the signal.
func (s *Signal) UnmarshalJSON(b []byte) error {
	var raw struct {
		Tag       string `json:"tag"`
		Context   string `json:"context"`
		Timestamp string `json:"timestamp"`
		At        string `json:"at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Tag = raw.Tag
	s.Context = raw.Context
	s.Timestamp = time.Time{}

	ts := raw.Timestamp
	if ts == "" {
		ts = raw.At
	}
	if ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			s.Timestamp = t
		}
	}
	return nil
}

// Preference marks a tag as a sticky default. Only Default == true entries
// are ever kept; removal deletes the key.
type Preference struct {
	Default bool      `json:"default"`
	Since   time.Time `json:"since"`
}

// Settings is the per-user aggregate root.
type Settings struct {
	Language            string                `json:"language"`
	Interests           []string              `json:"interests"`
	Community           string                `json:"community"`
	OutputStyle         string                `json:"outputStyle"`
	TextSize            string                `json:"textSize"`
	DefaultReadingLevel string                `json:"defaultReadingLevel"`
	MicroPromptsEnabled bool                  `json:"microPromptsEnabled"`
	Curiosity           string                `json:"curiosity"`
	HasOnboarded        bool                  `json:"hasOnboarded"`
	Signals             []Signal              `json:"signals"`
	Preferences         map[string]Preference `json:"preferences"`
	Nudges              map[string]int        `json:"nudges"`
	LastSession         *time.Time            `json:"lastSession"`
}

// Patch is a partial update of the scalar settings. Nil fields are left
// unchanged. Signals, preferences and nudge counters are never patched.
type Patch struct {
	Language            *string   `json:"language,omitempty"`
	Interests           *[]string `json:"interests,omitempty"`
	Community           *string   `json:"community,omitempty"`
	OutputStyle         *string   `json:"outputStyle,omitempty"`
	TextSize            *string   `json:"textSize,omitempty"`
	DefaultReadingLevel *string   `json:"defaultReadingLevel,omitempty"`
	MicroPromptsEnabled *bool     `json:"microPromptsEnabled,omitempty"`
	Curiosity           *string   `json:"curiosity,omitempty"`
	HasOnboarded        *bool     `json:"hasOnboarded,omitempty"`
}
