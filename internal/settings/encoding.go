package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Document is the storage shape of Settings. The nested collections are
// held as JSON-encoded strings, which is how the remote store keeps them.
type Document struct {
	Language            string
	Interests           string
	Community           string
	OutputStyle         string
	TextSize            string
	DefaultReadingLevel string
	MicroPromptsEnabled bool
	Curiosity           string
	HasOnboarded        bool
	Signals             string
	Preferences         string
	Nudges              string
	LastSession         *time.Time
}

// Encode converts Settings to its storage shape.
func Encode(s Settings) (Document, error) {
	s = s.Clone()

	interests, err := json.Marshal(s.Interests)
	if err != nil {
		return Document{}, fmt.Errorf("encode interests: %w", err)
	}
	signals, err := json.Marshal(s.Signals)
	if err != nil {
		return Document{}, fmt.Errorf("encode signals: %w", err)
	}
	prefs, err := json.Marshal(s.Preferences)
	if err != nil {
		return Document{}, fmt.Errorf("encode preferences: %w", err)
	}
	nudges, err := json.Marshal(s.Nudges)
	if err != nil {
		return Document{}, fmt.Errorf("encode nudges: %w", err)
	}

	return Document{
		Language:            s.Language,
		Interests:           string(interests),
		Community:           s.Community,
		OutputStyle:         s.OutputStyle,
		TextSize:            s.TextSize,
		DefaultReadingLevel: s.DefaultReadingLevel,
		MicroPromptsEnabled: s.MicroPromptsEnabled,
		Curiosity:           s.Curiosity,
		HasOnboarded:        s.HasOnboarded,
		Signals:             string(signals),
		Preferences:         string(prefs),
		Nudges:              string(nudges),
		LastSession:         s.LastSession,
	}, nil
}

// Decode converts a stored document back to Settings. A malformed nested
// field degrades to an empty collection; the returned error lists every
// field that had to be substituted and is meant for logging only. The
// Settings value is always usable.
func Decode(d Document) (Settings, error) {
	interests, iErr := DecodeInterests(d.Interests)
	signals, sErr := DecodeSignals(d.Signals)
	prefs, pErr := DecodePreferences(d.Preferences)
	nudges, nErr := DecodeNudges(d.Nudges)

	s := Settings{
		Language:            d.Language,
		Interests:           interests,
		Community:           d.Community,
		OutputStyle:         d.OutputStyle,
		TextSize:            d.TextSize,
		DefaultReadingLevel: d.DefaultReadingLevel,
		MicroPromptsEnabled: d.MicroPromptsEnabled,
		Curiosity:           d.Curiosity,
		HasOnboarded:        d.HasOnboarded,
		Signals:             signals,
		Preferences:         prefs,
		Nudges:              nudges,
	}
	if d.LastSession != nil {
		t := d.LastSession.UTC()
		s.LastSession = &t
	}
	s.Normalize()
	return s, errors.Join(iErr, sErr, pErr, nErr)
}

// DecodeInterests parses an interests blob. Empty input is an empty list.
func DecodeInterests(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}, fmt.Errorf("decode interests: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// DecodeSignals parses a signals blob. Empty input is an empty list.
func DecodeSignals(raw string) ([]Signal, error) {
	out := []Signal{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []Signal{}, fmt.Errorf("decode signals: %w", err)
	}
	if out == nil {
		out = []Signal{}
	}
	return out, nil
}

// DecodePreferences parses a preferences blob, keeping only default
// entries. Empty input is an empty map.
func DecodePreferences(raw string) (map[string]Preference, error) {
	out := map[string]Preference{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]Preference{}, fmt.Errorf("decode preferences: %w", err)
	}
	if out == nil {
		return map[string]Preference{}, nil
	}
	for tag, p := range out {
		if !p.Default {
			delete(out, tag)
		}
	}
	return out, nil
}

// DecodeNudges parses a dismissal counter blob. Empty input is an empty map.
func DecodeNudges(raw string) (map[string]int, error) {
	out := map[string]int{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]int{}, fmt.Errorf("decode nudges: %w", err)
	}
	if out == nil {
		out = map[string]int{}
	}
	return out, nil
}

// Marshal encodes Settings as a single JSON document (the local cache
// format and the HTTP wire format).
func Marshal(s Settings) ([]byte, error) {
	s = s.Clone()
	return json.Marshal(s)
}

// Unmarshal parses a single JSON Settings document. Missing fields keep
// their zero values; use UnmarshalOver to layer a document over defaults.
func Unmarshal(data []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("decode settings: %w", err)
	}
	s.Normalize()
	return s, nil
}

// UnmarshalOver parses data on top of Default(), so absent fields keep
// their default values.
func UnmarshalOver(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("decode settings: %w", err)
	}
	s.Normalize()
	return s, nil
}
