package analytics

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/workbook/internal/settings"
)

// DecodeProfile decodes a stored blob. Any malformed field is replaced with
// an empty structure; the error names the substitutions and is for
// logging only.
func DecodeProfile(b Blob) (Profile, error) {
	signals, sErr := settings.DecodeSignals(b.Signals)
	prefs, pErr := settings.DecodePreferences(b.Preferences)
	nudges, nErr := settings.DecodeNudges(b.Nudges)

	err := errors.Join(sErr, pErr, nErr)
	if err != nil {
		err = fmt.Errorf("profile %s: %w", b.UserID, err)
	}
	return Profile{
		UserID:      b.UserID,
		Signals:     signals,
		Preferences: prefs,
		Nudges:      nudges,
	}, err
}

// DecodeProfiles decodes every blob, never dropping one.
func DecodeProfiles(blobs []Blob) ([]Profile, error) {
	out := make([]Profile, 0, len(blobs))
	var errs []error
	for _, b := range blobs {
		p, err := DecodeProfile(b)
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, p)
	}
	return out, errors.Join(errs...)
}

// DecodeProperties parses an event property bag. Malformed input is an
// empty bag.
func DecodeProperties(raw string) (map[string]any, error) {
	out := map[string]any{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}, fmt.Errorf("decode properties: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// ActivePreferences returns the adopted tags of p, sorted.
func (p Profile) ActivePreferences() []string {
	s := settings.Settings{Preferences: p.Preferences}
	return s.ActivePreferences()
}

// TotalDismissals sums the dismissal counters of p.
func (p Profile) TotalDismissals() int {
	n := 0
	for _, c := range p.Nudges {
		n += c
	}
	return n
}

func (e Event) stringProp(key string) string {
	v, _ := e.Properties[key].(string)
	return v
}

func (e Event) numberProp(key string) (float64, bool) {
	switch v := e.Properties[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
