package analytics

import (
	"fmt"
	"math"
	"time"
)

// Floors used when a factor has no data to work with.
const (
	ConsistencyFloor   = 0.3
	StrengthFloor      = 0.2
	NudgeResponseFloor = 0.5
	ActivityFloor      = 0.3
)

// Confidence weights.
const (
	weightConsistency = 0.4
	weightStrength    = 0.3
	weightNudge       = 0.2
	weightActivity    = 0.1
)

const (
	day          = 24 * time.Hour
	recentWindow = 7 * day
)

// round matches the half-up rounding the dashboard has always shown.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return round(float64(part) / float64(whole) * 100)
}

// Consistency measures how concentrated a student's reactions are on one
// tag, with a bonus for adopted preferences.
func Consistency(p Profile) float64 {
	if len(p.Signals) == 0 {
		return ConsistencyFloor
	}
	counts := make(map[string]int)
	maxCount := 0
	for _, s := range p.Signals {
		counts[s.Tag]++
		if counts[s.Tag] > maxCount {
			maxCount = counts[s.Tag]
		}
	}
	consistency := float64(maxCount) / float64(len(p.Signals))
	bonus := math.Min(float64(len(p.ActivePreferences()))*0.15, 0.4)
	return math.Min(consistency+bonus, 1.0)
}

// SignalStrength blends how many signals a student has given (saturating
// at five) with how many of them are from the last seven days.
func SignalStrength(p Profile, now time.Time) float64 {
	total := len(p.Signals)
	if total == 0 {
		return StrengthFloor
	}
	recent := 0
	for _, s := range p.Signals {
		if s.Timestamp.IsZero() {
			continue
		}
		if now.Sub(s.Timestamp) <= recentWindow {
			recent++
		}
	}
	frequency := math.Min(float64(total)/5, 1.0)
	recency := float64(recent) / float64(total)
	return frequency*0.6 + recency*0.4
}

// NudgeResponse is the share of nudged tags the student went on to adopt,
// relative to the total number of dismissals.
func NudgeResponse(p Profile) float64 {
	total := p.TotalDismissals()
	if total == 0 {
		return NudgeResponseFloor
	}
	accepted := 0
	for tag, n := range p.Nudges {
		if n > 0 && p.Preferences[tag].Default {
			accepted++
		}
	}
	return math.Min(float64(accepted)/float64(total), 1.0)
}

// ActivityLevel weights a student's session, preference and export events.
// events must already be filtered to the student.
func ActivityLevel(events []Event) float64 {
	if len(events) == 0 {
		return ActivityFloor
	}
	var sessions, prefs, exports int
	for _, e := range events {
		switch e.Name {
		case EventSessionStart:
			sessions++
		case EventPreferenceApplied:
			prefs++
		case EventOutputExported:
			exports++
		}
	}
	score := (float64(sessions)*0.4 + float64(prefs)*0.4 + float64(exports)*0.2) / 10
	return math.Min(score, 1.0)
}

// Score computes a student's composite confidence.
func Score(p Profile, events []Event, now time.Time) Confidence {
	c := Confidence{
		Consistency:   Consistency(p),
		Strength:      SignalStrength(p, now),
		NudgeResponse: NudgeResponse(p),
		Activity:      ActivityLevel(events),
	}
	c.Score = weightConsistency*c.Consistency +
		weightStrength*c.Strength +
		weightNudge*c.NudgeResponse +
		weightActivity*c.Activity
	return c
}

// ConfidenceChange maps the cohort's mean confidence onto 0..1.5 and
// formats it with one decimal. It is a cross-sectional indicator, not a
// before/after delta.
func ConfidenceChange(scores []float64) string {
	if len(scores) == 0 {
		return "0.0"
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	change := math.Max(0, math.Min(1.5, (avg-0.3)*2))
	return fmt.Sprintf("%.1f", change)
}
