package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const stuckEventCount = 3

// Build computes the class report at now. It never fails on bad records:
// corrupt blobs count as empty and the returned error only lists them for
// logging.
func Build(in Input, now time.Time) (Report, error) {
	profiles, decodeErr := DecodeProfiles(in.Profiles)

	weekStart := now.Add(-recentWindow)
	week := make([]Event, 0, len(in.Events))
	for _, e := range in.Events {
		if !e.TS.Before(weekStart) {
			week = append(week, e)
		}
	}

	allByUser := groupByUser(in.Events)
	weekByUser := groupByUser(week)

	scores := make([]float64, 0, len(profiles))
	byUser := make(map[string]Profile, len(profiles))
	confidence := make(map[string]Confidence, len(profiles))
	for _, p := range profiles {
		c := Score(p, weekByUser[p.UserID], now)
		scores = append(scores, c.Score)
		byUser[p.UserID] = p
		confidence[p.UserID] = c
	}

	r := Report{
		ActiveThisWeek:      len(weekByUser),
		AvgSessionTime:      avgSessionMinutes(week),
		ConfidenceChange:    ConfidenceChange(scores),
		CitationsCompleted:  countCitations(in.Artifacts),
		ModeUsage:           modeUsage(week),
		PreferenceAnalytics: Preferences(profiles),
		NudgeAnalytics:      Nudges(profiles),
		NudgeFunnel:         NudgeFunnel(in.Events),
		Students:            make([]StudentSummary, 0, len(in.Students)),
	}

	for _, st := range in.Students {
		p, ok := byUser[st.ID]
		if !ok {
			p = Profile{UserID: st.ID}
		}
		c, ok := confidence[st.ID]
		if !ok {
			c = Score(p, weekByUser[st.ID], now)
		}
		r.Students = append(r.Students, summarize(st, p, c, allByUser[st.ID], weekByUser[st.ID], in.Artifacts, now))
	}

	if decodeErr != nil {
		decodeErr = fmt.Errorf("class %s: %w", in.ClassID, decodeErr)
	}
	return r, decodeErr
}

func groupByUser(events []Event) map[string][]Event {
	out := make(map[string][]Event)
	for _, e := range events {
		if e.UserID == "" {
			continue
		}
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out
}

func avgSessionMinutes(events []Event) int {
	var total float64
	n := 0
	for _, e := range events {
		if e.Name != EventSessionEnd {
			continue
		}
		secs, ok := e.numberProp("duration")
		if !ok || secs < 0 {
			continue
		}
		total += secs
		n++
	}
	if n == 0 {
		return 0
	}
	return round(total / float64(n) / 60)
}

func countCitations(artifacts []Artifact) int {
	n := 0
	for _, a := range artifacts {
		if a.Type == "citation" {
			n++
		}
	}
	return n
}

func modeUsage(events []Event) ModeUsage {
	var m ModeUsage
	for _, e := range events {
		if e.Name != EventModeUsed {
			continue
		}
		switch e.stringProp("mode") {
		case "summarize":
			m.Summarize++
		case "ask":
			m.Ask++
		case "outline":
			m.Outline++
		case "citations":
			m.Citations++
		}
	}
	return m
}

// Status classifies a student by the age of their most recent event.
func Status(events []Event, now time.Time) string {
	if len(events) == 0 {
		return StatusInactive
	}
	last := latest(events)
	age := now.Sub(last.TS)
	switch {
	case age <= day:
		return StatusActive
	case age <= recentWindow:
		return StatusRecent
	case len(events) < stuckEventCount:
		return StatusStuck
	default:
		return StatusInactive
	}
}

func latest(events []Event) Event {
	last := events[0]
	for _, e := range events[1:] {
		if e.TS.After(last.TS) {
			last = e
		}
	}
	return last
}

func summarize(st Enrollee, p Profile, c Confidence, all, week []Event, artifacts []Artifact, now time.Time) StudentSummary {
	s := StudentSummary{
		ID:              st.ID,
		Name:            st.Name,
		Email:           st.Email,
		LastActive:      st.EnrolledAt,
		Status:          Status(all, now),
		Preferences:     p.ActivePreferences(),
		NudgeDismissals: p.TotalDismissals(),
		Confidence:      c,
	}
	if len(all) > 0 {
		s.LastActive = latest(all).TS
	}
	for _, e := range week {
		if e.Name == EventSessionStart {
			s.SessionCount++
		}
	}
	for _, a := range artifacts {
		if a.UserID == st.ID && a.IsShared {
			s.ExportCount++
		}
	}
	if s.NudgeDismissals > 0 {
		s.NudgeEffectiveness = round(float64(len(s.Preferences)) / float64(s.NudgeDismissals) * 100)
	}
	return s
}

// Fingerprint is a content hash of the input batch and the evaluation
// time, suitable as a memo key. Equal inputs always hash equal; events
// and records are hashed in the order given.
func Fingerprint(in Input, now time.Time) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(in); err != nil {
		return "", fmt.Errorf("fingerprint input: %w", err)
	}
	if err := enc.Encode(now.UTC().Format(time.RFC3339Nano)); err != nil {
		return "", fmt.Errorf("fingerprint time: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
