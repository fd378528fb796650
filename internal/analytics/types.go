package analytics

import (
	"time"

	"github.com/abhisek/workbook/internal/settings"
)

// Event names consumed by the report.
const (
	EventSessionStart      = "session_start"
	EventSessionEnd        = "session_end"
	EventModeUsed          = "mode_used"
	EventPreferenceApplied = "preference_applied"
	EventOutputExported    = "output_exported"
	EventNudgeShown        = "nudge_shown"
	EventNudgeAccepted     = "nudge_accepted"
	EventNudgeDismissed    = "nudge_dismissed"
)

// Student activity statuses.
const (
	StatusActive   = "active"
	StatusRecent   = "recent"
	StatusStuck    = "stuck"
	StatusInactive = "inactive"
)

// Blob is one student's stored preference record, nested fields still
// JSON-encoded.
type Blob struct {
	UserID      string `json:"userId"`
	Signals     string `json:"signals"`
	Preferences string `json:"preferences"`
	Nudges      string `json:"nudges"`
}

// Profile is a decoded Blob.
type Profile struct {
	UserID      string
	Signals     []settings.Signal
	Preferences map[string]settings.Preference
	Nudges      map[string]int
}

// Event is one analytics event. Properties is the decoded property bag.
type Event struct {
	UserID     string         `json:"userId"`
	ClassID    string         `json:"classId"`
	Name       string         `json:"event"`
	Properties map[string]any `json:"properties"`
	TS         time.Time      `json:"ts"`
}

// Artifact is a saved output belonging to a student in the class.
type Artifact struct {
	UserID   string `json:"userId"`
	Type     string `json:"type"`
	IsShared bool   `json:"isShared"`
}

// Enrollee is a student enrolled in the class.
type Enrollee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Input is everything a class report is computed from. Events should
// cover at least the activity window; weekly figures only look at the
// last seven days of it.
type Input struct {
	ClassID   string     `json:"classId"`
	Students  []Enrollee `json:"students"`
	Profiles  []Blob     `json:"profiles"`
	Events    []Event    `json:"events"`
	Artifacts []Artifact `json:"artifacts"`
}

// ModeUsage counts mode_used events per assist mode.
type ModeUsage struct {
	Summarize int `json:"summarize"`
	Ask       int `json:"ask"`
	Outline   int `json:"outline"`
	Citations int `json:"citations"`
}

// TagCount is an adopted-preference tally.
type TagCount struct {
	Tag        string `json:"tag"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// TimelineDay is the per-tag signal tally for one calendar day (UTC).
type TimelineDay struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

// Categories groups the top preferences by tag prefix.
type Categories struct {
	Tone  []TagCount `json:"tone"`
	Depth []TagCount `json:"depth"`
	Lens  []TagCount `json:"lens"`
	Aids  []TagCount `json:"aids"`
}

// PreferenceAnalytics summarises signals and adopted preferences.
type PreferenceAnalytics struct {
	MostCommonPreferences        []TagCount    `json:"mostCommonPreferences"`
	PreferenceCategories         Categories    `json:"preferenceCategories"`
	TotalSignals                 int           `json:"totalSignals"`
	AveragePreferencesPerStudent int           `json:"averagePreferencesPerStudent"`
	PreferenceTimeline           []TimelineDay `json:"preferenceTimeline"`
}

// NudgeStat is the per-tag nudge tally.
type NudgeStat struct {
	Tag            string `json:"tag"`
	TotalShown     int    `json:"totalShown"`
	Accepted       int    `json:"accepted"`
	Dismissed      int    `json:"dismissed"`
	AcceptanceRate int    `json:"acceptanceRate"`
	DismissalRate  int    `json:"dismissalRate"`
}

// NudgeAnalytics is derived from the stored dismissal counters. Shown and
// dismissed are the same number here; see FunnelStat for event-based
// counts.
type NudgeAnalytics struct {
	NudgeEffectiveness      []NudgeStat `json:"nudgeEffectiveness"`
	ProblematicNudges       []NudgeStat `json:"problematicNudges"`
	OverallAcceptanceRate   int         `json:"overallAcceptanceRate"`
	TotalNudgesShown        int         `json:"totalNudgesShown"`
	TotalNudgesAccepted     int         `json:"totalNudgesAccepted"`
	AverageNudgesPerStudent int         `json:"averageNudgesPerStudent"`
}

// FunnelStat counts nudge events per tag with independent counters.
type FunnelStat struct {
	Tag            string `json:"tag"`
	Shown          int    `json:"shown"`
	Accepted       int    `json:"accepted"`
	Dismissed      int    `json:"dismissed"`
	AcceptanceRate int    `json:"acceptanceRate"`
	DismissalRate  int    `json:"dismissalRate"`
}

// Confidence is a student's composite score and its factors.
type Confidence struct {
	Consistency   float64 `json:"consistency"`
	Strength      float64 `json:"strength"`
	NudgeResponse float64 `json:"nudgeResponse"`
	Activity      float64 `json:"activity"`
	Score         float64 `json:"score"`
}

// StudentSummary is one row of the instructor's student table.
type StudentSummary struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	LastActive         time.Time  `json:"lastActive"`
	SessionCount       int        `json:"sessionCount"`
	ExportCount        int        `json:"exportCount"`
	Status             string     `json:"status"`
	Preferences        []string   `json:"preferences"`
	NudgeDismissals    int        `json:"nudgeDismissals"`
	NudgeEffectiveness int        `json:"nudgeEffectiveness"`
	Confidence         Confidence `json:"confidence"`
}

// Report is the full class report.
type Report struct {
	ActiveThisWeek      int                 `json:"activeThisWeek"`
	AvgSessionTime      int                 `json:"avgSessionTime"`
	ConfidenceChange    string              `json:"confidenceChange"`
	CitationsCompleted  int                 `json:"citationsCompleted"`
	ModeUsage           ModeUsage           `json:"modeUsage"`
	Students            []StudentSummary    `json:"students"`
	PreferenceAnalytics PreferenceAnalytics `json:"preferenceAnalytics"`
	NudgeAnalytics      NudgeAnalytics      `json:"nudgeAnalytics"`
	NudgeFunnel         []FunnelStat        `json:"nudgeFunnel"`
}
