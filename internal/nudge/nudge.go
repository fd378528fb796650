// Package nudge decides when a "make this your default" suggestion may be
// shown for a tag.
package nudge

import (
	"time"

	"github.com/abhisek/workbook/internal/settings"
)

// Defaults for the gating rules.
const (
	DefaultEvidenceThreshold = 2
	DefaultDismissalCeiling  = 2
)

// Reason explains an eligibility decision.
type Reason string

const (
	ReasonEligible             Reason = "eligible"
	ReasonAlreadyAdopted       Reason = "already-adopted"
	ReasonDismissalCeiling     Reason = "dismissal-ceiling"
	ReasonInsufficientEvidence Reason = "insufficient-evidence"
	ReasonContradicted         Reason = "contradicted"
)

// Contradiction reports whether the current settings already produce the
// effect a tag would ask for.
type Contradiction func(s *settings.Settings) bool

// DefaultCandidates is the scan order used when looking for the next nudge.
// The first eligible tag wins.
func DefaultCandidates() []string {
	return []string{
		"tone:everyday",
		"tone:academic",
		"depth:short",
		"depth:scaffolded",
		"lens:community",
		"lens:sports",
		"lens:music",
		"aids:vocab",
		"aids:takeaways",
	}
}

// DefaultContradictions is the fixed contradiction table. Tags without an
// entry are never contradicted.
func DefaultContradictions() map[string]Contradiction {
	return map[string]Contradiction{
		"tone:everyday": func(s *settings.Settings) bool {
			return s.DefaultReadingLevel == settings.ReadingLevelSimple
		},
		"tone:academic": func(s *settings.Settings) bool {
			return s.DefaultReadingLevel == settings.ReadingLevelStandard
		},
		"depth:short": func(s *settings.Settings) bool {
			return s.OutputStyle == settings.OutputStyleBullets
		},
		"depth:scaffolded": func(s *settings.Settings) bool {
			return s.OutputStyle == settings.OutputStyleParagraphs
		},
	}
}

// Decision is the outcome of evaluating one tag.
type Decision struct {
	Tag      string `json:"tag"`
	Eligible bool   `json:"eligible"`
	Reason   Reason `json:"reason"`
	Evidence int    `json:"evidence"`
}

// Engine evaluates nudge eligibility. The zero value is not usable; build
// one with New.
type Engine struct {
	candidates     []string
	threshold      int
	ceiling        int
	contradictions map[string]Contradiction
}

// Option configures an Engine.
type Option func(*Engine)

// WithCandidates replaces the scan order. An empty list is ignored.
func WithCandidates(tags []string) Option {
	return func(e *Engine) {
		if len(tags) > 0 {
			e.candidates = append([]string(nil), tags...)
		}
	}
}

// WithEvidenceThreshold sets how many matching signals are required.
func WithEvidenceThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

// WithDismissalCeiling sets how many dismissals suppress a tag for good.
func WithDismissalCeiling(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.ceiling = n
		}
	}
}

// WithContradiction adds or replaces the contradiction rule for tag. A nil
// rule removes it.
func WithContradiction(tag string, c Contradiction) Option {
	return func(e *Engine) {
		if c == nil {
			delete(e.contradictions, tag)
			return
		}
		e.contradictions[tag] = c
	}
}

// New returns an Engine with the default rules, modified by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		candidates:     DefaultCandidates(),
		threshold:      DefaultEvidenceThreshold,
		ceiling:        DefaultDismissalCeiling,
		contradictions: DefaultContradictions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates returns a copy of the scan order.
func (e *Engine) Candidates() []string {
	return append([]string(nil), e.candidates...)
}

// Evaluate runs the four gates in order and reports the first one that
// fails.
func (e *Engine) Evaluate(s *settings.Settings, tag string) Decision {
	d := Decision{Tag: tag, Evidence: s.SignalCount(tag)}

	switch {
	case s.HasPreference(tag):
		d.Reason = ReasonAlreadyAdopted
	case s.Dismissals(tag) >= e.ceiling:
		d.Reason = ReasonDismissalCeiling
	case d.Evidence < e.threshold:
		d.Reason = ReasonInsufficientEvidence
	case e.contradicted(s, tag):
		d.Reason = ReasonContradicted
	default:
		d.Eligible = true
		d.Reason = ReasonEligible
	}
	return d
}

func (e *Engine) contradicted(s *settings.Settings, tag string) bool {
	rule, ok := e.contradictions[tag]
	return ok && rule(s)
}

// ShouldShow reports whether a nudge for tag may be surfaced.
func (e *Engine) ShouldShow(s *settings.Settings, tag string) bool {
	return e.Evaluate(s, tag).Eligible
}

// Next returns the first eligible candidate, or false when none is.
func (e *Engine) Next(s *settings.Settings) (string, bool) {
	for _, tag := range e.candidates {
		if e.ShouldShow(s, tag) {
			return tag, true
		}
	}
	return "", false
}

// EvaluateAll evaluates every candidate in scan order.
func (e *Engine) EvaluateAll(s *settings.Settings) []Decision {
	out := make([]Decision, 0, len(e.candidates))
	for _, tag := range e.candidates {
		out = append(out, e.Evaluate(s, tag))
	}
	return out
}

// Apply accepts a nudge: tag becomes a default.
func Apply(s *settings.Settings, tag string, now time.Time) {
	s.SetPreference(tag, true, now)
}

// Dismiss rejects a nudge: its dismissal counter goes up by one.
func Dismiss(s *settings.Settings, tag string) {
	s.DismissNudge(tag)
}
