// Package events records classroom analytics events. Logging is best
// effort: a failed write is logged and never reaches the caller.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/analytics"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/repos"
)

// Event types.
const (
	TypeSessionStart      = analytics.EventSessionStart
	TypeSessionEnd        = analytics.EventSessionEnd
	TypeModeUsed          = analytics.EventModeUsed
	TypePreferenceApplied = analytics.EventPreferenceApplied
	TypeOutputExported    = analytics.EventOutputExported
	TypeCitationInserted  = "citation_inserted"
	TypeSourceChecked     = "source_checked"
	TypeNudgeShown        = analytics.EventNudgeShown
	TypeNudgeAccepted     = analytics.EventNudgeAccepted
	TypeNudgeDismissed    = analytics.EventNudgeDismissed
	TypeReflectionSaved   = "reflection_saved"
	TypeConfidenceRated   = "confidence_rated"
)

// Types lists the known event types.
func Types() []string {
	return []string{
		TypeSessionStart, TypeSessionEnd, TypeModeUsed, TypePreferenceApplied,
		TypeOutputExported, TypeCitationInserted, TypeSourceChecked,
		TypeNudgeShown, TypeNudgeAccepted, TypeNudgeDismissed,
		TypeReflectionSaved, TypeConfidenceRated,
	}
}

// Sink persists events.
type Sink interface {
	Create(ctx context.Context, tx *gorm.DB, events []*repos.Event) ([]*repos.Event, error)
}

// ClassLookup resolves the classes a user belongs to.
type ClassLookup interface {
	ClassesForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type Logger struct {
	sink    Sink
	classes ClassLookup
	clock   func() time.Time
	log     *logger.Logger
	onFail  func(event string)
}

type Option func(*Logger)

// WithClassLookup fills in the class for events logged without one, using
// the user's first enrollment.
func WithClassLookup(c ClassLookup) Option {
	return func(l *Logger) { l.classes = c }
}

func WithClock(clock func() time.Time) Option {
	return func(l *Logger) { l.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(l *Logger) { l.log = log }
}

// WithFailureHook is called with the event type of every failed write.
func WithFailureHook(fn func(event string)) Option {
	return func(l *Logger) { l.onFail = fn }
}

// New returns a Logger writing to sink. A nil sink discards events.
func New(sink Sink, opts ...Option) *Logger {
	l := &Logger{sink: sink, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logger.OrNop(l.log).With("service", "EventLogger")
	return l
}

// Log records one event and reports whether it was stored.
func (l *Logger) Log(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, event string, props map[string]any) bool {
	if l == nil || l.sink == nil || event == "" || userID == uuid.Nil {
		return false
	}
	if classID == nil {
		classID = l.resolveClass(ctx, userID)
	}
	if props == nil {
		props = map[string]any{}
	}
	now := l.clock().UTC()
	if _, ok := props["timestamp"]; !ok {
		props["timestamp"] = now.Format(time.RFC3339Nano)
	}

	raw, err := json.Marshal(props)
	if err != nil {
		l.fail(event, userID, err)
		return false
	}
	row := &repos.Event{
		UserID:     userID,
		ClassID:    classID,
		Event:      event,
		Properties: raw,
		TS:         now,
	}
	if _, err := l.sink.Create(ctx, nil, []*repos.Event{row}); err != nil {
		l.fail(event, userID, err)
		return false
	}
	return true
}

func (l *Logger) resolveClass(ctx context.Context, userID uuid.UUID) *uuid.UUID {
	if l.classes == nil {
		return nil
	}
	ids, err := l.classes.ClassesForUser(ctx, nil, userID)
	if err != nil {
		l.log.Warn("resolve class failed", "userId", userID, "error", err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	id := ids[0]
	return &id
}

func (l *Logger) fail(event string, userID uuid.UUID, err error) {
	l.log.Warn("log event failed", "event", event, "userId", userID, "error", err)
	if l.onFail != nil {
		l.onFail(event)
	}
}
