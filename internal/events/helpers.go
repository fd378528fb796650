package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reflection length buckets.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// LengthBucket classifies a reflection by character count.
func LengthBucket(length int) string {
	switch {
	case length < 50:
		return LengthShort
	case length < 150:
		return LengthMedium
	default:
		return LengthLong
	}
}

func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func (l *Logger) SessionStart(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, mode string) bool {
	return l.Log(ctx, userID, classID, TypeSessionStart, map[string]any{"mode": optional(mode)})
}

// SessionEnd records the session length in whole seconds.
func (l *Logger) SessionEnd(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, duration time.Duration, outputTypes []string) bool {
	if outputTypes == nil {
		outputTypes = []string{}
	}
	return l.Log(ctx, userID, classID, TypeSessionEnd, map[string]any{
		"duration":    int64(duration / time.Second),
		"outputCount": len(outputTypes),
		"outputTypes": outputTypes,
	})
}

func (l *Logger) ModeUsed(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, mode, tone, lens string) bool {
	return l.Log(ctx, userID, classID, TypeModeUsed, map[string]any{
		"mode": mode,
		"tone": optional(tone),
		"lens": optional(lens),
	})
}

func (l *Logger) PreferenceApplied(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, preference string, value bool) bool {
	return l.Log(ctx, userID, classID, TypePreferenceApplied, map[string]any{
		"preference": preference,
		"value":      value,
	})
}

func (l *Logger) OutputExported(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, outputType, format string) bool {
	return l.Log(ctx, userID, classID, TypeOutputExported, map[string]any{
		"type":   outputType,
		"format": format,
	})
}

func (l *Logger) CitationInserted(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, sourceType string, hasWorkingLink bool) bool {
	return l.Log(ctx, userID, classID, TypeCitationInserted, map[string]any{
		"sourceType":     sourceType,
		"hasWorkingLink": hasWorkingLink,
	})
}

func (l *Logger) SourceChecked(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, domain, sourceType string) bool {
	return l.Log(ctx, userID, classID, TypeSourceChecked, map[string]any{
		"domain":     domain,
		"sourceType": sourceType,
	})
}

func (l *Logger) NudgeShown(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, tag string) bool {
	return l.Log(ctx, userID, classID, TypeNudgeShown, map[string]any{"nudgeType": tag})
}

func (l *Logger) NudgeAccepted(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, tag string) bool {
	return l.Log(ctx, userID, classID, TypeNudgeAccepted, map[string]any{"nudgeType": tag})
}

func (l *Logger) NudgeDismissed(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, tag string) bool {
	return l.Log(ctx, userID, classID, TypeNudgeDismissed, map[string]any{"nudgeType": tag})
}

func (l *Logger) ReflectionSaved(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, text, depth string) bool {
	length := len([]rune(text))
	return l.Log(ctx, userID, classID, TypeReflectionSaved, map[string]any{
		"length":       length,
		"lengthBucket": LengthBucket(length),
		"depth":        optional(depth),
	})
}

// ConfidenceRated records a self-rating. ratingContext is "pre" or "post";
// empty means "post".
func (l *Logger) ConfidenceRated(ctx context.Context, userID uuid.UUID, classID *uuid.UUID, rating int, ratingContext string) bool {
	if ratingContext == "" {
		ratingContext = "post"
	}
	return l.Log(ctx, userID, classID, TypeConfidenceRated, map[string]any{
		"rating":  rating,
		"context": ratingContext,
	})
}
