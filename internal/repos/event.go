package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhisek/workbook/internal/analytics"
	"github.com/abhisek/workbook/internal/logger"
)

// EventRepo is the append-only analytics event log.
type EventRepo interface {
	// Create inserts events in one statement, filling ids, timestamps and
	// empty properties.
	Create(ctx context.Context, tx *gorm.DB, events []*Event) ([]*Event, error)
	// ListForClass returns the class's events at or after since, newest
	// first.
	ListForClass(ctx context.Context, tx *gorm.DB, classID uuid.UUID, since time.Time) ([]*Event, error)
	// ListForUser returns userID's events, newest first. A limit of 0 or
	// less returns all of them.
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*Event, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewEventRepo creates an EventRepo backed by db.
func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "EventRepo")}
}

func (r *eventRepo) Create(ctx context.Context, tx *gorm.DB, events []*Event) ([]*Event, error) {
	if len(events) == 0 {
		return []*Event{}, nil
	}
	for _, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.TS.IsZero() {
			e.TS = time.Now().UTC()
		}
		if len(e.Properties) == 0 {
			e.Properties = []byte("{}")
		}
	}
	if err := pick(r.db, tx).WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepo) ListForClass(ctx context.Context, tx *gorm.DB, classID uuid.UUID, since time.Time) ([]*Event, error) {
	var out []*Event
	err := pick(r.db, tx).WithContext(ctx).
		Where("class_id = ? AND ts >= ?", classID, since).
		Order("ts DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*Event, error) {
	var out []*Event
	q := pick(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).Order("ts DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ToAnalytics converts stored events for the report. A malformed property
// bag becomes empty; the joined error is for logging.
func ToAnalytics(rows []*Event) ([]analytics.Event, []error) {
	out := make([]analytics.Event, 0, len(rows))
	var errs []error
	for _, row := range rows {
		props, err := analytics.DecodeProperties(string(row.Properties))
		if err != nil {
			errs = append(errs, err)
		}
		e := analytics.Event{
			UserID:     row.UserID.String(),
			Name:       row.Event,
			Properties: props,
			TS:         row.TS.UTC(),
		}
		if row.ClassID != nil {
			e.ClassID = row.ClassID.String()
		}
		out = append(out, e)
	}
	return out, errs
}
