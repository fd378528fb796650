// Package classroom manages instructor classes and builds their reports.
package classroom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/workbook/internal/analytics"
	"github.com/abhisek/workbook/internal/cache"
	"github.com/abhisek/workbook/internal/logger"
	"github.com/abhisek/workbook/internal/metrics"
	"github.com/abhisek/workbook/internal/repos"
)

// ErrInvalid is returned for a missing class name.
var ErrInvalid = errors.New("invalid class")

// DefaultWindow is how far back events are read for a report.
const DefaultWindow = 30 * 24 * time.Hour

// Service manages classes and computes their reports.
type Service struct {
	repos   *repos.Repos
	cache   cache.ReportCache
	metrics *metrics.Metrics
	window  time.Duration
	clock   func() time.Time
	log     *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoises reports in c. The default caches nothing.
func WithCache(c cache.ReportCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics records report timings and cache hits on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithWindow sets the event window; values below seven days are raised to
// seven so weekly figures stay complete.
func WithWindow(d time.Duration) Option {
	return func(s *Service) { s.window = d }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a Service over r.
func New(r *repos.Repos, opts ...Option) *Service {
	s := &Service{
		repos:  r,
		cache:  cache.Nop{},
		window: DefaultWindow,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.window < 7*24*time.Hour {
		s.window = 7 * 24 * time.Hour
	}
	s.log = logger.OrNop(s.log).With("service", "ClassroomService")
	return s
}

// CreateClass creates a class owned by instructorID. A blank name is
// ErrInvalid.
func (s *Service) CreateClass(ctx context.Context, instructorID uuid.UUID, name string) (*repos.Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	c, err := s.repos.Classes.Create(ctx, nil, &repos.Class{Name: name, InstructorID: instructorID})
	if err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	s.log.Info("class created", "class", c.ID, "instructor", instructorID)
	return c, nil
}

// ListClasses returns instructorID's classes with their enrollments.
func (s *Service) ListClasses(ctx context.Context, instructorID uuid.UUID) ([]*repos.Class, error) {
	return s.repos.Classes.ListByInstructor(ctx, nil, instructorID)
}

// Enroll adds userID to a class owned by instructorID. Unknown classes,
// classes of other instructors and unknown users are ErrNotFound.
func (s *Service) Enroll(ctx context.Context, instructorID, classID, userID uuid.UUID) (*repos.Enrollment, error) {
	if _, err := s.repos.Classes.GetOwned(ctx, nil, classID, instructorID); err != nil {
		return nil, err
	}
	ok, err := s.repos.Users.Exists(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repos.ErrNotFound
	}
	return s.repos.Classes.Enroll(ctx, nil, classID, userID)
}

// Input loads everything the report for classID is computed from.
func (s *Service) Input(ctx context.Context, classID uuid.UUID, now time.Time) (analytics.Input, error) {
	in := analytics.Input{ClassID: classID.String()}

	enrollments, err := s.repos.Classes.Enrollments(ctx, nil, classID)
	if err != nil {
		return in, fmt.Errorf("load enrollments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(enrollments))
	in.Students = make([]analytics.Enrollee, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.UserID)
		in.Students = append(in.Students, analytics.Enrollee{
			ID:         e.UserID.String(),
			Name:       e.User.Name,
			Email:      e.User.Email,
			EnrolledAt: e.CreatedAt.UTC(),
		})
	}

	if in.Profiles, err = s.repos.Preferences.Blobs(ctx, nil, ids); err != nil {
		return in, fmt.Errorf("load preferences: %w", err)
	}

	rows, err := s.repos.Events.ListForClass(ctx, nil, classID, now.Add(-s.window))
	if err != nil {
		return in, fmt.Errorf("load events: %w", err)
	}
	events, decodeErrs := repos.ToAnalytics(rows)
	if len(decodeErrs) > 0 {
		s.log.Warn("malformed event properties replaced with empty values", "class", classID, "error", errors.Join(decodeErrs...))
	}
	in.Events = events

	artifacts, err := s.repos.Artifacts.ListForClass(ctx, nil, classID)
	if err != nil {
		return in, fmt.Errorf("load artifacts: %w", err)
	}
	in.Artifacts = make([]analytics.Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		in.Artifacts = append(in.Artifacts, analytics.Artifact{UserID: a.UserID.String(), Type: a.Type, IsShared: a.IsShared})
	}
	return in, nil
}

// Report returns the class report for the owning instructor. It is
// memoised by the fingerprint of its input and evaluation minute, so a
// cached report may have been computed up to a minute earlier.
func (s *Service) Report(ctx context.Context, instructorID, classID uuid.UUID) (analytics.Report, error) {
	if _, err := s.repos.Classes.GetOwned(ctx, nil, classID, instructorID); err != nil {
		return analytics.Report{}, err
	}
	return s.build(ctx, classID)
}

// ReportForClass builds the report without an ownership check.
func (s *Service) ReportForClass(ctx context.Context, classID uuid.UUID) (analytics.Report, error) {
	return s.build(ctx, classID)
}

func (s *Service) build(ctx context.Context, classID uuid.UUID) (analytics.Report, error) {
	start := time.Now()
	now := s.clock().UTC()

	in, err := s.Input(ctx, classID, now)
	if err != nil {
		return analytics.Report{}, err
	}
	key, err := analytics.Fingerprint(in, now.Truncate(time.Minute))
	if err != nil {
		return analytics.Report{}, err
	}

	r, hit, err := cache.Memo(ctx, s.cache, key, s.log, func() (analytics.Report, error) {
		r, buildErr := analytics.Build(in, now)
		if buildErr != nil {
			s.log.Warn("corrupt records counted as empty", "class", classID, "error", buildErr)
		}
		return r, nil
	})
	if err != nil {
		return analytics.Report{}, err
	}
	s.metrics.ObserveReport(time.Since(start), hit)
	s.log.Debug("class report", "class", classID, "students", len(in.Students), "events", len(in.Events), "cached", hit)
	return r, nil
}
