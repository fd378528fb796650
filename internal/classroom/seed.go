package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/workbook/internal/events"
	"github.com/abhisek/workbook/internal/repos"
	"github.com/abhisek/workbook/internal/settings"
)

type demoStudent struct {
	name    string
	email   string
	adopted []string
	signals []settings.Signal
	nudges  map[string]int
	// citations is the number of citation artifacts; the first is shared.
	citations int
}

func demoStudents() []demoStudent {
	sig := func(tag, ctx string) settings.Signal { return settings.Signal{Tag: tag, Context: ctx} }
	return []demoStudent{
		{
			name: "Alex Johnson", email: "alex@test.com",
			adopted:   []string{"tone:everyday", "depth:short", "aids:takeaways"},
			signals:   []settings.Signal{sig("tone:everyday", "summary"), sig("tone:everyday", "qa"), sig("depth:short", "summary"), sig("aids:takeaways", "outline")},
			nudges:    map[string]int{"tone:academic": 1, "depth:scaffolded": 2},
			citations: 2,
		},
		{
			name: "Sam Chen", email: "sam@test.com",
			adopted:   []string{"tone:academic", "depth:scaffolded", "lens:community"},
			signals:   []settings.Signal{sig("tone:academic", "summary"), sig("depth:scaffolded", "qa"), sig("lens:community", "summary")},
			nudges:    map[string]int{"tone:everyday": 1},
			citations: 1,
		},
		{
			name: "Maria Garcia", email: "maria@test.com",
			adopted: []string{"lens:sports", "aids:vocab"},
			signals: []settings.Signal{sig("lens:sports", "qa"), sig("aids:vocab", "summary")},
			nudges:  map[string]int{"tone:academic": 3, "depth:scaffolded": 2, "lens:community": 1},
		},
		{
			name: "Jordan Smith", email: "jordan@test.com",
			adopted: []string{"tone:everyday", "lens:music"},
			signals: []settings.Signal{sig("tone:everyday", "summary"), sig("lens:music", "qa")},
			nudges:  map[string]int{"depth:scaffolded": 1},
		},
		{
			name: "Taylor Wilson", email: "taylor@test.com",
			adopted: []string{"depth:short"},
			signals: []settings.Signal{sig("depth:short", "summary")},
			nudges:  map[string]int{"tone:academic": 2, "lens:community": 2, "aids:takeaways": 1},
		},
	}
}

const demoCitation = "Creswell, J. W. (2014). Research design: Qualitative, quantitative, and mixed methods approaches. SAGE."

// SeedResult describes the demo data written by Seed.
type SeedResult struct {
	InstructorID uuid.UUID
	ClassID      uuid.UUID
	StudentIDs   []uuid.UUID
}

// Seed writes a demo class for instructorEmail: five students with
// signals, preferences, nudge dismissals and a session of events each.
// Existing users are reused.
func (s *Service) Seed(ctx context.Context, instructorEmail string) (*SeedResult, error) {
	now := s.clock().UTC()

	instructor, err := s.ensureUser(ctx, "Demo Instructor", instructorEmail, repos.RoleInstructor)
	if err != nil {
		return nil, err
	}
	class, err := s.CreateClass(ctx, instructor.ID, "Research Methods 101")
	if err != nil {
		return nil, err
	}

	res := &SeedResult{InstructorID: instructor.ID, ClassID: class.ID}
	for _, st := range demoStudents() {
		u, err := s.ensureUser(ctx, st.name, st.email, repos.RoleStudent)
		if err != nil {
			return nil, err
		}
		if _, err := s.repos.Classes.Enroll(ctx, nil, class.ID, u.ID); err != nil {
			return nil, fmt.Errorf("enroll %s: %w", st.email, err)
		}

		doc := settings.Default()
		doc.HasOnboarded = true
		doc.LastSession = &now
		for _, sg := range st.signals {
			sg.Timestamp = now
			doc.Signals = append(doc.Signals, sg)
		}
		for _, tag := range st.adopted {
			doc.SetPreference(tag, true, now)
		}
		for tag, n := range st.nudges {
			doc.Nudges[tag] = n
		}
		if _, err := s.repos.Preferences.Upsert(ctx, nil, u.ID, doc); err != nil {
			return nil, fmt.Errorf("seed preferences for %s: %w", st.email, err)
		}

		if _, err := s.repos.Events.Create(ctx, nil, demoEvents(u.ID, class.ID, now)); err != nil {
			return nil, fmt.Errorf("seed events for %s: %w", st.email, err)
		}
		for i := 0; i < st.citations; i++ {
			cid := class.ID
			a := &repos.Artifact{UserID: u.ID, ClassID: &cid, Type: "citation", Content: demoCitation, IsShared: i == 0}
			if _, err := s.repos.Artifacts.Create(ctx, nil, a); err != nil {
				return nil, fmt.Errorf("seed artifacts for %s: %w", st.email, err)
			}
		}
		res.StudentIDs = append(res.StudentIDs, u.ID)
	}

	s.log.Info("demo class seeded", "class", class.ID, "students", len(res.StudentIDs))
	return res, nil
}

func (s *Service) ensureUser(ctx context.Context, name, email, role string) (*repos.User, error) {
	u, err := s.repos.Users.GetByEmail(ctx, nil, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	u, err = s.repos.Users.Create(ctx, nil, &repos.User{Name: name, Email: email, Role: role})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}

func demoEvents(userID, classID uuid.UUID, now time.Time) []*repos.Event {
	mk := func(name string, at time.Time, props map[string]any) *repos.Event {
		b, _ := json.Marshal(props)
		cid := classID
		return &repos.Event{ID: uuid.New(), UserID: userID, ClassID: &cid, Event: name, Properties: b, TS: at}
	}
	start := now.Add(-20 * time.Minute)
	return []*repos.Event{
		mk(events.TypeSessionStart, start, map[string]any{"mode": "summarize"}),
		mk(events.TypeModeUsed, start.Add(time.Minute), map[string]any{"mode": "summarize"}),
		mk(events.TypeModeUsed, start.Add(6*time.Minute), map[string]any{"mode": "ask"}),
		mk(events.TypeModeUsed, start.Add(12*time.Minute), map[string]any{"mode": "outline"}),
		mk(events.TypeSessionEnd, now, map[string]any{
			"duration":    int64((20 * time.Minute) / time.Second),
			"outputCount": 2,
			"outputTypes": []string{"summary", "outline"},
		}),
	}
}
