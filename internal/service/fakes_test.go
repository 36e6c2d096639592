package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/volunteer-events/internal/clock"
	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
)

var (
	scheduledStart = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	scheduledEnd   = scheduledStart.Add(4 * time.Hour)

	organizer = domain.Member{ID: "org-1", FullName: "Olga Organizer"}
	alice     = domain.Member{ID: "vol-alice", FullName: "Alice Andrade"}
	bob       = domain.Member{ID: "vol-bob", FullName: "Bob Barros"}
)

// memStore backs the fake repositories. Transactions snapshot it and roll
// back on error so tests can assert that failed mutations apply nothing.
type memStore struct {
	mu          sync.Mutex
	events      map[string]domain.Event
	jobs        []domain.Job
	attendances []domain.Attendance
	history     []domain.EventHistory
}

type memSnapshot struct {
	events      map[string]domain.Event
	jobs        []domain.Job
	attendances []domain.Attendance
	history     []domain.EventHistory
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string]domain.Event)}
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		events:      make(map[string]domain.Event, len(m.events)),
		jobs:        append([]domain.Job(nil), m.jobs...),
		attendances: append([]domain.Attendance(nil), m.attendances...),
		history:     append([]domain.EventHistory(nil), m.history...),
	}
	for id, e := range m.events {
		snap.events[id] = e
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = snap.events
	m.jobs = snap.jobs
	m.attendances = snap.attendances
	m.history = snap.history
}

func (m *memStore) status(id string) domain.EventStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id].Status
}

func (m *memStore) attendance(eventID, volunteerID string) (domain.Attendance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attendances {
		if a.EventID == eventID && a.VolunteerID == volunteerID {
			return a, true
		}
	}
	return domain.Attendance{}, false
}

func (m *memStore) historyOf(eventID string) []domain.EventHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EventHistory
	for _, h := range m.history {
		if h.EventID == eventID {
			out = append(out, h)
		}
	}
	return out
}

// fakeTransactor serializes transactions, standing in for row locks.
type fakeTransactor struct {
	mu    sync.Mutex
	store *memStore
}

func (t *fakeTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type fakeEventRepo struct{ store *memStore }

func (r *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now
	stored := *event
	stored.Jobs = nil
	r.store.events[event.ID] = stored
	return nil
}

func (r *fakeEventRepo) UpdateDetails(_ context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.events[event.ID]
	if !ok || stored.Status != domain.EventStatusOpen {
		return domain.ErrEventNotOpen
	}
	stored.Title = event.Title
	stored.Description = event.Description
	stored.Address = event.Address
	stored.StartAt = event.StartAt
	stored.EndAt = event.EndAt
	stored.UpdatedAt = time.Now().UTC()
	event.UpdatedAt = stored.UpdatedAt
	r.store.events[event.ID] = stored
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &stored, nil
}

func (r *fakeEventRepo) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeEventRepo) CompareAndSetStatus(_ context.Context, id string, from []domain.EventStatus, next domain.EventStatus) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.events[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if stored.Status == s {
			stored.Status = next
			r.store.events[id] = stored
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEventRepo) ListLapsed(_ context.Context, endedBefore time.Time, limit int) ([]domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Event
	for _, e := range r.store.events {
		if (e.Status == domain.EventStatusOpen || e.Status == domain.EventStatusInProgress) && !e.EndAt.After(endedBefore) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndAt.Before(out[j].EndAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeJobRepo struct{ store *memStore }

func (r *fakeJobRepo) Create(_ context.Context, job *domain.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	stored := *job
	stored.Subscribed = nil
	r.store.jobs = append(r.store.jobs, stored)
	return nil
}

func (r *fakeJobRepo) Update(_ context.Context, job *domain.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.jobs {
		stored := &r.store.jobs[i]
		if stored.ID == job.ID && stored.EventID == job.EventID {
			stored.Title = job.Title
			stored.Description = job.Description
			stored.MaxVolunteers = job.MaxVolunteers
			return nil
		}
	}
	return domain.ErrJobNotFound
}

func (r *fakeJobRepo) GetForUpdate(_ context.Context, eventID, jobID string) (*domain.Job, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, j := range r.store.jobs {
		if j.ID == jobID && j.EventID == eventID {
			job := j
			return &job, nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (r *fakeJobRepo) ListByEvent(_ context.Context, eventID string) ([]domain.Job, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Job
	for _, j := range r.store.jobs {
		if j.EventID == eventID {
			out = append(out, j)
		}
	}
	return out, nil
}

type fakeAttendanceRepo struct{ store *memStore }

func (r *fakeAttendanceRepo) Create(_ context.Context, att *domain.Attendance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.attendances {
		if a.EventID == att.EventID && a.VolunteerID == att.VolunteerID {
			return domain.ErrAlreadySubscribedElsewhere
		}
	}
	att.CreatedAt = time.Now().UTC()
	r.store.attendances = append(r.store.attendances, *att)
	return nil
}

func (r *fakeAttendanceRepo) FindByVolunteer(_ context.Context, eventID, volunteerID string) (*domain.Attendance, error) {
	att, ok := r.store.attendance(eventID, volunteerID)
	if !ok {
		return nil, nil
	}
	return &att, nil
}

func (r *fakeAttendanceRepo) FindByVolunteerForUpdate(ctx context.Context, eventID, volunteerID string) (*domain.Attendance, error) {
	return r.FindByVolunteer(ctx, eventID, volunteerID)
}

func (r *fakeAttendanceRepo) CountByJob(_ context.Context, jobID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := 0
	for _, a := range r.store.attendances {
		if a.JobID == jobID {
			total++
		}
	}
	return total, nil
}

func (r *fakeAttendanceRepo) ListByEvent(_ context.Context, eventID string) ([]domain.Attendance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Attendance
	for _, a := range r.store.attendances {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) DeleteIfNotCheckedIn(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, a := range r.store.attendances {
		if a.ID == id && a.CheckInAt == nil {
			r.store.attendances = append(r.store.attendances[:i:i], r.store.attendances[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAttendanceRepo) SetCheckIn(_ context.Context, id string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.attendances {
		a := &r.store.attendances[i]
		if a.ID == id && a.CheckInAt == nil {
			stamp := at
			a.CheckInAt = &stamp
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAttendanceRepo) SetCheckOut(_ context.Context, id string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.attendances {
		a := &r.store.attendances[i]
		if a.ID == id && a.CheckInAt != nil && a.CheckOutAt == nil && a.CheckInAt.Before(at) {
			stamp := at
			a.CheckOutAt = &stamp
			return true, nil
		}
	}
	return false, nil
}

type fakeHistoryRepo struct{ store *memStore }

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.EventHistory) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	r.store.history = append(r.store.history, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByEvent(_ context.Context, eventID string) ([]domain.EventHistory, error) {
	return r.store.historyOf(eventID), nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

func (d *recordingDispatcher) last() events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.published[len(d.published)-1]
}

type fixture struct {
	store         *memStore
	clock         *clock.Fixed
	dispatcher    *recordingDispatcher
	lifecycle     *LifecycleService
	subscriptions *SubscriptionService
	attendance    *AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		store:      store,
		clock:      clock.NewFixed(scheduledStart.Add(-24 * time.Hour)),
		dispatcher: &recordingDispatcher{},
	}
	deps := Dependencies{
		Transactor:     &fakeTransactor{store: store},
		EventRepo:      &fakeEventRepo{store: store},
		JobRepo:        &fakeJobRepo{store: store},
		AttendanceRepo: &fakeAttendanceRepo{store: store},
		HistoryRepo:    &fakeHistoryRepo{store: store},
		Dispatcher:     f.dispatcher,
		Clock:          f.clock,
		Windows:        domain.DefaultLifecycleWindows(),
	}
	f.lifecycle = NewLifecycleService(deps)
	f.subscriptions = NewSubscriptionService(deps)
	f.attendance = NewAttendanceService(deps)
	return f
}

// createEvent creates an OPEN event with one job per capacity.
func (f *fixture) createEvent(t *testing.T, capacities ...int) *domain.Event {
	t.Helper()
	input := CreateEventInput{
		EventDetailsInput: EventDetailsInput{
			Title:   "Beach cleanup",
			Address: "Praia do Forte",
			StartAt: scheduledStart,
			EndAt:   scheduledEnd,
		},
	}
	for i, c := range capacities {
		input.Jobs = append(input.Jobs, JobInput{Title: "Role " + string(rune('A'+i)), MaxVolunteers: c})
	}
	event, err := f.lifecycle.CreateEvent(context.Background(), organizer, input)
	require.NoError(t, err)
	return event
}

// startEvent moves the event to IN_PROGRESS at the scheduled start.
func (f *fixture) startEvent(t *testing.T, eventID string) {
	t.Helper()
	f.clock.Set(scheduledStart)
	_, err := f.lifecycle.Start(context.Background(), organizer, eventID)
	require.NoError(t, err)
}
