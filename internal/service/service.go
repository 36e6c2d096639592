package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-events/internal/clock"
	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
	"github.com/spec-kit/volunteer-events/internal/repository"
)

// Dependencies bundles repositories and collaborators shared by the services.
type Dependencies struct {
	Transactor     repository.Transactor
	EventRepo      repository.EventRepository
	JobRepo        repository.JobRepository
	AttendanceRepo repository.AttendanceRepository
	HistoryRepo    repository.EventHistoryRepository
	Dispatcher     events.Dispatcher
	Clock          clock.Clock
	Windows        domain.LifecycleWindows
	Logger         *zap.Logger
}

type base struct {
	tx          repository.Transactor
	events      repository.EventRepository
	jobs        repository.JobRepository
	attendances repository.AttendanceRepository
	history     repository.EventHistoryRepository
	dispatcher  events.Dispatcher
	clock       clock.Clock
	windows     domain.LifecycleWindows
	logger      *zap.Logger
}

func newBase(deps Dependencies) base {
	b := base{
		tx:          deps.Transactor,
		events:      deps.EventRepo,
		jobs:        deps.JobRepo,
		attendances: deps.AttendanceRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		clock:       deps.Clock,
		windows:     deps.Windows,
		logger:      deps.Logger,
	}
	if b.clock == nil {
		b.clock = clock.NewSystem()
	}
	if b.windows == (domain.LifecycleWindows{}) {
		b.windows = domain.DefaultLifecycleWindows()
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// completeIfLapsed forces a lapsed event to COMPLETED in its own
// transaction and reports whether this call made the change.
func (b *base) completeIfLapsed(ctx context.Context, eventID string) (bool, error) {
	var pending []events.Event
	completed := false
	err := b.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := b.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		now := b.clock.Now()
		if !domain.IsLapsed(event, now, b.windows) {
			return nil
		}
		from := event.Status
		ok, err := b.events.CompareAndSetStatus(ctx, event.ID,
			[]domain.EventStatus{domain.EventStatusOpen, domain.EventStatusInProgress},
			domain.EventStatusCompleted)
		if err != nil || !ok {
			return err
		}
		if err := b.record(ctx, event.ID, nil, domain.ChangeTypeStatus,
			map[string]any{"status": from},
			map[string]any{"status": domain.EventStatusCompleted, "transition": domain.TransitionAutoComplete}); err != nil {
			return err
		}
		pending = append(pending, events.Event{
			Type:    events.EventStatusChanged,
			EventID: event.ID,
			Actor:   systemActor(),
			Payload: events.EventStatusChangedPayload{
				OldStatus:  from,
				NewStatus:  domain.EventStatusCompleted,
				Transition: domain.TransitionAutoComplete,
			},
		})
		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	b.publish(ctx, pending)
	if completed {
		b.logger.Info("event auto-completed", zap.String("event_id", eventID))
	}
	return completed, nil
}

// lockEvent loads the event row FOR UPDATE. The in-memory status is the
// effective one so a lapse observed after completeIfLapsed still counts.
func (b *base) lockEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := b.events.GetForUpdate(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event.Status = domain.EffectiveStatus(event, b.clock.Now(), b.windows)
	return event, nil
}

// loadLedger fills event.Jobs with the jobs and their subscriptions.
func (b *base) loadLedger(ctx context.Context, event *domain.Event) error {
	jobs, err := b.jobs.ListByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	attendances, err := b.attendances.ListByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(jobs))
	for i := range jobs {
		index[jobs[i].ID] = i
	}
	for _, att := range attendances {
		if i, ok := index[att.JobID]; ok {
			jobs[i].Subscribed = append(jobs[i].Subscribed, att)
		}
	}
	event.Jobs = jobs
	return nil
}

func (b *base) record(ctx context.Context, eventID string, actor *domain.Member, change domain.EventChangeType, oldValue, newValue map[string]any) error {
	if b.history == nil {
		return nil
	}
	entry := &domain.EventHistory{
		EventID:       eventID,
		ChangedByType: domain.ActorTypeSystem,
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if actor != nil {
		id := actor.ID
		entry.ChangedByType = domain.ActorTypeMember
		entry.ChangedByID = &id
	}
	return b.history.Create(ctx, entry)
}

// publish delivers domain events once their transaction has committed.
func (b *base) publish(ctx context.Context, pending []events.Event) {
	if b.dispatcher == nil {
		return
	}
	for _, event := range pending {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = b.clock.Now()
		}
		_ = b.dispatcher.Publish(ctx, event)
	}
}

func memberActor(member domain.Member) events.Actor {
	id := member.ID
	return events.Actor{Type: domain.ActorTypeMember, MemberID: &id}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem}
}
