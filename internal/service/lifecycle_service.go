package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
	apperrors "github.com/spec-kit/volunteer-events/pkg/util"
)

// LifecycleService drives events through OPEN, IN_PROGRESS, COMPLETED and
// CANCELED and owns the organizer-side editing operations.
type LifecycleService struct {
	base
}

// EventDetailsInput describes editable event fields.
type EventDetailsInput struct {
	Title       string
	Description string
	Address     string
	StartAt     time.Time
	EndAt       time.Time
}

// JobInput describes a role offered by an event.
type JobInput struct {
	Title         string
	Description   string
	MaxVolunteers int
}

// CreateEventInput describes a new event with its initial roles.
type CreateEventInput struct {
	EventDetailsInput
	Jobs []JobInput
}

// EventView is what a member sees when opening an event.
type EventView struct {
	Event        *domain.Event
	Role         domain.Role
	Actions      domain.ActionSet
	Attendance   *domain.Attendance
	Ticket       *domain.Ticket
	Subscribable map[string]bool
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps Dependencies) *LifecycleService {
	return &LifecycleService{base: newBase(deps)}
}

// CreateEvent creates an OPEN event owned by the organizer.
func (s *LifecycleService) CreateEvent(ctx context.Context, organizer domain.Member, input CreateEventInput) (*domain.Event, error) {
	if err := domain.ValidateSchedule(input.StartAt, input.EndAt); err != nil {
		return nil, mapDomainError(err)
	}
	if len(input.Jobs) == 0 {
		return nil, apperrors.NewValidationError("an event needs at least one role", map[string]any{"jobs": "required"})
	}
	for _, job := range input.Jobs {
		if err := domain.ValidateCapacity(job.MaxVolunteers, 0); err != nil {
			return nil, mapDomainError(err)
		}
	}

	event := &domain.Event{
		ID:          uuid.NewString(),
		OrganizerID: organizer.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		StartAt:     input.StartAt.UTC(),
		EndAt:       input.EndAt.UTC(),
		Status:      domain.EventStatusOpen,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.events.Create(ctx, event); err != nil {
			return err
		}
		event.Jobs = make([]domain.Job, 0, len(input.Jobs))
		for _, in := range input.Jobs {
			job := domain.Job{
				ID:            uuid.NewString(),
				EventID:       event.ID,
				Title:         strings.TrimSpace(in.Title),
				Description:   strings.TrimSpace(in.Description),
				MaxVolunteers: in.MaxVolunteers,
			}
			if err := s.jobs.Create(ctx, &job); err != nil {
				return err
			}
			event.Jobs = append(event.Jobs, job)
		}
		return s.record(ctx, event.ID, &organizer, domain.ChangeTypeCreated, nil, map[string]any{
			"title":    event.Title,
			"start_at": event.StartAt,
			"end_at":   event.EndAt,
			"jobs":     len(event.Jobs),
		})
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	s.publish(ctx, []events.Event{{
		Type:    events.EventCreated,
		EventID: event.ID,
		Actor:   memberActor(organizer),
		Payload: events.EventCreatedPayload{
			OrganizerID: event.OrganizerID,
			Title:       event.Title,
			StartAt:     event.StartAt,
			JobCount:    len(event.Jobs),
		},
	}})
	return event, nil
}

// UpdateEventDetails edits an OPEN event.
func (s *LifecycleService) UpdateEventDetails(ctx context.Context, actor domain.Member, eventID string, input EventDetailsInput) (*domain.Event, error) {
	if err := domain.ValidateSchedule(input.StartAt, input.EndAt); err != nil {
		return nil, mapDomainError(err)
	}
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return nil, mapDomainError(err)
	}

	var event *domain.Event
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.editableEvent(ctx, actor, eventID, "edit")
		if err != nil {
			return err
		}
		old := detailsSnapshot(event)
		event.Title = strings.TrimSpace(input.Title)
		event.Description = strings.TrimSpace(input.Description)
		event.Address = strings.TrimSpace(input.Address)
		event.StartAt = input.StartAt.UTC()
		event.EndAt = input.EndAt.UTC()
		if err := s.events.UpdateDetails(ctx, event); err != nil {
			return err
		}
		return s.record(ctx, event.ID, &actor, domain.ChangeTypeDetails, old, detailsSnapshot(event))
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	s.publish(ctx, []events.Event{{Type: events.EventUpdated, EventID: event.ID, Actor: memberActor(actor)}})
	return event, nil
}

// AddJob adds a role to an OPEN event.
func (s *LifecycleService) AddJob(ctx context.Context, actor domain.Member, eventID string, input JobInput) (*domain.Job, error) {
	if err := domain.ValidateCapacity(input.MaxVolunteers, 0); err != nil {
		return nil, mapDomainError(err)
	}
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return nil, mapDomainError(err)
	}

	job := &domain.Job{
		ID:            uuid.NewString(),
		EventID:       eventID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		MaxVolunteers: input.MaxVolunteers,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.editableEvent(ctx, actor, eventID, "edit"); err != nil {
			return err
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return err
		}
		return s.record(ctx, eventID, &actor, domain.ChangeTypeJob, nil, jobSnapshot(job))
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	s.publish(ctx, []events.Event{{Type: events.EventUpdated, EventID: eventID, Actor: memberActor(actor)}})
	return job, nil
}

// UpdateJob edits a role. Capacity never drops below the filled count.
func (s *LifecycleService) UpdateJob(ctx context.Context, actor domain.Member, eventID, jobID string, input JobInput) (*domain.Job, error) {
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return nil, mapDomainError(err)
	}

	var job *domain.Job
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.editableEvent(ctx, actor, eventID, "edit"); err != nil {
			return err
		}
		var err error
		job, err = s.jobs.GetForUpdate(ctx, eventID, jobID)
		if err != nil {
			return err
		}
		filled, err := s.attendances.CountByJob(ctx, jobID)
		if err != nil {
			return err
		}
		if err := domain.ValidateCapacity(input.MaxVolunteers, filled); err != nil {
			return err
		}
		old := jobSnapshot(job)
		job.Title = strings.TrimSpace(input.Title)
		job.Description = strings.TrimSpace(input.Description)
		job.MaxVolunteers = input.MaxVolunteers
		if err := s.jobs.Update(ctx, job); err != nil {
			return err
		}
		return s.record(ctx, eventID, &actor, domain.ChangeTypeJob, old, jobSnapshot(job))
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	s.publish(ctx, []events.Event{{Type: events.EventUpdated, EventID: eventID, Actor: memberActor(actor)}})
	return job, nil
}

// Start moves an OPEN event to IN_PROGRESS inside the start window.
func (s *LifecycleService) Start(ctx context.Context, actor domain.Member, eventID string) (*domain.Event, error) {
	return s.transition(ctx, actor, eventID, domain.TransitionStart)
}

// End completes an IN_PROGRESS event once its scheduled start has passed.
func (s *LifecycleService) End(ctx context.Context, actor domain.Member, eventID string) (*domain.Event, error) {
	return s.transition(ctx, actor, eventID, domain.TransitionEnd)
}

// Cancel moves an OPEN or IN_PROGRESS event to CANCELED.
func (s *LifecycleService) Cancel(ctx context.Context, actor domain.Member, eventID string) (*domain.Event, error) {
	return s.transition(ctx, actor, eventID, domain.TransitionCancel)
}

// AutoComplete forces a lapsed event to COMPLETED on behalf of the system.
// Calling it again, or on an event that has not lapsed, changes nothing.
func (s *LifecycleService) AutoComplete(ctx context.Context, eventID string) (bool, error) {
	completed, err := s.completeIfLapsed(ctx, eventID)
	if err != nil {
		return false, mapDomainError(err)
	}
	return completed, nil
}

// ListLapsed returns events the auto-complete sweep should visit.
func (s *LifecycleService) ListLapsed(ctx context.Context, limit int) ([]domain.Event, error) {
	cutoff := s.clock.Now().Add(-s.windows.AutoCompleteGrace)
	lapsed, err := s.events.ListLapsed(ctx, cutoff, limit)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return lapsed, nil
}

// GetEventView reads fresh state and derives the viewer's role, enabled
// actions and ticket. Actions are recomputed from the clock on every call.
func (s *LifecycleService) GetEventView(ctx context.Context, viewer domain.Member, eventID string) (*EventView, error) {
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return nil, mapDomainError(err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if err := s.loadLedger(ctx, event); err != nil {
		return nil, mapDomainError(err)
	}

	now := s.clock.Now()
	event.Status = domain.EffectiveStatus(event, now, s.windows)
	role := domain.RoleFor(event, viewer.ID)
	actions := domain.EnabledActions(event, role, now, s.windows)

	view := &EventView{
		Event:        event,
		Role:         role,
		Actions:      actions,
		Subscribable: make(map[string]bool, len(event.Jobs)),
	}
	if role == domain.RoleVolunteer {
		if att, _, ok := event.AttendanceOf(viewer.ID); ok {
			view.Attendance = att
			if actions.Has(domain.ActionViewTicket) {
				if ticket, ok := domain.IssueTicket(event.ID, att); ok {
					view.Ticket = &ticket
				}
			}
		}
	}
	for i := range event.Jobs {
		view.Subscribable[event.Jobs[i].ID] = view.Attendance == nil && domain.JobSubscribable(&event.Jobs[i], actions)
	}
	return view, nil
}

// ListHistory returns the audit trail of an event to its organizer.
func (s *LifecycleService) ListHistory(ctx context.Context, actor domain.Member, eventID string) ([]domain.EventHistory, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if event.OrganizerID != actor.ID {
		return nil, forbidden(domain.ErrNotOrganizer, "only the organizer can view the history of this event")
	}
	if s.history == nil {
		return nil, nil
	}
	entries, err := s.history.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return entries, nil
}

func (s *LifecycleService) transition(ctx context.Context, actor domain.Member, eventID string, transition domain.Transition) (*domain.Event, error) {
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return nil, mapDomainError(err)
	}

	var (
		event *domain.Event
		from  domain.EventStatus
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != actor.ID {
			return forbidden(domain.ErrNotOrganizer, fmt.Sprintf("only the organizer can %s this event", transition))
		}
		next, err := domain.CheckTransition(event, transition, s.clock.Now(), s.windows)
		if err != nil {
			return err
		}
		from = event.Status
		ok, err := s.events.CompareAndSetStatus(ctx, event.ID, []domain.EventStatus{from}, next)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InvalidTransitionError{Status: from, Transition: transition, Reason: "status changed concurrently"}
		}
		event.Status = next
		return s.record(ctx, event.ID, &actor, domain.ChangeTypeStatus,
			map[string]any{"status": from},
			map[string]any{"status": next, "transition": transition})
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	s.logger.Info("event status changed",
		zap.String("event_id", event.ID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(from)),
		zap.String("to", string(event.Status)))
	s.publish(ctx, []events.Event{{
		Type:    events.EventStatusChanged,
		EventID: event.ID,
		Actor:   memberActor(actor),
		Payload: events.EventStatusChangedPayload{OldStatus: from, NewStatus: event.Status, Transition: transition},
	}})
	return event, nil
}

// editableEvent locks the event and checks that the actor may change it.
func (s *LifecycleService) editableEvent(ctx context.Context, actor domain.Member, eventID, verb string) (*domain.Event, error) {
	event, err := s.lockEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actor.ID {
		return nil, forbidden(domain.ErrNotOrganizer, fmt.Sprintf("only the organizer can %s this event", verb))
	}
	if event.Status != domain.EventStatusOpen {
		return nil, apperrors.Wrap(domain.ErrEventNotOpen, "EVENT_NOT_OPEN",
			fmt.Sprintf("an event that is %s can no longer be changed", event.Status),
			http.StatusConflict, map[string]any{"status": event.Status})
	}
	return event, nil
}

func detailsSnapshot(e *domain.Event) map[string]any {
	return map[string]any{
		"title":       e.Title,
		"description": e.Description,
		"address":     e.Address,
		"start_at":    e.StartAt,
		"end_at":      e.EndAt,
	}
}

func jobSnapshot(j *domain.Job) map[string]any {
	return map[string]any{
		"job_id":         j.ID,
		"title":          j.Title,
		"max_volunteers": j.MaxVolunteers,
	}
}
