package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
)

// SubscriptionService maintains the capacity ledger of event roles.
type SubscriptionService struct {
	base
}

// Subscription is the outcome of taking a role.
type Subscription struct {
	Attendance *domain.Attendance
	Filled     int
	Capacity   int
}

// NewSubscriptionService constructs the service.
func NewSubscriptionService(deps Dependencies) *SubscriptionService {
	return &SubscriptionService{base: newBase(deps)}
}

// Subscribe takes one seat of the job for the volunteer. The event row
// lock serializes subscribers so filled never exceeds capacity.
func (s *SubscriptionService) Subscribe(ctx context.Context, volunteer domain.Member, eventID, jobID string) (*Subscription, error) {
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return nil, mapDomainError(err)
	}

	var result *Subscription
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID == volunteer.ID {
			return domain.ErrOrganizerCannotSubscribe
		}
		if err := s.loadLedger(ctx, event); err != nil {
			return err
		}
		if err := domain.CheckSubscribe(event, jobID, volunteer.ID); err != nil {
			return err
		}
		job, err := s.jobs.GetForUpdate(ctx, eventID, jobID)
		if err != nil {
			return err
		}

		att := &domain.Attendance{
			ID:          uuid.NewString(),
			EventID:     eventID,
			JobID:       jobID,
			VolunteerID: volunteer.ID,
			FullName:    volunteer.FullName,
		}
		if err := s.attendances.Create(ctx, att); err != nil {
			return err
		}
		filled, err := s.attendances.CountByJob(ctx, jobID)
		if err != nil {
			return err
		}
		if filled > job.MaxVolunteers {
			return domain.ErrCapacityExceeded
		}
		result = &Subscription{Attendance: att, Filled: filled, Capacity: job.MaxVolunteers}
		return s.record(ctx, eventID, &volunteer, domain.ChangeTypeSubscribe, nil,
			map[string]any{"job_id": jobID, "volunteer_id": volunteer.ID})
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	s.logger.Info("volunteer subscribed",
		zap.String("event_id", eventID),
		zap.String("job_id", jobID),
		zap.String("actor_id", volunteer.ID),
		zap.Int("filled", result.Filled),
		zap.Int("capacity", result.Capacity))
	s.publish(ctx, []events.Event{{
		Type:    events.JobSubscribed,
		EventID: eventID,
		Actor:   memberActor(volunteer),
		Payload: events.SubscriptionPayload{
			JobID:       jobID,
			VolunteerID: volunteer.ID,
			Filled:      result.Filled,
			Capacity:    result.Capacity,
		},
	}})
	return result, nil
}

// Unsubscribe frees the volunteer's seat. It is refused once the volunteer
// has checked in.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, volunteer domain.Member, eventID, jobID string) error {
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return mapDomainError(err)
	}

	var payload events.SubscriptionPayload
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.loadLedger(ctx, event); err != nil {
			return err
		}
		att, err := domain.CheckUnsubscribe(event, jobID, volunteer.ID)
		if err != nil {
			return err
		}
		deleted, err := s.attendances.DeleteIfNotCheckedIn(ctx, att.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrAlreadyCheckedIn
		}
		job, _ := event.Job(jobID)
		payload = events.SubscriptionPayload{
			JobID:       jobID,
			VolunteerID: volunteer.ID,
			Filled:      job.FilledCount() - 1,
			Capacity:    job.TotalCapacity(),
		}
		return s.record(ctx, eventID, &volunteer, domain.ChangeTypeUnsubscribe,
			map[string]any{"job_id": jobID, "volunteer_id": volunteer.ID}, nil)
	})
	if err != nil {
		return mapDomainError(err)
	}

	s.logger.Info("volunteer unsubscribed",
		zap.String("event_id", eventID),
		zap.String("job_id", jobID),
		zap.String("actor_id", volunteer.ID))
	s.publish(ctx, []events.Event{{
		Type:    events.JobUnsubscribed,
		EventID: eventID,
		Actor:   memberActor(volunteer),
		Payload: payload,
	}})
	return nil
}
