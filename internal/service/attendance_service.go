package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
)

// AttendanceService issues and redeems check-in/check-out tickets.
type AttendanceService struct {
	base
}

// Redemption is the result of applying a ticket.
type Redemption struct {
	Ticket     domain.Ticket
	Attendance *domain.Attendance
	// Next is the ticket the volunteer should present next, if any.
	Next *domain.Ticket
}

// NewAttendanceService constructs the service.
func NewAttendanceService(deps Dependencies) *AttendanceService {
	return &AttendanceService{base: newBase(deps)}
}

// IssueTicket returns the viewer's own ticket for the event. The second
// return is false once the volunteer has checked in and out.
func (s *AttendanceService) IssueTicket(ctx context.Context, viewer domain.Member, eventID string) (domain.Ticket, bool, error) {
	if _, err := s.completeIfLapsed(ctx, eventID); err != nil {
		return domain.Ticket{}, false, mapDomainError(err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return domain.Ticket{}, false, mapDomainError(err)
	}
	now := s.clock.Now()
	event.Status = domain.EffectiveStatus(event, now, s.windows)

	att, err := s.attendances.FindByVolunteer(ctx, eventID, viewer.ID)
	if err != nil {
		return domain.Ticket{}, false, mapDomainError(err)
	}
	if att == nil {
		return domain.Ticket{}, false, mapDomainError(domain.ErrNotSubscribed)
	}
	actions := domain.EnabledActions(event, domain.RoleFor(event, viewer.ID), now, s.windows)
	if !actions.Has(domain.ActionViewTicket) {
		return domain.Ticket{}, false, mapDomainError(&domain.EventNotActiveError{Status: event.Status})
	}

	ticket, ok := domain.IssueTicket(eventID, att)
	return ticket, ok, nil
}

// RedeemTicket parses a scanned ticket and applies it.
func (s *AttendanceService) RedeemTicket(ctx context.Context, actor domain.Member, encoded string) (*Redemption, error) {
	ticket, err := domain.ParseTicket(encoded)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return s.redeem(ctx, actor, ticket)
}

// CheckIn redeems the check-in ticket of the volunteer.
func (s *AttendanceService) CheckIn(ctx context.Context, actor domain.Member, eventID, volunteerID string) (*Redemption, error) {
	return s.RedeemTicket(ctx, actor, domain.Ticket{
		Action:      domain.TicketActionCheckIn,
		EventID:     eventID,
		VolunteerID: volunteerID,
	}.Encode())
}

// CheckOut redeems the check-out ticket of the volunteer.
func (s *AttendanceService) CheckOut(ctx context.Context, actor domain.Member, eventID, volunteerID string) (*Redemption, error) {
	return s.RedeemTicket(ctx, actor, domain.Ticket{
		Action:      domain.TicketActionCheckOut,
		EventID:     eventID,
		VolunteerID: volunteerID,
	}.Encode())
}

// redeem applies the ticket under the event and attendance row locks. The
// stamp update is a compare-and-set, so of two concurrent scans of the same
// ticket exactly one wins and the other sees StaleTicket.
func (s *AttendanceService) redeem(ctx context.Context, actor domain.Member, ticket domain.Ticket) (*Redemption, error) {
	if _, err := s.completeIfLapsed(ctx, ticket.EventID); err != nil {
		return nil, mapDomainError(err)
	}

	var att *domain.Attendance
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.lockEvent(ctx, ticket.EventID)
		if err != nil {
			return err
		}
		if event.Status != domain.EventStatusInProgress {
			return &domain.EventNotActiveError{Status: event.Status}
		}
		if domain.RoleFor(event, actor.ID) != domain.RoleOrganizer && ticket.VolunteerID != actor.ID {
			return domain.ErrNotTicketHolder
		}

		att, err = s.attendances.FindByVolunteerForUpdate(ctx, event.ID, ticket.VolunteerID)
		if err != nil {
			return err
		}
		if err := domain.CheckRedeem(event, att, ticket); err != nil {
			return err
		}

		now := s.clock.Now()
		var applied bool
		switch ticket.Action {
		case domain.TicketActionCheckIn:
			applied, err = s.attendances.SetCheckIn(ctx, att.ID, now)
		case domain.TicketActionCheckOut:
			if !now.After(*att.CheckInAt) {
				return domain.ErrStaleTicket
			}
			applied, err = s.attendances.SetCheckOut(ctx, att.ID, now)
		}
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrStaleTicket
		}
		if err := att.Apply(ticket.Action, now); err != nil {
			return err
		}

		change := domain.ChangeTypeCheckIn
		if ticket.Action == domain.TicketActionCheckOut {
			change = domain.ChangeTypeCheckOut
		}
		return s.record(ctx, event.ID, &actor, change, nil, map[string]any{
			"volunteer_id": att.VolunteerID,
			"job_id":       att.JobID,
			"at":           now,
		})
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	eventType := events.VolunteerCheckedIn
	at := *att.CheckInAt
	if ticket.Action == domain.TicketActionCheckOut {
		eventType = events.VolunteerCheckedOut
		at = *att.CheckOutAt
	}
	s.logger.Info("ticket redeemed",
		zap.String("event_id", ticket.EventID),
		zap.String("volunteer_id", ticket.VolunteerID),
		zap.String("actor_id", actor.ID),
		zap.String("action", string(ticket.Action)))
	s.publish(ctx, []events.Event{{
		Type:    eventType,
		EventID: ticket.EventID,
		Actor:   memberActor(actor),
		Payload: events.AttendancePayload{JobID: att.JobID, VolunteerID: att.VolunteerID, At: at},
	}})

	redemption := &Redemption{Ticket: ticket, Attendance: att}
	if next, ok := domain.IssueTicket(ticket.EventID, att); ok {
		redemption.Next = &next
	}
	return redemption, nil
}
