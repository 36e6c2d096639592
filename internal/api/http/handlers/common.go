package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/volunteer-events/internal/api/dto"
	"github.com/spec-kit/volunteer-events/internal/auth"
	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/service"
	apperrors "github.com/spec-kit/volunteer-events/pkg/util"
)

// EventService is the lifecycle surface used by EventsHandler.
type EventService interface {
	CreateEvent(ctx context.Context, organizer domain.Member, input service.CreateEventInput) (*domain.Event, error)
	UpdateEventDetails(ctx context.Context, actor domain.Member, eventID string, input service.EventDetailsInput) (*domain.Event, error)
	AddJob(ctx context.Context, actor domain.Member, eventID string, input service.JobInput) (*domain.Job, error)
	UpdateJob(ctx context.Context, actor domain.Member, eventID, jobID string, input service.JobInput) (*domain.Job, error)
	Start(ctx context.Context, actor domain.Member, eventID string) (*domain.Event, error)
	End(ctx context.Context, actor domain.Member, eventID string) (*domain.Event, error)
	Cancel(ctx context.Context, actor domain.Member, eventID string) (*domain.Event, error)
	GetEventView(ctx context.Context, viewer domain.Member, eventID string) (*service.EventView, error)
	ListHistory(ctx context.Context, actor domain.Member, eventID string) ([]domain.EventHistory, error)
}

// SubscriptionService is the capacity ledger surface.
type SubscriptionService interface {
	Subscribe(ctx context.Context, volunteer domain.Member, eventID, jobID string) (*service.Subscription, error)
	Unsubscribe(ctx context.Context, volunteer domain.Member, eventID, jobID string) error
}

// AttendanceService is the ticket surface.
type AttendanceService interface {
	IssueTicket(ctx context.Context, viewer domain.Member, eventID string) (domain.Ticket, bool, error)
	RedeemTicket(ctx context.Context, actor domain.Member, encoded string) (*service.Redemption, error)
	CheckIn(ctx context.Context, actor domain.Member, eventID, volunteerID string) (*service.Redemption, error)
	CheckOut(ctx context.Context, actor domain.Member, eventID, volunteerID string) (*service.Redemption, error)
}

func currentMember(c *fiber.Ctx) (domain.Member, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Member{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Member, nil
}

func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validateRequest(req)
}

func eventResponse(e *domain.Event) dto.EventResponse {
	resp := dto.EventResponse{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Description: e.Description,
		Address:     e.Address,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		Status:      e.Status,
		Jobs:        make([]dto.JobResponse, 0, len(e.Jobs)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for i := range e.Jobs {
		resp.Jobs = append(resp.Jobs, jobResponse(&e.Jobs[i]))
	}
	return resp
}

func jobResponse(j *domain.Job) dto.JobResponse {
	return dto.JobResponse{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Filled:      j.FilledCount(),
		Capacity:    j.TotalCapacity(),
	}
}

func eventViewResponse(view *service.EventView) dto.EventViewResponse {
	resp := dto.EventViewResponse{
		Event:   eventResponse(view.Event),
		Role:    view.Role,
		Actions: view.Actions.List(),
	}
	for i := range view.Event.Jobs {
		job := &view.Event.Jobs[i]
		switch view.Role {
		case domain.RoleOrganizer:
			volunteers := make([]dto.AttendanceResponse, 0, len(job.Subscribed))
			for j := range job.Subscribed {
				volunteers = append(volunteers, attendanceResponse(&job.Subscribed[j]))
			}
			resp.Event.Jobs[i].Volunteers = volunteers
		default:
			subscribable := view.Subscribable[job.ID]
			resp.Event.Jobs[i].Subscribable = &subscribable
		}
	}
	if view.Attendance != nil {
		att := attendanceResponse(view.Attendance)
		resp.Attendance = &att
	}
	if view.Ticket != nil {
		ticket := ticketResponse(*view.Ticket)
		resp.Ticket = &ticket
	}
	return resp
}

func attendanceResponse(a *domain.Attendance) dto.AttendanceResponse {
	return dto.AttendanceResponse{
		ID:          a.ID,
		JobID:       a.JobID,
		VolunteerID: a.VolunteerID,
		FullName:    a.FullName,
		CheckInAt:   a.CheckInAt,
		CheckOutAt:  a.CheckOutAt,
	}
}

func ticketResponse(t domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		Action:      t.Action,
		EventID:     t.EventID,
		VolunteerID: t.VolunteerID,
		Code:        t.Encode(),
	}
}

func historyResponse(entries []domain.EventHistory) []dto.HistoryEntryResponse {
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, h := range entries {
		items = append(items, dto.HistoryEntryResponse{
			ID:            h.ID,
			ChangedByType: h.ChangedByType,
			ChangedByID:   h.ChangedByID,
			ChangeType:    h.ChangeType,
			OldValue:      h.OldValue,
			NewValue:      h.NewValue,
			CreatedAt:     h.CreatedAt,
		})
	}
	return items
}
