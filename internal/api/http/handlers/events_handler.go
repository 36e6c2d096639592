package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/volunteer-events/internal/api/dto"
	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/service"
)

// EventsHandler manages event lifecycle endpoints.
type EventsHandler struct {
	service EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(svc EventService) *EventsHandler {
	return &EventsHandler{service: svc}
}

// CreateEvent POST /events.
func (h *EventsHandler) CreateEvent(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	var req dto.CreateEventRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	input := service.CreateEventInput{
		EventDetailsInput: service.EventDetailsInput{
			Title:       req.Title,
			Description: req.Description,
			Address:     req.Address,
			StartAt:     req.StartAt,
			EndAt:       req.EndAt,
		},
		Jobs: make([]service.JobInput, 0, len(req.Jobs)),
	}
	for _, job := range req.Jobs {
		input.Jobs = append(input.Jobs, service.JobInput{
			Title:         job.Title,
			Description:   job.Description,
			MaxVolunteers: job.MaxVolunteers,
		})
	}
	event, err := h.service.CreateEvent(c.UserContext(), member, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": eventResponse(event)})
}

// GetEvent GET /events/:id.
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	view, err := h.service.GetEventView(c.UserContext(), member, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventViewResponse(view)})
}

// UpdateEvent PATCH /events/:id.
func (h *EventsHandler) UpdateEvent(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEventRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	event, err := h.service.UpdateEventDetails(c.UserContext(), member, c.Params("id"), service.EventDetailsInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// StartEvent POST /events/:id/start.
func (h *EventsHandler) StartEvent(c *fiber.Ctx) error {
	return h.transition(c, domain.TransitionStart)
}

// EndEvent POST /events/:id/end.
func (h *EventsHandler) EndEvent(c *fiber.Ctx) error {
	return h.transition(c, domain.TransitionEnd)
}

// CancelEvent POST /events/:id/cancel.
func (h *EventsHandler) CancelEvent(c *fiber.Ctx) error {
	return h.transition(c, domain.TransitionCancel)
}

func (h *EventsHandler) transition(c *fiber.Ctx, transition domain.Transition) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	var event *domain.Event
	switch transition {
	case domain.TransitionStart:
		event, err = h.service.Start(c.UserContext(), member, c.Params("id"))
	case domain.TransitionEnd:
		event, err = h.service.End(c.UserContext(), member, c.Params("id"))
	default:
		event, err = h.service.Cancel(c.UserContext(), member, c.Params("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// ListHistory GET /events/:id/history.
func (h *EventsHandler) ListHistory(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), member, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponse(entries)})
}

// AddJob POST /events/:id/jobs.
func (h *EventsHandler) AddJob(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	var req dto.JobRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	job, err := h.service.AddJob(c.UserContext(), member, c.Params("id"), service.JobInput{
		Title:         req.Title,
		Description:   req.Description,
		MaxVolunteers: req.MaxVolunteers,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": jobResponse(job)})
}

// UpdateJob PATCH /events/:id/jobs/:jobId.
func (h *EventsHandler) UpdateJob(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	var req dto.JobRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	job, err := h.service.UpdateJob(c.UserContext(), member, c.Params("id"), c.Params("jobId"), service.JobInput{
		Title:         req.Title,
		Description:   req.Description,
		MaxVolunteers: req.MaxVolunteers,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobResponse(job)})
}
