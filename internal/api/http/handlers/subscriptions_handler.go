package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/volunteer-events/internal/api/dto"
)

// SubscriptionsHandler lets volunteers take and leave roles.
type SubscriptionsHandler struct {
	service SubscriptionService
}

// NewSubscriptionsHandler constructs handler.
func NewSubscriptionsHandler(svc SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{service: svc}
}

// Subscribe POST /events/:id/jobs/:jobId/subscription.
func (h *SubscriptionsHandler) Subscribe(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	sub, err := h.service.Subscribe(c.UserContext(), member, c.Params("id"), c.Params("jobId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SubscriptionResponse{
		Attendance: attendanceResponse(sub.Attendance),
		Filled:     sub.Filled,
		Capacity:   sub.Capacity,
	}})
}

// Unsubscribe DELETE /events/:id/jobs/:jobId/subscription.
func (h *SubscriptionsHandler) Unsubscribe(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	if err := h.service.Unsubscribe(c.UserContext(), member, c.Params("id"), c.Params("jobId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
