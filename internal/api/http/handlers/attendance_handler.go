package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/volunteer-events/internal/api/dto"
	"github.com/spec-kit/volunteer-events/internal/service"
	apperrors "github.com/spec-kit/volunteer-events/pkg/util"
)

// AttendanceHandler serves tickets and applies scans.
type AttendanceHandler struct {
	service AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// GetTicket GET /events/:id/ticket. Data is null once both stamps are set.
func (h *AttendanceHandler) GetTicket(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	ticket, ok, err := h.service.IssueTicket(c.UserContext(), member, c.Params("id"))
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// RedeemTicket POST /tickets/redeem.
func (h *AttendanceHandler) RedeemTicket(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	var req dto.RedeemTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	redemption, err := h.service.RedeemTicket(c.UserContext(), member, req.Ticket)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": redemptionResponse(redemption)})
}

// CheckIn POST /event/:id/check-in/:volunteerId.
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	eventID, volunteerID, err := ticketParams(c)
	if err != nil {
		return err
	}
	redemption, err := h.service.CheckIn(c.UserContext(), member, eventID, volunteerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": redemptionResponse(redemption)})
}

// CheckOut POST /event/:id/check-out/:volunteerId.
func (h *AttendanceHandler) CheckOut(c *fiber.Ctx) error {
	member, err := currentMember(c)
	if err != nil {
		return err
	}
	eventID, volunteerID, err := ticketParams(c)
	if err != nil {
		return err
	}
	redemption, err := h.service.CheckOut(c.UserContext(), member, eventID, volunteerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": redemptionResponse(redemption)})
}

// ticketParams reads the ids of a posted ticket path. They arrive
// path-escaped as produced by Ticket.Encode.
func ticketParams(c *fiber.Ctx) (string, string, error) {
	eventID, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid event id", nil)
	}
	volunteerID, err := url.PathUnescape(c.Params("volunteerId"))
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid volunteer id", nil)
	}
	return eventID, volunteerID, nil
}

func redemptionResponse(r *service.Redemption) dto.RedemptionResponse {
	resp := dto.RedemptionResponse{
		Redeemed:   ticketResponse(r.Ticket),
		Attendance: attendanceResponse(r.Attendance),
	}
	if r.Next != nil {
		next := ticketResponse(*r.Next)
		resp.Next = &next
	}
	return resp
}
