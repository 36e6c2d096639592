package dto

import (
	"time"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// RedeemTicketRequest carries a scanned ticket.
type RedeemTicketRequest struct {
	Ticket string `json:"ticket" validate:"notblank,max=256"`
}

// AttendanceResponse describes a volunteer's seat and stamps.
type AttendanceResponse struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	VolunteerID string     `json:"volunteer_id"`
	FullName    string     `json:"full_name"`
	CheckInAt   *time.Time `json:"check_in_at"`
	CheckOutAt  *time.Time `json:"check_out_at"`
}

// TicketResponse is a ticket in both structured and scannable form.
type TicketResponse struct {
	Action      domain.TicketAction `json:"action"`
	EventID     string              `json:"event_id"`
	VolunteerID string              `json:"volunteer_id"`
	Code        string              `json:"code"`
}

// RedemptionResponse is the outcome of a scan.
type RedemptionResponse struct {
	Redeemed   TicketResponse     `json:"redeemed"`
	Attendance AttendanceResponse `json:"attendance"`
	Next       *TicketResponse    `json:"next,omitempty"`
}

// SubscriptionResponse is the outcome of taking a role.
type SubscriptionResponse struct {
	Attendance AttendanceResponse `json:"attendance"`
	Filled     int                `json:"filled"`
	Capacity   int                `json:"capacity"`
}
