package dto

import (
	"time"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// CreateEventRequest payload.
type CreateEventRequest struct {
	Title       string       `json:"title" validate:"notblank,max=200"`
	Description string       `json:"description" validate:"max=5000"`
	Address     string       `json:"address" validate:"max=500"`
	StartAt     time.Time    `json:"start_at" validate:"required"`
	EndAt       time.Time    `json:"end_at" validate:"required,gtfield=StartAt"`
	Jobs        []JobRequest `json:"jobs" validate:"required,min=1,dive"`
}

// UpdateEventRequest payload.
type UpdateEventRequest struct {
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Address     string    `json:"address" validate:"max=500"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	EndAt       time.Time `json:"end_at" validate:"required,gtfield=StartAt"`
}

// JobRequest describes a role.
type JobRequest struct {
	Title         string `json:"title" validate:"notblank,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	MaxVolunteers int    `json:"max_volunteers" validate:"required,min=1"`
}

// EventResponse describes an event with its roles.
type EventResponse struct {
	ID          string             `json:"id"`
	OrganizerID string             `json:"organizer_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Address     string             `json:"address"`
	StartAt     time.Time          `json:"start_at"`
	EndAt       time.Time          `json:"end_at"`
	Status      domain.EventStatus `json:"status"`
	Jobs        []JobResponse      `json:"jobs"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// JobResponse describes a role and its fill.
type JobResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Filled       int                  `json:"filled"`
	Capacity     int                  `json:"capacity"`
	Subscribable *bool                `json:"subscribable,omitempty"`
	Volunteers   []AttendanceResponse `json:"volunteers,omitempty"`
}

// EventViewResponse is what the caller sees when opening an event.
type EventViewResponse struct {
	Event      EventResponse       `json:"event"`
	Role       domain.Role         `json:"role"`
	Actions    []domain.Action     `json:"actions"`
	Attendance *AttendanceResponse `json:"attendance,omitempty"`
	Ticket     *TicketResponse     `json:"ticket,omitempty"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID            string                 `json:"id"`
	ChangedByType domain.ActorType       `json:"changed_by_type"`
	ChangedByID   *string                `json:"changed_by_id"`
	ChangeType    domain.EventChangeType `json:"change_type"`
	OldValue      map[string]any         `json:"old_value,omitempty"`
	NewValue      map[string]any         `json:"new_value,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}
