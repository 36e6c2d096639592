package events

import (
	"time"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// EventType enumerates supported domain event identifiers.
type EventType string

const (
	EventCreated        EventType = "event_created"
	EventUpdated        EventType = "event_updated"
	EventStatusChanged  EventType = "event_status_changed"
	JobSubscribed       EventType = "job_subscribed"
	JobUnsubscribed     EventType = "job_unsubscribed"
	VolunteerCheckedIn  EventType = "volunteer_checked_in"
	VolunteerCheckedOut EventType = "volunteer_checked_out"
)

// Actor encapsulates actor metadata for a domain event.
type Actor struct {
	Type     domain.ActorType `json:"type"`
	MemberID *string          `json:"member_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EventID   string      `json:"event_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EventCreatedPayload payload.
type EventCreatedPayload struct {
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	StartAt     time.Time `json:"start_at"`
	JobCount    int       `json:"job_count"`
}

// EventStatusChangedPayload payload.
type EventStatusChangedPayload struct {
	OldStatus  domain.EventStatus `json:"old_status"`
	NewStatus  domain.EventStatus `json:"new_status"`
	Transition domain.Transition  `json:"transition"`
}

// SubscriptionPayload is shared by subscribe and unsubscribe.
type SubscriptionPayload struct {
	JobID       string `json:"job_id"`
	VolunteerID string `json:"volunteer_id"`
	Filled      int    `json:"filled"`
	Capacity    int    `json:"capacity"`
}

// AttendancePayload is shared by check-in and check-out.
type AttendancePayload struct {
	JobID       string    `json:"job_id"`
	VolunteerID string    `json:"volunteer_id"`
	At          time.Time `json:"at"`
}
