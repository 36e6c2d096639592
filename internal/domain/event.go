package domain

import "time"

// EventStatus enumerates lifecycle states for events.
type EventStatus string

const (
	EventStatusOpen       EventStatus = "OPEN"
	EventStatusInProgress EventStatus = "IN_PROGRESS"
	EventStatusCompleted  EventStatus = "COMPLETED"
	EventStatusCanceled   EventStatus = "CANCELED"
)

// Valid reports whether s is one of the four known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusOpen, EventStatusInProgress, EventStatusCompleted, EventStatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusCanceled
}

// Event is a scheduled volunteering activity.
type Event struct {
	ID          string
	OrganizerID string
	Title       string
	Description string
	Address     string
	StartAt     time.Time
	EndAt       time.Time
	Status      EventStatus
	Jobs        []Job
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Job returns the job with the given id, if it belongs to the event.
func (e *Event) Job(jobID string) (*Job, bool) {
	for i := range e.Jobs {
		if e.Jobs[i].ID == jobID {
			return &e.Jobs[i], true
		}
	}
	return nil, false
}

// AttendanceOf returns the volunteer's attendance across all jobs of the event.
func (e *Event) AttendanceOf(volunteerID string) (*Attendance, *Job, bool) {
	for i := range e.Jobs {
		if att, ok := e.Jobs[i].AttendanceOf(volunteerID); ok {
			return att, &e.Jobs[i], true
		}
	}
	return nil, nil, false
}

// Member is the identity of a caller as handed over by the identity provider.
type Member struct {
	ID       string
	FullName string
}
