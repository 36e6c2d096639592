package domain

import "time"

// ActorType indicates who caused a history entry.
type ActorType string

const (
	ActorTypeMember ActorType = "MEMBER"
	ActorTypeSystem ActorType = "SYSTEM"
)

// EventChangeType captures what changed in a history entry.
type EventChangeType string

const (
	ChangeTypeCreated     EventChangeType = "CREATED"
	ChangeTypeDetails     EventChangeType = "DETAILS_CHANGE"
	ChangeTypeStatus      EventChangeType = "STATUS_CHANGE"
	ChangeTypeJob         EventChangeType = "JOB_CHANGE"
	ChangeTypeSubscribe   EventChangeType = "SUBSCRIBE"
	ChangeTypeUnsubscribe EventChangeType = "UNSUBSCRIBE"
	ChangeTypeCheckIn     EventChangeType = "CHECK_IN"
	ChangeTypeCheckOut    EventChangeType = "CHECK_OUT"
)

// EventHistory is an immutable audit trail entry.
type EventHistory struct {
	ID            string
	EventID       string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    EventChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
