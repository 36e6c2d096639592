package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound              = errors.New("event not found")
	ErrJobNotFound                = errors.New("job not found")
	ErrEventNotOpen               = errors.New("event not open")
	ErrCapacityExceeded           = errors.New("capacity exceeded")
	ErrAlreadySubscribed          = errors.New("already subscribed")
	ErrAlreadySubscribedElsewhere = errors.New("already subscribed elsewhere")
	ErrNotSubscribed              = errors.New("not subscribed")
	ErrAlreadyCheckedIn           = errors.New("already checked in")
	ErrMalformedTicket            = errors.New("malformed ticket")
	ErrStaleTicket                = errors.New("stale ticket")
	ErrAlreadyCheckedOut          = errors.New("already checked out")
	ErrInvalidCapacity            = errors.New("invalid capacity")
	ErrCapacityBelowFilled        = errors.New("capacity below filled count")
	ErrInvalidSchedule            = errors.New("invalid schedule")
	ErrNotOrganizer               = errors.New("not the organizer")
	ErrOrganizerCannotSubscribe   = errors.New("organizer cannot subscribe")
	ErrNotTicketHolder            = errors.New("not the ticket holder")
)

// InvalidTransitionError reports a state machine guard failure.
type InvalidTransitionError struct {
	Status     EventStatus
	Transition Transition
	Reason     string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s event in status %s: %s", e.Transition, e.Status, e.Reason)
	}
	return fmt.Sprintf("cannot %s event in status %s", e.Transition, e.Status)
}

// EventNotActiveError rejects ticket redemption outside IN_PROGRESS.
type EventNotActiveError struct {
	Status EventStatus
}

func (e *EventNotActiveError) Error() string {
	return fmt.Sprintf("event not active: %s", e.Status)
}
