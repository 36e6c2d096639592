package domain

import "time"

// Transition names an operation on the event state machine.
type Transition string

const (
	TransitionStart        Transition = "start"
	TransitionEnd          Transition = "end"
	TransitionCancel       Transition = "cancel"
	TransitionAutoComplete Transition = "auto-complete"
)

// LifecycleWindows are the wall-clock tolerances around the schedule.
type LifecycleWindows struct {
	// StartLead is how long before the scheduled start an event may be started.
	StartLead time.Duration
	// StartGrace is how long after the scheduled end an event may still be started.
	StartGrace time.Duration
	// AutoCompleteGrace is how long after the scheduled end an event is forced to COMPLETED.
	AutoCompleteGrace time.Duration
}

// DefaultLifecycleWindows returns two hours for every window.
func DefaultLifecycleWindows() LifecycleWindows {
	return LifecycleWindows{
		StartLead:         2 * time.Hour,
		StartGrace:        2 * time.Hour,
		AutoCompleteGrace: 2 * time.Hour,
	}
}

var allowedTransitions = map[EventStatus]map[Transition]EventStatus{
	EventStatusOpen: {
		TransitionStart:        EventStatusInProgress,
		TransitionCancel:       EventStatusCanceled,
		TransitionAutoComplete: EventStatusCompleted,
	},
	EventStatusInProgress: {
		TransitionEnd:          EventStatusCompleted,
		TransitionCancel:       EventStatusCanceled,
		TransitionAutoComplete: EventStatusCompleted,
	},
	EventStatusCompleted: {},
	EventStatusCanceled:  {},
}

// NextStatus returns the target of a transition from the given status.
func NextStatus(current EventStatus, transition Transition) (EventStatus, bool) {
	next, ok := allowedTransitions[current][transition]
	return next, ok
}

// StartWindowOpen reports whether now is within [start-lead, end+grace).
func StartWindowOpen(e *Event, now time.Time, w LifecycleWindows) bool {
	opens := e.StartAt.Add(-w.StartLead)
	closes := e.EndAt.Add(w.StartGrace)
	return !now.Before(opens) && now.Before(closes)
}

// EndWindowOpen reports whether now is at or after the scheduled start.
func EndWindowOpen(e *Event, now time.Time) bool {
	return !now.Before(e.StartAt)
}

// IsLapsed reports whether the event must be forced to COMPLETED.
// Canceled events are terminal and never lapse.
func IsLapsed(e *Event, now time.Time, w LifecycleWindows) bool {
	if e.Status != EventStatusOpen && e.Status != EventStatusInProgress {
		return false
	}
	return !now.Before(e.EndAt.Add(w.AutoCompleteGrace))
}

// EffectiveStatus is the status a reader should observe at now.
func EffectiveStatus(e *Event, now time.Time, w LifecycleWindows) EventStatus {
	if IsLapsed(e, now, w) {
		return EventStatusCompleted
	}
	return e.Status
}

// CheckTransition runs the guard for an operator transition and returns
// the target status. Authorization of the actor is the caller's concern.
func CheckTransition(e *Event, transition Transition, now time.Time, w LifecycleWindows) (EventStatus, error) {
	next, ok := NextStatus(e.Status, transition)
	if !ok || transition == TransitionAutoComplete {
		return "", &InvalidTransitionError{Status: e.Status, Transition: transition}
	}
	switch transition {
	case TransitionStart:
		if !StartWindowOpen(e, now, w) {
			return "", &InvalidTransitionError{Status: e.Status, Transition: transition, Reason: "outside the start window"}
		}
	case TransitionEnd:
		if !EndWindowOpen(e, now) {
			return "", &InvalidTransitionError{Status: e.Status, Transition: transition, Reason: "event has not reached its scheduled start"}
		}
	}
	return next, nil
}

// ValidateSchedule checks that an event ends after it starts.
func ValidateSchedule(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return ErrInvalidSchedule
	}
	return nil
}
