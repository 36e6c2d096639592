package domain

import (
	"sort"
	"time"
)

// Role is the caller's relation to an event.
type Role string

const (
	RoleOrganizer Role = "ORGANIZER"
	RoleVolunteer Role = "VOLUNTEER"
)

// RoleFor returns the role a member plays on the event.
func RoleFor(e *Event, memberID string) Role {
	if memberID != "" && e.OrganizerID == memberID {
		return RoleOrganizer
	}
	return RoleVolunteer
}

// Action is a user-facing operation that may be enabled or disabled.
type Action string

const (
	ActionView            Action = "view"
	ActionEdit            Action = "edit"
	ActionCancel          Action = "cancel"
	ActionStart           Action = "start"
	ActionEnd             Action = "end"
	ActionScanTickets     Action = "scan_tickets"
	ActionSubscribe       Action = "subscribe"
	ActionUnsubscribe     Action = "unsubscribe"
	ActionViewTicket      Action = "view_ticket"
	ActionRedeemOwnTicket Action = "redeem_own_ticket"
)

// ActionSet is the set of currently enabled actions.
type ActionSet map[Action]struct{}

func newActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// Has reports whether a is enabled.
func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// List returns the enabled actions in a stable order.
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EnabledActions computes which actions the role may perform at now. It is
// derived from the clock on every call and must not be cached.
func EnabledActions(e *Event, role Role, now time.Time, w LifecycleWindows) ActionSet {
	status := EffectiveStatus(e, now, w)
	set := newActionSet(ActionView)

	switch status {
	case EventStatusOpen:
		if role == RoleOrganizer {
			set[ActionEdit] = struct{}{}
			set[ActionCancel] = struct{}{}
			if StartWindowOpen(e, now, w) {
				set[ActionStart] = struct{}{}
			}
		} else {
			set[ActionSubscribe] = struct{}{}
			set[ActionUnsubscribe] = struct{}{}
		}
	case EventStatusInProgress:
		if role == RoleOrganizer {
			set[ActionScanTickets] = struct{}{}
			set[ActionCancel] = struct{}{}
			if EndWindowOpen(e, now) {
				set[ActionEnd] = struct{}{}
			}
		} else {
			set[ActionViewTicket] = struct{}{}
			set[ActionRedeemOwnTicket] = struct{}{}
		}
	case EventStatusCompleted:
		if role == RoleVolunteer {
			set[ActionViewTicket] = struct{}{}
		}
	}
	return set
}

// JobSubscribable reports whether a volunteer could take the job right now.
func JobSubscribable(job *Job, actions ActionSet) bool {
	return actions.Has(ActionSubscribe) && job.HasCapacity()
}
