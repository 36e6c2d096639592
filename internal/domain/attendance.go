package domain

import "time"

// Attendance records a volunteer's subscription to a job and the
// physical check-in/check-out stamps applied by ticket redemption.
type Attendance struct {
	ID          string
	EventID     string
	JobID       string
	VolunteerID string
	FullName    string
	CheckInAt   *time.Time
	CheckOutAt  *time.Time
	CreatedAt   time.Time
}

// NextAction derives the action the attendance currently expects. The
// second return is false once both stamps are set.
func (a *Attendance) NextAction() (TicketAction, bool) {
	switch {
	case a.CheckInAt == nil:
		return TicketActionCheckIn, true
	case a.CheckOutAt == nil:
		return TicketActionCheckOut, true
	default:
		return "", false
	}
}

// Apply stamps the attendance for the given action. Stamps are one-way.
func (a *Attendance) Apply(action TicketAction, at time.Time) error {
	expected, ok := a.NextAction()
	if !ok {
		return ErrAlreadyCheckedOut
	}
	if expected != action {
		return ErrStaleTicket
	}
	stamp := at
	switch action {
	case TicketActionCheckIn:
		a.CheckInAt = &stamp
	case TicketActionCheckOut:
		if !at.After(*a.CheckInAt) {
			return ErrStaleTicket
		}
		a.CheckOutAt = &stamp
	}
	return nil
}
