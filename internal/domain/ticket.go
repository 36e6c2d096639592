package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// TicketAction is the attendance action a ticket requests.
type TicketAction string

const (
	TicketActionCheckIn  TicketAction = "check-in"
	TicketActionCheckOut TicketAction = "check-out"
)

// Valid reports whether a is one of the two ticket actions.
func (a TicketAction) Valid() bool {
	return a == TicketActionCheckIn || a == TicketActionCheckOut
}

// Ticket is the ephemeral, scannable request for the next attendance
// action of one volunteer at one event. It is never stored.
type Ticket struct {
	Action      TicketAction
	EventID     string
	VolunteerID string
}

const maxTicketLength = 256

// Id segments are path-escaped, so they never contain '/', '?', '#' or spaces.
var ticketPattern = regexp.MustCompile(`^/event/([^/?#\s]+)/(check-in|check-out)/([^/?#\s]+)$`)

// Encode serializes the ticket into its path form, e.g.
// /event/{eventId}/check-in/{volunteerId}. Ids are path-escaped, so
// subjects such as auth0|42 survive the round trip.
func (t Ticket) Encode() string {
	return fmt.Sprintf("/event/%s/%s/%s", url.PathEscape(t.EventID), t.Action, url.PathEscape(t.VolunteerID))
}

func (t Ticket) String() string {
	return t.Encode()
}

// ParseTicket decodes a scanned ticket. Surrounding whitespace from the
// scanner is ignored; anything else outside the two-action grammar is
// rejected with ErrMalformedTicket.
func ParseTicket(encoded string) (Ticket, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" || len(encoded) > maxTicketLength {
		return Ticket{}, ErrMalformedTicket
	}
	m := ticketPattern.FindStringSubmatch(encoded)
	if m == nil {
		return Ticket{}, ErrMalformedTicket
	}
	eventID, err := unescapeTicketSegment(m[1])
	if err != nil {
		return Ticket{}, err
	}
	volunteerID, err := unescapeTicketSegment(m[3])
	if err != nil {
		return Ticket{}, err
	}
	return Ticket{
		EventID:     eventID,
		Action:      TicketAction(m[2]),
		VolunteerID: volunteerID,
	}, nil
}

func unescapeTicketSegment(segment string) (string, error) {
	id, err := url.PathUnescape(segment)
	if err != nil || strings.TrimSpace(id) == "" {
		return "", ErrMalformedTicket
	}
	return id, nil
}

// IssueTicket derives the ticket for the attendance's next expected action.
// The second return is false when both stamps are set.
func IssueTicket(eventID string, att *Attendance) (Ticket, bool) {
	if att == nil {
		return Ticket{}, false
	}
	action, ok := att.NextAction()
	if !ok {
		return Ticket{}, false
	}
	return Ticket{Action: action, EventID: eventID, VolunteerID: att.VolunteerID}, true
}

// CheckRedeem validates a parsed ticket against the event and the stored
// attendance. Status is checked before the expected action so callers can
// tell "not started" from "already used".
func CheckRedeem(event *Event, att *Attendance, ticket Ticket) error {
	if event.Status != EventStatusInProgress {
		return &EventNotActiveError{Status: event.Status}
	}
	if att == nil {
		return ErrNotSubscribed
	}
	expected, ok := att.NextAction()
	if !ok {
		return ErrAlreadyCheckedOut
	}
	if expected != ticket.Action {
		return ErrStaleTicket
	}
	return nil
}
