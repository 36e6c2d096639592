package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/volunteer-events/internal/domain"
	apperrors "github.com/spec-kit/volunteer-events/pkg/util"
)

type errorSpec struct {
	code    string
	message string
	status  int
}

var sentinelErrors = []struct {
	err  error
	spec errorSpec
}{
	{domain.ErrEventNotFound, errorSpec{"EVENT_NOT_FOUND", "event not found", http.StatusNotFound}},
	{domain.ErrJobNotFound, errorSpec{"JOB_NOT_FOUND", "role not found", http.StatusNotFound}},
	{domain.ErrEventNotOpen, errorSpec{"EVENT_NOT_OPEN", "event is no longer open for subscriptions", http.StatusConflict}},
	{domain.ErrCapacityExceeded, errorSpec{"CAPACITY_EXCEEDED", "this role is already filled", http.StatusConflict}},
	{domain.ErrAlreadySubscribed, errorSpec{"ALREADY_SUBSCRIBED", "you are already subscribed to this role", http.StatusConflict}},
	{domain.ErrAlreadySubscribedElsewhere, errorSpec{"ALREADY_SUBSCRIBED_ELSEWHERE", "you are already subscribed to another role in this event", http.StatusConflict}},
	{domain.ErrNotSubscribed, errorSpec{"NOT_SUBSCRIBED", "you are not subscribed to this role", http.StatusNotFound}},
	{domain.ErrAlreadyCheckedIn, errorSpec{"ALREADY_CHECKED_IN", "you cannot withdraw after checking in", http.StatusConflict}},
	{domain.ErrMalformedTicket, errorSpec{"MALFORMED_TICKET", "this code is not a valid ticket", http.StatusBadRequest}},
	{domain.ErrStaleTicket, errorSpec{"STALE_TICKET", "this ticket was already used", http.StatusConflict}},
	{domain.ErrAlreadyCheckedOut, errorSpec{"ALREADY_CHECKED_OUT", "volunteer already checked out", http.StatusConflict}},
	{domain.ErrCapacityBelowFilled, errorSpec{"CAPACITY_BELOW_FILLED", "capacity cannot drop below the number of subscribed volunteers", http.StatusConflict}},
	{domain.ErrInvalidCapacity, errorSpec{"VALIDATION_FAILED", "a role needs room for at least one volunteer", http.StatusBadRequest}},
	{domain.ErrInvalidSchedule, errorSpec{"VALIDATION_FAILED", "an event must end after it starts", http.StatusBadRequest}},
	{domain.ErrNotOrganizer, errorSpec{"FORBIDDEN", "only the organizer can manage this event", http.StatusForbidden}},
	{domain.ErrOrganizerCannotSubscribe, errorSpec{"FORBIDDEN", "organizers cannot subscribe to their own event", http.StatusForbidden}},
	{domain.ErrNotTicketHolder, errorSpec{"FORBIDDEN", "you can only redeem your own ticket", http.StatusForbidden}},
}

// mapDomainError converts domain failures into the API error envelope. The
// original error is kept as the cause so errors.Is still matches it.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}

	var transitionErr *domain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return apperrors.Wrap(err, "INVALID_TRANSITION",
			fmt.Sprintf("cannot %s an event that is %s", transitionErr.Transition, transitionErr.Status),
			http.StatusConflict,
			map[string]any{"status": transitionErr.Status, "action": transitionErr.Transition})
	}

	var notActive *domain.EventNotActiveError
	if errors.As(err, &notActive) {
		return apperrors.Wrap(err, "EVENT_NOT_ACTIVE", notActiveMessage(notActive.Status),
			http.StatusConflict, map[string]any{"status": notActive.Status})
	}

	for _, candidate := range sentinelErrors {
		if errors.Is(err, candidate.err) {
			return apperrors.Wrap(err, candidate.spec.code, candidate.spec.message, candidate.spec.status, nil)
		}
	}

	if apperrors.IsTransportFailure(err) {
		return apperrors.NewTransportFailure(err)
	}
	return err
}

func notActiveMessage(status domain.EventStatus) string {
	switch status {
	case domain.EventStatusOpen:
		return "event hasn't started yet"
	case domain.EventStatusCompleted:
		return "event already ended"
	case domain.EventStatusCanceled:
		return "event was canceled"
	default:
		return "event is not in progress"
	}
}

func forbidden(cause error, message string) error {
	return apperrors.Wrap(cause, "FORBIDDEN", message, http.StatusForbidden, nil)
}
