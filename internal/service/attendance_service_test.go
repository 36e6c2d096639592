package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
)

// subscribedEvent returns an IN_PROGRESS event where alice holds the only job.
func subscribedEvent(t *testing.T, f *fixture) *domain.Event {
	t.Helper()
	event := f.createEvent(t, 2)
	_, err := f.subscriptions.Subscribe(context.Background(), alice, event.ID, event.Jobs[0].ID)
	require.NoError(t, err)
	f.startEvent(t, event.ID)
	return event
}

func TestTicketRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := subscribedEvent(t, f)

	ticket, ok, err := f.attendance.IssueTicket(ctx, alice, event.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TicketActionCheckIn, ticket.Action)

	f.clock.Advance(10 * time.Minute)
	redeemed, err := f.attendance.RedeemTicket(ctx, organizer, ticket.Encode())
	require.NoError(t, err)
	require.NotNil(t, redeemed.Attendance.CheckInAt)
	assert.Equal(t, f.clock.Now(), *redeemed.Attendance.CheckInAt)
	require.NotNil(t, redeemed.Next)
	assert.Equal(t, domain.TicketActionCheckOut, redeemed.Next.Action)
	assert.Equal(t, events.VolunteerCheckedIn, f.dispatcher.last().Type)

	ticket, ok, err = f.attendance.IssueTicket(ctx, alice, event.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *redeemed.Next, ticket)

	f.clock.Advance(3 * time.Hour)
	redeemed, err = f.attendance.RedeemTicket(ctx, organizer, "  "+ticket.Encode()+"\n")
	require.NoError(t, err)
	require.NotNil(t, redeemed.Attendance.CheckOutAt)
	assert.True(t, redeemed.Attendance.CheckOutAt.After(*redeemed.Attendance.CheckInAt))
	assert.Nil(t, redeemed.Next)
	assert.Equal(t, events.VolunteerCheckedOut, f.dispatcher.last().Type)

	_, ok, err = f.attendance.IssueTicket(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.attendance.RedeemTicket(ctx, organizer, ticket.Encode())
	requireCode(t, err, "ALREADY_CHECKED_OUT")
}

func TestCheckInIsIdempotentlyRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := subscribedEvent(t, f)

	_, err := f.attendance.CheckIn(ctx, organizer, event.ID, alice.ID)
	require.NoError(t, err)
	first, _ := f.store.attendance(event.ID, alice.ID)

	f.clock.Advance(time.Minute)
	_, err = f.attendance.CheckIn(ctx, organizer, event.ID, alice.ID)
	requireCode(t, err, "STALE_TICKET")

	second, _ := f.store.attendance(event.ID, alice.ID)
	assert.Equal(t, *first.CheckInAt, *second.CheckInAt)
}

func TestConcurrentScansApplyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := subscribedEvent(t, f)
	encoded := domain.Ticket{Action: domain.TicketActionCheckIn, EventID: event.ID, VolunteerID: alice.ID}.Encode()

	const scans = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.attendance.RedeemTicket(ctx, organizer, encoded)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	applied := 0
	for _, err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrStaleTicket)
	}
	assert.Equal(t, 1, applied)
}

func TestCheckOutRequiresLaterInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := subscribedEvent(t, f)

	_, err := f.attendance.CheckOut(ctx, organizer, event.ID, alice.ID)
	requireCode(t, err, "STALE_TICKET")

	_, err = f.attendance.CheckIn(ctx, organizer, event.ID, alice.ID)
	require.NoError(t, err)

	_, err = f.attendance.CheckOut(ctx, organizer, event.ID, alice.ID)
	requireCode(t, err, "STALE_TICKET")

	f.clock.Advance(time.Second)
	_, err = f.attendance.CheckOut(ctx, organizer, event.ID, alice.ID)
	require.NoError(t, err)
}

func TestRedeemOnCanceledEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := subscribedEvent(t, f)
	_, err := f.lifecycle.Cancel(ctx, organizer, event.ID)
	require.NoError(t, err)

	for _, action := range []domain.TicketAction{domain.TicketActionCheckIn, domain.TicketActionCheckOut} {
		encoded := domain.Ticket{Action: action, EventID: event.ID, VolunteerID: alice.ID}.Encode()
		_, err := f.attendance.RedeemTicket(ctx, organizer, encoded)
		de := requireCode(t, err, "EVENT_NOT_ACTIVE")
		assert.Equal(t, domain.EventStatusCanceled, de.Details["status"])
		assert.Equal(t, "event was canceled", de.Message)
	}

	att, ok := f.store.attendance(event.ID, alice.ID)
	require.True(t, ok)
	assert.Nil(t, att.CheckInAt)
	assert.Nil(t, att.CheckOutAt)
}

func TestRedeemRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed", func(t *testing.T) {
		f := newFixture(t)
		for _, encoded := range []string{"", "/event/e1/check-in", "/event/e1/checkin/v1", "/event/e1/check-in/v1?x=1", "https://evil/event/e1/check-in/v1"} {
			_, err := f.attendance.RedeemTicket(ctx, organizer, encoded)
			requireCode(t, err, "MALFORMED_TICKET")
		}
	})

	t.Run("event not started", func(t *testing.T) {
		f := newFixture(t)
		event := f.createEvent(t, 1)
		_, err := f.attendance.CheckIn(ctx, organizer, event.ID, alice.ID)
		de := requireCode(t, err, "EVENT_NOT_ACTIVE")
		assert.Equal(t, "event hasn't started yet", de.Message)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.attendance.CheckIn(ctx, organizer, "missing", alice.ID)
		requireCode(t, err, "EVENT_NOT_FOUND")
	})

	t.Run("not subscribed", func(t *testing.T) {
		f := newFixture(t)
		event := subscribedEvent(t, f)
		_, err := f.attendance.CheckIn(ctx, organizer, event.ID, bob.ID)
		requireCode(t, err, "NOT_SUBSCRIBED")
	})

	t.Run("someone else's ticket", func(t *testing.T) {
		f := newFixture(t)
		event := subscribedEvent(t, f)
		_, err := f.attendance.CheckIn(ctx, bob, event.ID, alice.ID)
		requireCode(t, err, "FORBIDDEN")
	})

	t.Run("own ticket", func(t *testing.T) {
		f := newFixture(t)
		event := subscribedEvent(t, f)
		_, err := f.attendance.CheckIn(ctx, alice, event.ID, alice.ID)
		require.NoError(t, err)
	})
}

func TestIssueTicketRules(t *testing.T) {
	ctx := context.Background()

	t.Run("not subscribed", func(t *testing.T) {
		f := newFixture(t)
		event := subscribedEvent(t, f)
		_, _, err := f.attendance.IssueTicket(ctx, bob, event.ID)
		requireCode(t, err, "NOT_SUBSCRIBED")
	})

	t.Run("before start", func(t *testing.T) {
		f := newFixture(t)
		event := f.createEvent(t, 1)
		_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, event.Jobs[0].ID)
		require.NoError(t, err)
		_, _, err = f.attendance.IssueTicket(ctx, alice, event.ID)
		requireCode(t, err, "EVENT_NOT_ACTIVE")
	})

	t.Run("after completion", func(t *testing.T) {
		f := newFixture(t)
		event := subscribedEvent(t, f)
		_, err := f.attendance.CheckIn(ctx, alice, event.ID, alice.ID)
		require.NoError(t, err)

		f.clock.Set(scheduledEnd.Add(2 * time.Hour))
		ticket, ok, err := f.attendance.IssueTicket(ctx, alice, event.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.TicketActionCheckOut, ticket.Action)

		_, err = f.attendance.RedeemTicket(ctx, alice, ticket.Encode())
		de := requireCode(t, err, "EVENT_NOT_ACTIVE")
		assert.Equal(t, "event already ended", de.Message)
	})
}

func TestTicketsForProviderSubjects(t *testing.T) {
	for _, member := range []domain.Member{
		{ID: "auth0|42", FullName: "Pipe Subject"},
		{ID: "carla@example.org", FullName: "Carla Email"},
	} {
		t.Run(member.ID, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			event := f.createEvent(t, 2)
			_, err := f.subscriptions.Subscribe(ctx, member, event.ID, event.Jobs[0].ID)
			require.NoError(t, err)
			f.startEvent(t, event.ID)

			ticket, ok, err := f.attendance.IssueTicket(ctx, member, event.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, member.ID, ticket.VolunteerID)

			redeemed, err := f.attendance.RedeemTicket(ctx, organizer, ticket.Encode())
			require.NoError(t, err)
			assert.Equal(t, member.ID, redeemed.Attendance.VolunteerID)
			require.NotNil(t, redeemed.Attendance.CheckInAt)

			f.clock.Advance(time.Hour)
			redeemed, err = f.attendance.CheckOut(ctx, organizer, event.ID, member.ID)
			require.NoError(t, err)
			require.NotNil(t, redeemed.Attendance.CheckOutAt)
			assert.Nil(t, redeemed.Next)
		})
	}
}
