package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/volunteer-events/internal/domain"
	"github.com/spec-kit/volunteer-events/internal/events"
)

func TestSubscribeFillsLastSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 1)
	jobID := event.Jobs[0].ID

	sub, err := f.subscriptions.Subscribe(ctx, alice, event.ID, jobID)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Filled)
	assert.Equal(t, 1, sub.Capacity)
	assert.Equal(t, alice.FullName, sub.Attendance.FullName)

	_, err = f.subscriptions.Subscribe(ctx, bob, event.ID, jobID)
	requireCode(t, err, "CAPACITY_EXCEEDED")
	_, found := f.store.attendance(event.ID, bob.ID)
	assert.False(t, found)

	payload, ok := f.dispatcher.last().Payload.(events.SubscriptionPayload)
	require.True(t, ok)
	assert.Equal(t, events.SubscriptionPayload{JobID: jobID, VolunteerID: alice.ID, Filled: 1, Capacity: 1}, payload)
}

func TestSubscribeOneJobPerEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 5, 5)

	_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, event.Jobs[0].ID)
	require.NoError(t, err)

	_, err = f.subscriptions.Subscribe(ctx, alice, event.ID, event.Jobs[0].ID)
	requireCode(t, err, "ALREADY_SUBSCRIBED")

	_, err = f.subscriptions.Subscribe(ctx, alice, event.ID, event.Jobs[1].ID)
	requireCode(t, err, "ALREADY_SUBSCRIBED_ELSEWHERE")
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribedElsewhere)
}

func TestSubscribeRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer", func(t *testing.T) {
		f := newFixture(t)
		event := f.createEvent(t, 5)
		_, err := f.subscriptions.Subscribe(ctx, organizer, event.ID, event.Jobs[0].ID)
		requireCode(t, err, "FORBIDDEN")
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newFixture(t)
		event := f.createEvent(t, 5)
		_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, "missing")
		requireCode(t, err, "JOB_NOT_FOUND")
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.subscriptions.Subscribe(ctx, alice, "missing", "missing")
		requireCode(t, err, "EVENT_NOT_FOUND")
	})

	t.Run("event in progress", func(t *testing.T) {
		f := newFixture(t)
		event := f.createEvent(t, 5)
		f.startEvent(t, event.ID)
		_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, event.Jobs[0].ID)
		requireCode(t, err, "EVENT_NOT_OPEN")
	})

	t.Run("event lapsed", func(t *testing.T) {
		f := newFixture(t)
		event := f.createEvent(t, 5)
		f.clock.Set(scheduledEnd.Add(2 * time.Hour))
		_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, event.Jobs[0].ID)
		requireCode(t, err, "EVENT_NOT_OPEN")
		assert.Equal(t, domain.EventStatusCompleted, f.store.status(event.ID))
	})
}

func TestConcurrentSubscribersNeverOverfill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 3)
	jobID := event.Jobs[0].ID

	const volunteers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < volunteers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			member := domain.Member{ID: fmt.Sprintf("vol-%d", i), FullName: fmt.Sprintf("Volunteer %d", i)}
			_, err := f.subscriptions.Subscribe(ctx, member, event.ID, jobID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, domain.ErrCapacityExceeded) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, volunteers-3, rejected)
	filled, err := (&fakeAttendanceRepo{store: f.store}).CountByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, filled)
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 1)
	jobID := event.Jobs[0].ID

	_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, jobID)
	require.NoError(t, err)

	require.NoError(t, f.subscriptions.Unsubscribe(ctx, alice, event.ID, jobID))
	_, found := f.store.attendance(event.ID, alice.ID)
	assert.False(t, found)

	// the freed seat is available again
	_, err = f.subscriptions.Subscribe(ctx, bob, event.ID, jobID)
	require.NoError(t, err)

	err = f.subscriptions.Unsubscribe(ctx, alice, event.ID, jobID)
	requireCode(t, err, "NOT_SUBSCRIBED")

	f.startEvent(t, event.ID)
	_, err = f.attendance.CheckIn(ctx, organizer, event.ID, bob.ID)
	require.NoError(t, err)

	err = f.subscriptions.Unsubscribe(ctx, bob, event.ID, jobID)
	requireCode(t, err, "ALREADY_CHECKED_IN")
	_, found = f.store.attendance(event.ID, bob.ID)
	assert.True(t, found)
}

func TestUnsubscribeRequiresOpenEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 1)
	jobID := event.Jobs[0].ID

	_, err := f.subscriptions.Subscribe(ctx, alice, event.ID, jobID)
	require.NoError(t, err)
	f.startEvent(t, event.ID)

	err = f.subscriptions.Unsubscribe(ctx, alice, event.ID, jobID)
	requireCode(t, err, "EVENT_NOT_OPEN")
}
