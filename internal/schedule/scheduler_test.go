package schedule

import (
	"context"
	"testing"
	"time"

	"go-training-bot/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func syncScheduler(loc *time.Location) *Scheduler {
	s := New(loc, time.Minute, logger.Discard())
	s.fire = func(ctx context.Context, t Trigger) { t.Run(ctx) }
	return s
}

func TestTick_FiresOncePerMinute(t *testing.T) {
	loc := berlin(t)
	s := syncScheduler(loc)
	calls := 0
	s.Register(Trigger{Name: "sunday-reminder", Weekday: 6, Hour: 12, Minute: 0, Run: func(context.Context) { calls++ }})

	// 2026-10-18 is a Sunday.
	at := time.Date(2026, time.October, 18, 12, 0, 5, 0, loc)
	assert.Equal(t, []string{"sunday-reminder"}, s.Tick(context.Background(), at))
	assert.Empty(t, s.Tick(context.Background(), at.Add(30*time.Second)))
	assert.Equal(t, 1, calls)

	// Same minute one week later fires again.
	s.Tick(context.Background(), at.AddDate(0, 0, 7))
	assert.Equal(t, 2, calls)
}

func TestTick_UsesCivilTimezone(t *testing.T) {
	loc := berlin(t)
	s := syncScheduler(loc)
	fired := false
	s.Register(Trigger{Name: "r", Weekday: 6, Hour: 12, Minute: 0, Run: func(context.Context) { fired = true }})

	// 12:00 UTC is 14:00 in Berlin (CEST), not due.
	s.Tick(context.Background(), time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC))
	assert.False(t, fired)

	// 10:00 UTC is 12:00 in Berlin.
	s.Tick(context.Background(), time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC))
	assert.True(t, fired)
}

func TestTick_NoCatchUp(t *testing.T) {
	loc := berlin(t)
	s := syncScheduler(loc)
	fired := false
	s.Register(Trigger{Name: "r", Weekday: 6, Hour: 12, Minute: 0, Run: func(context.Context) { fired = true }})

	s.Tick(context.Background(), time.Date(2026, time.October, 18, 11, 59, 0, 0, loc))
	s.Tick(context.Background(), time.Date(2026, time.October, 18, 12, 1, 0, 0, loc))
	assert.False(t, fired)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(time.UTC, 10*time.Millisecond, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunAsync_RecoversPanic(t *testing.T) {
	s := New(time.UTC, time.Minute, logger.Discard())
	done := make(chan struct{})
	s.runAsync(context.Background(), Trigger{Name: "boom", Run: func(context.Context) {
		defer close(done)
		panic("boom")
	}})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger did not run")
	}
}
