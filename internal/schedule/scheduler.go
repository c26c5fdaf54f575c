// Package schedule fires weekly triggers from a coarse wall-clock tick.
//
// There is no catch-up: a trigger whose minute passes while the process is
// down (or while the tick is late by more than a minute) is skipped for that week.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-training-bot/internal/utils"
)

type Trigger struct {
	Name string
	// Weekday is 0=Monday .. 6=Sunday.
	Weekday int
	Hour    int
	Minute  int
	Run     func(ctx context.Context)
}

func (t Trigger) String() string {
	return fmt.Sprintf("%s (weekday %d %02d:%02d)", t.Name, t.Weekday, t.Hour, t.Minute)
}

// Due reports whether now, read in loc, is inside the trigger's minute.
func (t Trigger) Due(now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	return utils.MondayIndex(local.Weekday()) == t.Weekday &&
		local.Hour() == t.Hour &&
		local.Minute() == t.Minute
}

type Scheduler struct {
	loc  *time.Location
	tick time.Duration
	log  *slog.Logger

	mu        sync.Mutex
	triggers  []Trigger
	lastFired map[string]time.Time

	// fire runs a due trigger; replaced in tests to run synchronously.
	fire func(ctx context.Context, t Trigger)
}

func New(loc *time.Location, tick time.Duration, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		loc:       loc,
		tick:      tick,
		log:       log,
		lastFired: map[string]time.Time{},
	}
	s.fire = s.runAsync
	return s
}

func (s *Scheduler) Register(t Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, t)
	s.log.Info("trigger registered", "trigger", t.String(), "tz", s.loc.String())
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick fires every trigger due at now that has not fired in this minute yet
// and returns their names.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []string {
	minute := now.In(s.loc).Truncate(time.Minute)

	s.mu.Lock()
	var due []Trigger
	for _, t := range s.triggers {
		if !t.Due(now, s.loc) {
			continue
		}
		if last, ok := s.lastFired[t.Name]; ok && last.Equal(minute) {
			continue
		}
		s.lastFired[t.Name] = minute
		due = append(due, t)
	}
	s.mu.Unlock()

	names := make([]string, 0, len(due))
	for _, t := range due {
		s.log.Info("trigger fired", "trigger", t.Name, "at", minute.Format(time.RFC3339))
		s.fire(ctx, t)
		names = append(names, t.Name)
	}
	return names
}

func (s *Scheduler) runAsync(ctx context.Context, t Trigger) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("trigger panicked", "trigger", t.Name, "panic", r)
			}
		}()
		t.Run(ctx)
	}()
}
