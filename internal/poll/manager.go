// Package poll creates and re-finds the weekly attendance posts.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/utils"
	"go-training-bot/internal/votes"
)

// ErrChannelUnavailable means the target channel could not be resolved; the
// invocation did nothing.
var ErrChannelUnavailable = errors.New("poll channel unavailable")

type Options struct {
	Days     []Day
	Location *time.Location
	// Announce pings MemberRole after the posts are published.
	Announce   bool
	MemberRole string
}

type Manager struct {
	gw   platform.Gateway
	repo Repository
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

func NewManager(gw platform.Gateway, repo Repository, opts Options, log *slog.Logger) *Manager {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Manager{gw: gw, repo: repo, opts: opts, log: log, now: time.Now}
}

func (m *Manager) Days() []Day { return m.opts.Days }

// CreateCycle replaces the channel's marked posts with next week's posts,
// one per configured day, each carrying the two vote reactions.
func (m *Manager) CreateCycle(ctx context.Context, channelID string) (Cycle, error) {
	if err := m.resolve(ctx, channelID); err != nil {
		return Cycle{}, err
	}

	deleted, err := m.clear(ctx, channelID)
	if err != nil {
		return Cycle{}, err
	}

	today := m.now().In(m.opts.Location)
	cycle := Cycle{ChannelID: channelID}
	for _, d := range m.opts.Days {
		item := Item{
			Day:       d,
			Date:      utils.WeekDate(today, d.Weekday),
			Marker:    DayMarker(d.Weekday),
			ChannelID: channelID,
		}
		msg, err := m.gw.Send(ctx, channelID, constants.PollPost(d.Label, item.Date, item.Marker))
		if err != nil {
			return cycle, fmt.Errorf("publish %s: %w", d.Label, err)
		}
		item.MessageID = msg.ID
		for _, emoji := range votes.Affordances {
			if err := m.gw.AddReaction(ctx, channelID, msg.ID, emoji); err != nil {
				return cycle, fmt.Errorf("react %s on %s: %w", emoji, d.Label, err)
			}
		}
		cycle.Items = append(cycle.Items, item)
	}

	if m.opts.Announce {
		m.announce(ctx, channelID)
	}

	m.log.Info("poll cycle created", "channel", channelID, "items", len(cycle.Items), "deleted", deleted)
	return cycle, nil
}

// FindCurrentCycle re-finds this cycle's posts in recent history.
func (m *Manager) FindCurrentCycle(ctx context.Context, channelID string) (Cycle, error) {
	if err := m.resolve(ctx, channelID); err != nil {
		return Cycle{}, err
	}
	cycle, err := m.repo.FindPollItems(ctx, channelID, m.opts.Days)
	if err != nil {
		return Cycle{}, fmt.Errorf("find poll items: %w", err)
	}
	return cycle, nil
}

func (m *Manager) resolve(ctx context.Context, channelID string) error {
	if _, err := m.gw.Channel(ctx, channelID); err != nil {
		m.log.Error("poll channel not resolvable", "channel", channelID, "err", err)
		return fmt.Errorf("%w: %s: %v", ErrChannelUnavailable, channelID, err)
	}
	return nil
}

// clear deletes stale marked posts. Best effort: a failed delete is logged
// and the rest continue.
func (m *Manager) clear(ctx context.Context, channelID string) (int, error) {
	stale, err := m.repo.StalePosts(ctx, channelID, m.opts.Days)
	if err != nil {
		return 0, fmt.Errorf("scan stale posts: %w", err)
	}
	deleted := 0
	for _, msg := range stale {
		if err := m.gw.DeleteMessage(ctx, channelID, msg.ID); err != nil {
			m.log.Warn("stale poll post not deleted", "channel", channelID, "message", msg.ID, "err", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) announce(ctx context.Context, channelID string) {
	role, err := platform.RoleByName(ctx, m.gw, m.opts.MemberRole)
	if err != nil {
		m.log.Warn("announcement skipped", "role", m.opts.MemberRole, "err", err)
		return
	}
	if _, err := m.gw.Send(ctx, channelID, constants.Announcement(platform.MentionRole(role.ID), BroadcastMarker)); err != nil {
		m.log.Warn("announcement not sent", "channel", channelID, "err", err)
	}
}
