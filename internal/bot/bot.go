// Package bot wires the poll, reminder and role components to chat commands,
// platform events and scheduled triggers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-training-bot/config"
	"go-training-bot/internal/channels"
	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/poll"
	"go-training-bot/internal/reminder"
	"go-training-bot/internal/roles"
	"go-training-bot/internal/votes"
)

// ErrForbidden is returned when the invoking member lacks the privilege a
// command needs.
var ErrForbidden = errors.New("insufficient privilege")

const (
	TriggerCommand  = "command"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// Notifier receives operational log lines.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Journal records cycles and reminder runs for later inspection.
type Journal interface {
	RecordCycle(trigger string, c poll.Cycle) error
	RecordRun(trigger string, r reminder.Report) error
	Prune(before time.Time) (int64, error)
}

type Bot struct {
	gw      platform.Gateway
	cfg     *config.Config
	polls   *poll.Manager
	remind  *reminder.Dispatcher
	roles   *roles.Manager
	ops     Notifier
	journal Journal
	log     *slog.Logger
}

// New builds every component on top of gw. journal may be nil.
func New(gw platform.Gateway, cfg *config.Config, ops Notifier, journal Journal, log *slog.Logger) (*Bot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	days := make([]poll.Day, 0, len(cfg.Training.Days))
	for _, d := range cfg.Training.Days {
		days = append(days, poll.Day{Weekday: d.Weekday, Label: d.Label})
	}
	polls := poll.NewManager(gw, poll.NewHistoryRepository(gw, cfg.Training.HistoryLimit, loc), poll.Options{
		Days:       days,
		Location:   loc,
		Announce:   cfg.Training.Announce,
		MemberRole: cfg.Roles.Member,
	}, log.With("component", "poll"))

	private, probation := Categories(cfg)
	prov := channels.NewProvisioner(gw, channels.NewListingRepository(gw), cfg.Roles.Sponsor, log.With("component", "channels"))

	dispatcher := reminder.NewDispatcher(gw, votes.NewReader(gw), prov, reminder.Options{
		MemberRole: cfg.Roles.Member,
		Category:   private,
		Fallback:   reminder.Fallback(cfg.Policy.ReminderFallback),
	}, log.With("component", "reminder"))

	tracked := []roles.Tracked{{Role: cfg.Roles.Member, Category: private}}
	if cfg.Roles.Probationary != "" {
		tracked = append(tracked, roles.Tracked{Role: cfg.Roles.Probationary, Category: probation})
	}
	lifecycle := roles.NewManager(gw, prov, roles.Options{
		Tracked:         tracked,
		Probationary:    cfg.Roles.Probationary,
		ProvisionOnJoin: cfg.Policy.Join == config.JoinGrantAndProvision,
	}, ops, log.With("component", "roles"))

	return &Bot{
		gw:      gw,
		cfg:     cfg,
		polls:   polls,
		remind:  dispatcher,
		roles:   lifecycle,
		ops:     ops,
		journal: journal,
		log:     log,
	}, nil
}

// Categories returns the private-conversation and probationary categories.
func Categories(cfg *config.Config) (private, probation channels.Category) {
	private = channels.Category{
		Key:        "private",
		ID:         cfg.Channels.PrivateCategory,
		NamePrefix: "einzelgespraech",
		Onboarding: constants.Onboarding,
	}
	probation = channels.Category{
		Key:        "probation",
		ID:         cfg.Channels.ProbationCategory,
		NamePrefix: "probetraining",
		Onboarding: constants.ProbationOnboarding,
	}
	return private, probation
}

// Started announces the bot on the ops log.
func (b *Bot) Started(ctx context.Context) {
	b.ops.Notify(ctx, constants.MsgBotStarted)
}

// CreateCycle publishes next week's posts in channelID and journals them.
func (b *Bot) CreateCycle(ctx context.Context, channelID, trigger string) (poll.Cycle, error) {
	if channelID == "" {
		return poll.Cycle{}, fmt.Errorf("poll channel: %w", channels.ErrMissingConfig)
	}
	cycle, err := b.polls.CreateCycle(ctx, channelID)
	if err != nil {
		if errors.Is(err, poll.ErrChannelUnavailable) {
			b.ops.Notify(ctx, fmt.Sprintf(constants.MsgCycleUnavailable, channelID))
		}
		return cycle, err
	}
	b.record(func(j Journal) error { return j.RecordCycle(trigger, cycle) })
	b.ops.Notify(ctx, constants.MsgTrainingCreated)
	b.log.Info("✅ training posts created", "channel", channelID, "trigger", trigger, "days", len(cycle.Items))
	return cycle, nil
}

// Remind runs a reminder pass over the primary channel's current cycle.
// targetID limits the pass to one member. An empty cycle yields an empty
// report and no error.
func (b *Bot) Remind(ctx context.Context, targetID, trigger string) (reminder.Report, error) {
	cycle, err := b.polls.FindCurrentCycle(ctx, b.cfg.Channels.Training)
	if err != nil {
		return reminder.Report{}, err
	}
	if cycle.Empty() {
		b.log.Warn("no current cycle, reminders skipped", "channel", b.cfg.Channels.Training)
		return reminder.Report{ChannelID: cycle.ChannelID, TargetID: targetID}, nil
	}

	report, err := b.remind.Dispatch(ctx, cycle, targetID)
	if err != nil {
		return report, err
	}
	b.record(func(j Journal) error { return j.RecordRun(trigger, report) })

	b.ops.Notify(ctx, fmt.Sprintf(constants.MsgReminderSummary, report.Count(reminder.Delivered), report.Count(reminder.Skipped)))
	for _, skip := range report.Skips() {
		b.ops.Notify(ctx, "⚠️ "+skip)
	}
	return report, nil
}

// Missing lists the members who have not voted on the current post for weekday.
func (b *Bot) Missing(ctx context.Context, weekday int) ([]platform.Member, error) {
	cycle, err := b.polls.FindCurrentCycle(ctx, b.cfg.Channels.Training)
	if err != nil {
		return nil, err
	}
	return b.remind.Missing(ctx, cycle, weekday)
}

// DayByLabel finds the configured training day whose label is name.
func (b *Bot) DayByLabel(name string) (poll.Day, bool) {
	for _, d := range b.polls.Days() {
		if strings.EqualFold(d.Label, name) {
			return d, true
		}
	}
	return poll.Day{}, false
}

func (b *Bot) record(write func(j Journal) error) {
	if b.journal == nil {
		return
	}
	if err := write(b.journal); err != nil {
		b.log.Warn("journal write failed", "err", err)
	}
}
