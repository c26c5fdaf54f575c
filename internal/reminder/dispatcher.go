// Package reminder nudges members who have not voted on every post of the
// current cycle.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-training-bot/internal/channels"
	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/poll"
	"go-training-bot/internal/votes"

	"github.com/google/uuid"
)

// Fallback decides where a reminder goes when the member has no private channel.
type Fallback string

const (
	FallbackDM   Fallback = "dm"
	FallbackSkip Fallback = "skip"
)

type Tallier interface {
	Tally(ctx context.Context, channelID, messageID string) (votes.Tally, error)
}

type ChannelFinder interface {
	Find(ctx context.Context, member platform.Member, cat channels.Category) (platform.Channel, bool, error)
}

type Options struct {
	MemberRole string
	// Category is where the member's private channel lives.
	Category channels.Category
	Fallback Fallback
}

type Dispatcher struct {
	gw     platform.Gateway
	tally  Tallier
	finder ChannelFinder
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

func NewDispatcher(gw platform.Gateway, tally Tallier, finder ChannelFinder, opts Options, log *slog.Logger) *Dispatcher {
	if opts.Fallback == "" {
		opts.Fallback = FallbackDM
	}
	return &Dispatcher{gw: gw, tally: tally, finder: finder, opts: opts, log: log, now: time.Now}
}

// tallies reads every item's votes once for this pass.
func (d *Dispatcher) tallies(ctx context.Context, cycle poll.Cycle) ([]votes.Tally, error) {
	out := make([]votes.Tally, len(cycle.Items))
	for i, item := range cycle.Items {
		t, err := d.tally.Tally(ctx, item.ChannelID, item.MessageID)
		if err != nil {
			return nil, fmt.Errorf("tally %s: %w", item.Day.Label, err)
		}
		out[i] = t
	}
	return out, nil
}

// deficit lists the labels of the days memberID has not voted on, in cycle order.
func deficit(memberID string, cycle poll.Cycle, tallies []votes.Tally) []string {
	var missing []string
	for i, item := range cycle.Items {
		if !tallies[i].Has(memberID) {
			missing = append(missing, item.Day.Label)
		}
	}
	return missing
}

func (d *Dispatcher) memberRole(ctx context.Context) (platform.Role, error) {
	role, err := platform.RoleByName(ctx, d.gw, d.opts.MemberRole)
	if err != nil {
		return platform.Role{}, fmt.Errorf("member role: %w", err)
	}
	return role, nil
}

// Dispatch reminds every member-role holder with a non-empty deficit, or only
// targetID when it is set. Delivery failures become Skipped results; only
// platform errors while reading state abort the run.
func (d *Dispatcher) Dispatch(ctx context.Context, cycle poll.Cycle, targetID string) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		ChannelID: cycle.ChannelID,
		TargetID:  targetID,
		StartedAt: d.now(),
	}
	role, err := d.memberRole(ctx)
	if err != nil {
		return report, err
	}

	var members []platform.Member
	if targetID != "" {
		m, err := d.gw.Member(ctx, targetID)
		if err != nil {
			return report, fmt.Errorf("target member %s: %w", targetID, err)
		}
		members = []platform.Member{m}
	} else {
		members, err = d.gw.Members(ctx)
		if err != nil {
			return report, fmt.Errorf("list members: %w", err)
		}
	}

	tallies, err := d.tallies(ctx, cycle)
	if err != nil {
		return report, err
	}

	for _, m := range members {
		if m.Bot {
			continue
		}
		if !m.HasRole(role.ID) {
			if targetID != "" {
				report.Results = append(report.Results, Result{
					MemberID: m.ID, MemberName: m.Name, Outcome: Skipped,
					Reason: "does not hold role " + role.Name,
				})
			}
			continue
		}
		missing := deficit(m.ID, cycle, tallies)
		if len(missing) == 0 {
			continue
		}
		res, err := d.deliver(ctx, m, cycle.ChannelID, missing)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
	}

	report.FinishedAt = d.now()
	d.log.Info("reminder run finished",
		"run", report.RunID,
		"target", targetID,
		"delivered", report.Count(Delivered),
		"skipped", report.Count(Skipped))
	return report, nil
}

// deliver sends one reminder. Only a failing channel lookup is returned as an
// error; send failures are recorded on the result.
func (d *Dispatcher) deliver(ctx context.Context, m platform.Member, pollChannelID string, missing []string) (Result, error) {
	res := Result{MemberID: m.ID, MemberName: m.Name, Missing: missing}
	text := constants.Reminder(platform.MentionUser(m.ID), platform.MentionChannel(pollChannelID), missing)

	ch, ok, err := d.finder.Find(ctx, m, d.opts.Category)
	if err != nil {
		return res, fmt.Errorf("find private channel of %s: %w", m.ID, err)
	}
	switch {
	case ok:
		res.Via = ViaChannel
		_, err = d.gw.Send(ctx, ch.ID, text)
	case d.opts.Fallback == FallbackDM:
		res.Via = ViaDM
		err = d.gw.DirectMessage(ctx, m.ID, text)
	default:
		res.Outcome = Skipped
		res.Reason = "no private channel"
		return res, nil
	}

	if err != nil {
		d.log.Warn("reminder not delivered", "member", m.ID, "via", res.Via, "err", err)
		res.Outcome = Skipped
		res.Reason = err.Error()
		return res, nil
	}
	res.Outcome = Delivered
	return res, nil
}

// Missing lists the member-role holders who have not voted on the cycle's
// post for weekday.
func (d *Dispatcher) Missing(ctx context.Context, cycle poll.Cycle, weekday int) ([]platform.Member, error) {
	item, ok := cycle.Item(weekday)
	if !ok {
		return nil, fmt.Errorf("weekday %d: %w", weekday, ErrNoPost)
	}
	role, err := d.memberRole(ctx)
	if err != nil {
		return nil, err
	}
	tally, err := d.tally.Tally(ctx, item.ChannelID, item.MessageID)
	if err != nil {
		return nil, fmt.Errorf("tally %s: %w", item.Day.Label, err)
	}
	members, err := d.gw.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	var out []platform.Member
	for _, m := range members {
		if m.Bot || !m.HasRole(role.ID) || tally.Has(m.ID) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ErrNoPost means the current cycle has no post for the requested day.
var ErrNoPost = errors.New("no poll post for day")
