package bot

import (
	"context"
	"fmt"

	"go-training-bot/config"
	"go-training-bot/internal/constants"
	"go-training-bot/internal/schedule"
)

// Triggers returns the weekly triggers enabled in the configuration. The
// handlers are the same ones the chat commands use.
func (b *Bot) Triggers() []schedule.Trigger {
	var out []schedule.Trigger
	if t := b.cfg.Schedule.Reminder; t.Enabled {
		out = append(out, trigger("sunday-reminder", t, b.ScheduledReminder))
	}
	if t := b.cfg.Schedule.Poll; t.Enabled {
		out = append(out, trigger("weekly-poll", t, b.ScheduledPoll))
	}
	if t, ok := b.cleanupTrigger(); ok {
		out = append(out, t)
	}
	return out
}

func trigger(name string, t config.Trigger, run func(ctx context.Context)) schedule.Trigger {
	return schedule.Trigger{Name: name, Weekday: t.Weekday, Hour: t.Hour, Minute: t.Minute, Run: run}
}

// ScheduledReminder reminds every member with a deficit. Results go to the
// ops log only.
func (b *Bot) ScheduledReminder(ctx context.Context) {
	report, err := b.Remind(ctx, "", TriggerSchedule)
	if err != nil {
		b.log.Error("scheduled reminder failed", "err", err)
		b.ops.Notify(ctx, fmt.Sprintf(constants.MsgCommandError, err))
		return
	}
	if report.RunID == "" {
		b.ops.Notify(ctx, constants.MsgNoCycle)
	}
}
