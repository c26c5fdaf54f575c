package bot

import (
	"context"
	"fmt"

	"go-training-bot/internal/constants"
)

// ScheduledPoll publishes next week's posts in the primary channel.
func (b *Bot) ScheduledPoll(ctx context.Context) {
	if _, err := b.CreateCycle(ctx, b.cfg.Channels.Training, TriggerSchedule); err != nil {
		b.log.Error("scheduled poll creation failed", "err", err)
		b.ops.Notify(ctx, fmt.Sprintf(constants.MsgCommandError, err))
	}
}
