package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/reminder"
	"go-training-bot/internal/utils"
)

// HandleMessage routes a prefixed chat command. Messages from bots, messages
// without the prefix and unknown commands are ignored.
func (b *Bot) HandleMessage(ctx context.Context, msg platform.Message) {
	if msg.Author.Bot {
		return
	}
	text := strings.TrimSpace(msg.Content)
	prefix := b.cfg.Commands.Prefix
	if !strings.HasPrefix(text, prefix) {
		return
	}
	args := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(args) == 0 {
		return
	}

	var err error
	switch cmd := strings.ToLower(args[0]); cmd {
	case "training":
		err = b.cmdTraining(ctx, msg)
	case "testtraining":
		err = b.cmdTestTraining(ctx, msg)
	case "remind":
		err = b.cmdRemind(ctx, msg, args[1:])
	default:
		day, ok := b.DayByLabel(cmd)
		if !ok {
			return
		}
		err = b.cmdMissing(ctx, msg, day.Weekday, day.Label)
	}
	if err != nil {
		b.replyError(ctx, msg, err)
	}
}

func (b *Bot) cmdTraining(ctx context.Context, msg platform.Message) error {
	admin, err := b.gw.IsAdministrator(ctx, msg.Author.ID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	if _, err := b.CreateCycle(ctx, b.cfg.Channels.Training, TriggerCommand); err != nil {
		return err
	}
	b.reply(ctx, msg, constants.MsgTrainingCreated)
	return nil
}

func (b *Bot) cmdTestTraining(ctx context.Context, msg platform.Message) error {
	if _, err := b.CreateCycle(ctx, b.cfg.Channels.TestTraining, TriggerCommand); err != nil {
		return err
	}
	b.reply(ctx, msg, constants.MsgTestTraining)
	return nil
}

func (b *Bot) cmdRemind(ctx context.Context, msg platform.Message, args []string) error {
	if err := b.requireSponsor(ctx, msg.Author.ID); err != nil {
		return err
	}
	targetID := ""
	if len(args) > 0 {
		id, ok := utils.ParseUserRef(args[0])
		if !ok {
			b.reply(ctx, msg, constants.MsgUnknownMember)
			return nil
		}
		if _, err := b.gw.Member(ctx, id); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				b.reply(ctx, msg, constants.MsgUnknownMember)
				return nil
			}
			return err
		}
		targetID = id
	}

	b.reply(ctx, msg, constants.MsgRemindStarted)
	report, err := b.Remind(ctx, targetID, TriggerCommand)
	if err != nil {
		return err
	}
	if report.RunID == "" {
		b.reply(ctx, msg, constants.MsgNoCycle)
		return nil
	}
	b.reply(ctx, msg, constants.MsgRemindDone)
	return nil
}

func (b *Bot) cmdMissing(ctx context.Context, msg platform.Message, weekday int, label string) error {
	members, err := b.Missing(ctx, weekday)
	if err != nil {
		if errors.Is(err, reminder.ErrNoPost) {
			b.reply(ctx, msg, constants.MsgNoCycle)
			return nil
		}
		return err
	}
	mentions := make([]string, 0, len(members))
	for _, m := range members {
		mentions = append(mentions, platform.MentionUser(m.ID))
	}
	b.reply(ctx, msg, constants.MissingReport(label, mentions))
	return nil
}

// requireSponsor fails with ErrForbidden unless userID holds the sponsor role.
func (b *Bot) requireSponsor(ctx context.Context, userID string) error {
	role, err := platform.RoleByName(ctx, b.gw, b.cfg.Roles.Sponsor)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			b.ops.Notify(ctx, fmt.Sprintf(constants.MsgMissingConfig, "Rolle "+b.cfg.Roles.Sponsor))
			return ErrForbidden
		}
		return err
	}
	author, err := b.gw.Member(ctx, userID)
	if err != nil {
		return err
	}
	if !author.HasRole(role.ID) {
		return ErrForbidden
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, msg platform.Message, text string) {
	if _, err := b.gw.Send(ctx, msg.ChannelID, text); err != nil {
		b.log.Warn("reply failed", "channel", msg.ChannelID, "err", err)
	}
}

// replyError reports a failed command to the invoker. Privilege failures stay
// in the channel; anything else is mirrored to the ops log.
func (b *Bot) replyError(ctx context.Context, msg platform.Message, err error) {
	if errors.Is(err, ErrForbidden) {
		b.reply(ctx, msg, constants.MsgNoPermission)
		return
	}
	b.log.Error("command failed", "author", msg.Author.ID, "content", msg.Content, "err", err)
	b.reply(ctx, msg, fmt.Sprintf(constants.MsgCommandError, err))
	b.ops.Notify(ctx, err.Error())
}
