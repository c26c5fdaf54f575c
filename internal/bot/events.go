package bot

import (
	"context"
	"fmt"

	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"
)

// OnMemberUpdate handles a role change. before is nil when the previous role
// set is unknown, e.g. the member was not cached.
func (b *Bot) OnMemberUpdate(ctx context.Context, member platform.Member, before []string) {
	b.handleEvent(ctx, "member update", member, b.roles.OnRoleChange(ctx, member, before))
}

func (b *Bot) OnMemberJoin(ctx context.Context, member platform.Member) {
	b.handleEvent(ctx, "member join", member, b.roles.OnJoin(ctx, member))
}

func (b *Bot) OnMemberLeave(ctx context.Context, member platform.Member) {
	b.handleEvent(ctx, "member leave", member, b.roles.OnLeave(ctx, member))
}

func (b *Bot) handleEvent(ctx context.Context, event string, member platform.Member, err error) {
	if err == nil {
		return
	}
	b.log.Error(event+" failed", "member", member.ID, "err", err)
	b.ops.Notify(ctx, fmt.Sprintf(constants.MsgCommandError, err))
}
