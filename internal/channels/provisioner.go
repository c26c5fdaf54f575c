// Package channels keeps exactly one private channel per member and category.
//
// The existence scan before creation is the only de-duplication. Two
// overlapping Ensure calls for the same member can both miss and both create;
// that rare duplicate is accepted rather than serialized away.
package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"go-training-bot/internal/platform"
	"go-training-bot/internal/utils"
)

// ErrMissingConfig means a category or the sponsor role does not exist; nothing was changed.
var ErrMissingConfig = errors.New("missing configuration")

var ownerRegex = regexp.MustCompile(`owner:(\S+)`)

// Category is a channel grouping holding one managed channel per member.
type Category struct {
	Key string
	// ID of the category channel; empty disables the category.
	ID         string
	NamePrefix string
	Onboarding func(memberMention string) string
}

// OwnerTopic is the metadata stored on a managed channel. It survives
// renames of the member, unlike the display name.
func OwnerTopic(memberID string) string {
	return "owner:" + memberID
}

// ParseOwner reads the owner id back from a channel topic.
func ParseOwner(topic string) (string, bool) {
	m := ownerRegex.FindStringSubmatch(topic)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ChannelName derives the display name of a member's channel.
func ChannelName(cat Category, memberName string) string {
	return cat.NamePrefix + "-" + utils.SafeName(memberName)
}

type Provisioner struct {
	gw          platform.Gateway
	repo        Repository
	sponsorRole string
	log         *slog.Logger
}

func NewProvisioner(gw platform.Gateway, repo Repository, sponsorRole string, log *slog.Logger) *Provisioner {
	return &Provisioner{gw: gw, repo: repo, sponsorRole: sponsorRole, log: log}
}

func (p *Provisioner) Find(ctx context.Context, member platform.Member, cat Category) (platform.Channel, bool, error) {
	if cat.ID == "" {
		return platform.Channel{}, false, nil
	}
	return p.repo.FindManagedChannel(ctx, member, cat)
}

// Ensure creates the member's channel in cat unless one exists already.
// It reports whether a channel was created.
func (p *Provisioner) Ensure(ctx context.Context, member platform.Member, cat Category) (platform.Channel, bool, error) {
	if cat.ID == "" {
		return platform.Channel{}, false, fmt.Errorf("%w: category %s has no id", ErrMissingConfig, cat.Key)
	}
	if _, err := p.gw.Channel(ctx, cat.ID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return platform.Channel{}, false, fmt.Errorf("%w: category %s (%s)", ErrMissingConfig, cat.Key, cat.ID)
		}
		return platform.Channel{}, false, fmt.Errorf("resolve category %s: %w", cat.Key, err)
	}
	sponsor, err := platform.RoleByName(ctx, p.gw, p.sponsorRole)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return platform.Channel{}, false, fmt.Errorf("%w: role %s", ErrMissingConfig, p.sponsorRole)
		}
		return platform.Channel{}, false, err
	}

	existing, ok, err := p.repo.FindManagedChannel(ctx, member, cat)
	if err != nil {
		return platform.Channel{}, false, err
	}
	if ok {
		return existing, false, nil
	}

	self, err := p.gw.Self(ctx)
	if err != nil {
		return platform.Channel{}, false, fmt.Errorf("resolve self: %w", err)
	}
	ch, err := p.gw.CreateChannel(ctx, platform.ChannelSpec{
		Name:       ChannelName(cat, member.Name),
		ParentID:   cat.ID,
		Topic:      OwnerTopic(member.ID),
		Overwrites: Overwrites(p.gw.GuildID(), member.ID, sponsor.ID, self.ID),
	})
	if err != nil {
		return platform.Channel{}, false, fmt.Errorf("create channel for %s: %w", member.ID, err)
	}
	p.log.Info("managed channel created", "member", member.ID, "category", cat.Key, "channel", ch.ID)

	if cat.Onboarding != nil {
		if _, err := p.gw.Send(ctx, ch.ID, cat.Onboarding(platform.MentionUser(member.ID))); err != nil {
			p.log.Warn("onboarding message not sent", "channel", ch.ID, "err", err)
		}
	}
	return ch, true, nil
}

// Teardown deletes the member's channel in cat. It reports whether one existed.
func (p *Provisioner) Teardown(ctx context.Context, member platform.Member, cat Category) (bool, error) {
	if cat.ID == "" {
		return false, nil
	}
	ch, ok, err := p.repo.FindManagedChannel(ctx, member, cat)
	if err != nil || !ok {
		return false, err
	}
	if err := p.gw.DeleteChannel(ctx, ch.ID); err != nil {
		return false, fmt.Errorf("delete channel %s: %w", ch.ID, err)
	}
	p.log.Info("managed channel deleted", "member", member.ID, "category", cat.Key, "channel", ch.ID)
	return true, nil
}

// Overwrites is the fixed permission template of a managed channel: hidden
// from everyone, readable and writable for the owner, the sponsor role and the bot.
func Overwrites(everyoneID, ownerID, sponsorRoleID, selfID string) []platform.Overwrite {
	rw := platform.PermView | platform.PermSend
	return []platform.Overwrite{
		{ID: everyoneID, Kind: platform.OverwriteRole, Deny: platform.PermView},
		{ID: ownerID, Kind: platform.OverwriteMember, Allow: rw},
		{ID: sponsorRoleID, Kind: platform.OverwriteRole, Allow: rw},
		{ID: selfID, Kind: platform.OverwriteMember, Allow: rw},
	}
}
