package channels

import (
	"context"
	"fmt"

	"go-training-bot/internal/platform"
)

// Repository finds a member's managed channel. The guild channel listing is
// the only store; an index can replace it behind this interface.
type Repository interface {
	FindManagedChannel(ctx context.Context, member platform.Member, cat Category) (platform.Channel, bool, error)
}

type ListingRepository struct {
	gw platform.Gateway
}

func NewListingRepository(gw platform.Gateway) *ListingRepository {
	return &ListingRepository{gw: gw}
}

// FindManagedChannel matches the owner topic first. Untagged channels from
// before the topic existed match by derived name or by a member overwrite.
func (r *ListingRepository) FindManagedChannel(ctx context.Context, member platform.Member, cat Category) (platform.Channel, bool, error) {
	all, err := r.gw.Channels(ctx)
	if err != nil {
		return platform.Channel{}, false, fmt.Errorf("list channels: %w", err)
	}

	var legacy *platform.Channel
	for i := range all {
		ch := all[i]
		if ch.ParentID != cat.ID || ch.Category {
			continue
		}
		owner, tagged := ParseOwner(ch.Topic)
		if tagged {
			if owner == member.ID {
				return ch, true, nil
			}
			continue
		}
		if legacy == nil && (ch.Name == ChannelName(cat, member.Name) || hasMemberOverwrite(ch, member.ID)) {
			legacy = &all[i]
		}
	}
	if legacy != nil {
		return *legacy, true, nil
	}
	return platform.Channel{}, false, nil
}

func hasMemberOverwrite(ch platform.Channel, memberID string) bool {
	for _, o := range ch.Overwrites {
		if o.Kind == platform.OverwriteMember && o.ID == memberID {
			return true
		}
	}
	return false
}
