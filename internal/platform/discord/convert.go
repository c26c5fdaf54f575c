package discord

import (
	"github.com/bwmarrin/discordgo"

	"go-training-bot/internal/platform"
)

func toUser(u *discordgo.User) platform.User {
	if u == nil {
		return platform.User{}
	}
	return platform.User{ID: u.ID, Name: u.Username, Bot: u.Bot}
}

func toMember(m *discordgo.Member) platform.Member {
	return platform.Member{User: toUser(m.User), RoleIDs: append([]string(nil), m.Roles...)}
}

// ToMember converts a gateway event member.
func ToMember(m *discordgo.Member) platform.Member { return toMember(m) }

func toMessage(m *discordgo.Message) platform.Message {
	return platform.Message{ID: m.ID, ChannelID: m.ChannelID, Author: toUser(m.Author), Content: m.Content}
}

func toChannel(ch *discordgo.Channel) platform.Channel {
	out := platform.Channel{
		ID:       ch.ID,
		Name:     ch.Name,
		ParentID: ch.ParentID,
		Topic:    ch.Topic,
		Category: ch.Type == discordgo.ChannelTypeGuildCategory,
	}
	for _, o := range ch.PermissionOverwrites {
		kind := platform.OverwriteRole
		if o.Type == discordgo.PermissionOverwriteTypeMember {
			kind = platform.OverwriteMember
		}
		out.Overwrites = append(out.Overwrites, platform.Overwrite{
			ID:    o.ID,
			Kind:  kind,
			Allow: fromBits(o.Allow),
			Deny:  fromBits(o.Deny),
		})
	}
	return out
}

func toOverwrites(ows []platform.Overwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(ows))
	for _, o := range ows {
		typ := discordgo.PermissionOverwriteTypeRole
		if o.Kind == platform.OverwriteMember {
			typ = discordgo.PermissionOverwriteTypeMember
		}
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    o.ID,
			Type:  typ,
			Allow: toBits(o.Allow),
			Deny:  toBits(o.Deny),
		})
	}
	return out
}

func toBits(p platform.Permission) int64 {
	var bits int64
	if p&platform.PermView != 0 {
		bits |= discordgo.PermissionViewChannel
	}
	if p&platform.PermSend != 0 {
		bits |= discordgo.PermissionSendMessages
	}
	return bits
}

func fromBits(bits int64) platform.Permission {
	var p platform.Permission
	if bits&discordgo.PermissionViewChannel != 0 {
		p |= platform.PermView
	}
	if bits&discordgo.PermissionSendMessages != 0 {
		p |= platform.PermSend
	}
	return p
}

// hasAdministrator checks the member's roles plus the everyone role, whose id
// equals the guild id.
func hasAdministrator(roles []*discordgo.Role, memberRoles []string, guildID string) bool {
	held := map[string]bool{guildID: true}
	for _, id := range memberRoles {
		held[id] = true
	}
	for _, r := range roles {
		if held[r.ID] && r.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

// ToMessage converts a gateway event message.
func ToMessage(m *discordgo.Message) platform.Message { return toMessage(m) }
