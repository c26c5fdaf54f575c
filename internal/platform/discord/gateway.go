// Package discord implements platform.Gateway on top of a discordgo session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"go-training-bot/internal/platform"
)

const (
	messagePage  = 100
	reactionPage = 100
	memberPage   = 1000
)

// Gateway is bound to one guild.
type Gateway struct {
	s       *discordgo.Session
	guildID string

	selfOnce sync.Once
	self     platform.User
	selfErr  error
}

func New(s *discordgo.Session, guildID string) *Gateway {
	return &Gateway{s: s, guildID: guildID}
}

func (g *Gateway) GuildID() string { return g.guildID }

func (g *Gateway) Self(ctx context.Context) (platform.User, error) {
	if g.s.State != nil && g.s.State.User != nil {
		return toUser(g.s.State.User), nil
	}
	g.selfOnce.Do(func() {
		u, err := g.s.User("@me", discordgo.WithContext(ctx))
		if err != nil {
			g.selfErr = wrap(err, "self")
			return
		}
		g.self = toUser(u)
	})
	return g.self, g.selfErr
}

func (g *Gateway) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	ch, err := g.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, wrap(err, "channel "+channelID)
	}
	if ch.GuildID != "" && ch.GuildID != g.guildID {
		return platform.Channel{}, fmt.Errorf("channel %s belongs to another guild: %w", channelID, platform.ErrNotFound)
	}
	return toChannel(ch), nil
}

func (g *Gateway) Channels(ctx context.Context) ([]platform.Channel, error) {
	chs, err := g.s.GuildChannels(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "guild channels")
	}
	out := make([]platform.Channel, 0, len(chs))
	for _, ch := range chs {
		out = append(out, toChannel(ch))
	}
	return out, nil
}

func (g *Gateway) CreateChannel(ctx context.Context, spec platform.ChannelSpec) (platform.Channel, error) {
	ch, err := g.s.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: toOverwrites(spec.Overwrites),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, wrap(err, "create channel "+spec.Name)
	}
	return toChannel(ch), nil
}

func (g *Gateway) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := g.s.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return wrap(err, "delete channel "+channelID)
}

// History pages backwards from the newest message until limit is reached.
func (g *Gateway) History(ctx context.Context, channelID string, limit int) ([]platform.Message, error) {
	out := make([]platform.Message, 0, limit)
	before := ""
	for len(out) < limit {
		n := min(limit-len(out), messagePage)
		page, err := g.s.ChannelMessages(channelID, n, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap(err, "history "+channelID)
		}
		for _, m := range page {
			out = append(out, toMessage(m))
		}
		if len(page) < n {
			break
		}
		before = page[len(page)-1].ID
	}
	return out, nil
}

func (g *Gateway) Send(ctx context.Context, channelID, content string) (platform.Message, error) {
	m, err := g.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Message{}, wrap(err, "send to "+channelID)
	}
	return toMessage(m), nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := g.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return wrap(err, "delete message "+messageID)
}

func (g *Gateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	err := g.s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
	return wrap(err, "react "+emoji+" on "+messageID)
}

func (g *Gateway) Reactors(ctx context.Context, channelID, messageID, emoji string) ([]platform.User, error) {
	var out []platform.User
	after := ""
	for {
		page, err := g.s.MessageReactions(channelID, messageID, emoji, reactionPage, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap(err, "reactions on "+messageID)
		}
		for _, u := range page {
			out = append(out, toUser(u))
		}
		if len(page) < reactionPage {
			return out, nil
		}
		after = page[len(page)-1].ID
	}
}

func (g *Gateway) DirectMessage(ctx context.Context, userID, content string) error {
	dm, err := g.s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return wrap(err, "open dm with "+userID)
	}
	_, err = g.s.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx))
	return wrap(err, "dm "+userID)
}

func (g *Gateway) Members(ctx context.Context) ([]platform.Member, error) {
	var out []platform.Member
	after := ""
	for {
		page, err := g.s.GuildMembers(g.guildID, after, memberPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap(err, "guild members")
		}
		for _, m := range page {
			out = append(out, toMember(m))
		}
		if len(page) < memberPage {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *Gateway) Member(ctx context.Context, userID string) (platform.Member, error) {
	m, err := g.s.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, wrap(err, "member "+userID)
	}
	return toMember(m), nil
}

func (g *Gateway) Roles(ctx context.Context) ([]platform.Role, error) {
	roles, err := g.s.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "guild roles")
	}
	out := make([]platform.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, platform.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (g *Gateway) GrantRole(ctx context.Context, userID, roleID string) error {
	err := g.s.GuildMemberRoleAdd(g.guildID, userID, roleID, discordgo.WithContext(ctx))
	return wrap(err, "grant role "+roleID+" to "+userID)
}

// IsAdministrator is true for the guild owner and for holders of a role with
// the administrator permission.
func (g *Gateway) IsAdministrator(ctx context.Context, userID string) (bool, error) {
	guild, err := g.s.Guild(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, wrap(err, "guild")
	}
	if guild.OwnerID == userID {
		return true, nil
	}
	m, err := g.s.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, wrap(err, "member "+userID)
	}
	roles, err := g.s.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, wrap(err, "guild roles")
	}
	return hasAdministrator(roles, m.Roles, g.guildID), nil
}

// wrap maps a 404 from the REST API onto platform.ErrNotFound. A nil err stays nil.
func wrap(err error, what string) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", what, platform.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

var _ platform.Gateway = (*Gateway)(nil)
