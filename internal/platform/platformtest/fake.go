// Package platformtest provides an in-memory guild implementing platform.Gateway.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go-training-bot/internal/platform"
)

// ErrDMClosed is returned by DirectMessage for members listed in DMClosed.
var ErrDMClosed = errors.New("cannot send messages to this user")

type Sent struct {
	ChannelID string
	Content   string
}

// Guild is a fake guild. Zero value is not usable; call NewGuild.
type Guild struct {
	mu sync.Mutex

	guildID  string
	self     platform.User
	nextID   int
	channels map[string]*platform.Channel
	order    []string
	messages map[string][]platform.Message // oldest first
	// reactions[messageID][emoji] -> users in reaction order
	reactions map[string]map[string][]platform.User
	members   map[string]*platform.Member
	roles     []platform.Role
	admins    map[string]bool

	DMClosed map[string]bool
	DMs      []Sent
	// Reacted records AddReaction calls as "messageID emoji" in call order.
	Reacted []string

	CreatedChannels int
	DeletedChannels int
	DeletedMessages int
}

func NewGuild() *Guild {
	g := &Guild{
		guildID:   "guild",
		self:      platform.User{ID: "bot-self", Name: "trainingbot", Bot: true},
		channels:  map[string]*platform.Channel{},
		messages:  map[string][]platform.Message{},
		reactions: map[string]map[string][]platform.User{},
		members:   map[string]*platform.Member{},
		admins:    map[string]bool{},
		DMClosed:  map[string]bool{},
	}
	g.members[g.self.ID] = &platform.Member{User: g.self}
	return g
}

func (g *Guild) id(prefix string) string {
	g.nextID++
	return prefix + strconv.Itoa(g.nextID)
}

// AddRole registers a role and returns its id.
func (g *Guild) AddRole(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := platform.Role{ID: g.id("role"), Name: name}
	g.roles = append(g.roles, r)
	return r.ID
}

// AddMember registers a member holding roleIDs.
func (g *Guild) AddMember(id, name string, bot bool, roleIDs ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[id] = &platform.Member{User: platform.User{ID: id, Name: name, Bot: bot}, RoleIDs: roleIDs}
}

func (g *Guild) RemoveMember(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, id)
}

func (g *Guild) SetRoles(memberID string, roleIDs ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m, ok := g.members[memberID]; ok {
		m.RoleIDs = roleIDs
	}
}

func (g *Guild) SetAdmin(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.admins[userID] = true
}

// AddChannel registers a channel (or category when category is true).
func (g *Guild) AddChannel(name, parentID string, category bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := &platform.Channel{ID: g.id("chan"), Name: name, ParentID: parentID, Category: category}
	g.channels[ch.ID] = ch
	g.order = append(g.order, ch.ID)
	return ch.ID
}

// AddChannelWith registers a fully specified channel, keeping its id if set.
func (g *Guild) AddChannelWith(ch platform.Channel) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ch.ID == "" {
		ch.ID = g.id("chan")
	}
	g.channels[ch.ID] = &ch
	g.order = append(g.order, ch.ID)
	return ch.ID
}

// Post appends a message authored by author to channelID.
func (g *Guild) Post(channelID string, author platform.User, content string) platform.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.post(channelID, author, content)
}

func (g *Guild) post(channelID string, author platform.User, content string) platform.Message {
	msg := platform.Message{ID: g.id("msg"), ChannelID: channelID, Author: author, Content: content}
	g.messages[channelID] = append(g.messages[channelID], msg)
	return msg
}

// React records userID reacting to messageID with emoji.
func (g *Guild) React(messageID, emoji string, u platform.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.react(messageID, emoji, u)
}

func (g *Guild) react(messageID, emoji string, u platform.User) {
	byEmoji, ok := g.reactions[messageID]
	if !ok {
		byEmoji = map[string][]platform.User{}
		g.reactions[messageID] = byEmoji
	}
	for _, existing := range byEmoji[emoji] {
		if existing.ID == u.ID {
			return
		}
	}
	byEmoji[emoji] = append(byEmoji[emoji], u)
}

// Messages returns a copy of the channel's messages, oldest first.
func (g *Guild) Messages(channelID string) []platform.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]platform.Message(nil), g.messages[channelID]...)
}

// ChannelsIn returns the channels whose parent is parentID.
func (g *Guild) ChannelsIn(parentID string) []platform.Channel {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []platform.Channel
	for _, id := range g.order {
		if ch, ok := g.channels[id]; ok && ch.ParentID == parentID {
			out = append(out, *ch)
		}
	}
	return out
}

// Self implements platform.Gateway.
func (g *Guild) Self(context.Context) (platform.User, error) { return g.self, nil }

func (g *Guild) GuildID() string { return g.guildID }

func (g *Guild) Channel(_ context.Context, channelID string) (platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return platform.Channel{}, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	return *ch, nil
}

func (g *Guild) Channels(context.Context) ([]platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]platform.Channel, 0, len(g.order))
	for _, id := range g.order {
		if ch, ok := g.channels[id]; ok {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (g *Guild) CreateChannel(_ context.Context, spec platform.ChannelSpec) (platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := &platform.Channel{
		ID:         g.id("chan"),
		Name:       spec.Name,
		ParentID:   spec.ParentID,
		Topic:      spec.Topic,
		Overwrites: append([]platform.Overwrite(nil), spec.Overwrites...),
	}
	g.channels[ch.ID] = ch
	g.order = append(g.order, ch.ID)
	g.CreatedChannels++
	return *ch, nil
}

func (g *Guild) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	delete(g.channels, channelID)
	delete(g.messages, channelID)
	g.DeletedChannels++
	return nil
}

func (g *Guild) History(_ context.Context, channelID string, limit int) ([]platform.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	msgs := g.messages[channelID]
	out := make([]platform.Message, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (g *Guild) Send(_ context.Context, channelID, content string) (platform.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return platform.Message{}, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	return g.post(channelID, g.self, content), nil
}

func (g *Guild) DeleteMessage(_ context.Context, channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	msgs := g.messages[channelID]
	for i, m := range msgs {
		if m.ID == messageID {
			g.messages[channelID] = append(msgs[:i:i], msgs[i+1:]...)
			delete(g.reactions, messageID)
			g.DeletedMessages++
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", messageID, platform.ErrNotFound)
}

func (g *Guild) AddReaction(_ context.Context, _, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.react(messageID, emoji, g.self)
	g.Reacted = append(g.Reacted, messageID+" "+emoji)
	return nil
}

func (g *Guild) Reactors(_ context.Context, _, messageID, emoji string) ([]platform.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]platform.User(nil), g.reactions[messageID][emoji]...), nil
}

func (g *Guild) DirectMessage(_ context.Context, userID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DMClosed[userID] {
		return ErrDMClosed
	}
	g.DMs = append(g.DMs, Sent{ChannelID: userID, Content: content})
	return nil
}

func (g *Guild) Members(context.Context) ([]platform.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]platform.Member, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, *m)
	}
	sortMembers(out)
	return out, nil
}

func (g *Guild) Member(_ context.Context, userID string) (platform.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[userID]
	if !ok {
		return platform.Member{}, fmt.Errorf("member %s: %w", userID, platform.ErrNotFound)
	}
	return *m, nil
}

func (g *Guild) Roles(context.Context) ([]platform.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]platform.Role(nil), g.roles...), nil
}

func (g *Guild) GrantRole(_ context.Context, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[userID]
	if !ok {
		return fmt.Errorf("member %s: %w", userID, platform.ErrNotFound)
	}
	if !m.HasRole(roleID) {
		m.RoleIDs = append(m.RoleIDs, roleID)
	}
	return nil
}

func (g *Guild) IsAdministrator(_ context.Context, userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admins[userID], nil
}

func sortMembers(ms []platform.Member) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}

var _ platform.Gateway = (*Guild)(nil)
