// Package platform describes the slice of the chat platform the bot talks to.
// Every component receives a Gateway through its constructor; the Discord
// adapter lives in platform/discord and an in-memory fake in platformtest.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a channel, message, member or role does not exist.
var ErrNotFound = errors.New("not found")

// Permission is a small bit set of the channel permissions the bot manages.
type Permission uint8

const (
	PermView Permission = 1 << iota
	PermSend
)

// OverwriteKind tells whether an overwrite targets a role or a single member.
type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

type Overwrite struct {
	ID    string
	Kind  OverwriteKind
	Allow Permission
	Deny  Permission
}

type User struct {
	ID   string
	Name string
	Bot  bool
}

type Member struct {
	User
	RoleIDs []string
}

// HasRole reports whether the member currently holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

type Role struct {
	ID   string
	Name string
}

type Channel struct {
	ID         string
	Name       string
	ParentID   string
	Topic      string
	Category   bool
	Overwrites []Overwrite
}

// ChannelSpec is everything needed to create a text channel.
type ChannelSpec struct {
	Name       string
	ParentID   string
	Topic      string
	Overwrites []Overwrite
}

type Message struct {
	ID        string
	ChannelID string
	Author    User
	Content   string
}

// Gateway is bound to a single guild. Blocking calls take a context that is
// handed down to the transport.
type Gateway interface {
	// Self returns the bot's own account.
	Self(ctx context.Context) (User, error)
	// GuildID is the id of the guild the gateway is bound to. It doubles as the
	// id of the implicit everyone role.
	GuildID() string

	Channel(ctx context.Context, channelID string) (Channel, error)
	Channels(ctx context.Context) ([]Channel, error)
	CreateChannel(ctx context.Context, spec ChannelSpec) (Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error

	// History returns up to limit messages, newest first.
	History(ctx context.Context, channelID string, limit int) ([]Message, error)
	Send(ctx context.Context, channelID, content string) (Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	// Reactors lists every account that reacted with emoji, following pages.
	Reactors(ctx context.Context, channelID, messageID, emoji string) ([]User, error)
	DirectMessage(ctx context.Context, userID, content string) error

	Members(ctx context.Context) ([]Member, error)
	Member(ctx context.Context, userID string) (Member, error)
	Roles(ctx context.Context) ([]Role, error)
	GrantRole(ctx context.Context, userID, roleID string) error
	IsAdministrator(ctx context.Context, userID string) (bool, error)
}

// RoleByName resolves a role by its display name, case-insensitively.
func RoleByName(ctx context.Context, gw Gateway, name string) (Role, error) {
	roles, err := gw.Roles(ctx)
	if err != nil {
		return Role{}, fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return Role{}, fmt.Errorf("role %q: %w", name, ErrNotFound)
}

func MentionUser(id string) string    { return "<@" + id + ">" }
func MentionChannel(id string) string { return "<#" + id + ">" }
func MentionRole(id string) string    { return "<@&" + id + ">" }
