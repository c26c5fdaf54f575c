// Package roles turns role transitions into channel provisioning.
//
// Per (member, tracked role) the state is Unheld or Held. Unheld->Held
// ensures the role's channel, Held->Unheld tears it down, and leaving the
// guild tears down every category whatever roles were held.
package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-training-bot/internal/channels"
	"go-training-bot/internal/constants"
	"go-training-bot/internal/platform"
)

type Provisioner interface {
	Ensure(ctx context.Context, member platform.Member, cat channels.Category) (platform.Channel, bool, error)
	Teardown(ctx context.Context, member platform.Member, cat channels.Category) (bool, error)
}

// Notifier receives operational log lines.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Tracked binds a role name to the category its holders get a channel in.
type Tracked struct {
	Role     string
	Category channels.Category
}

type Options struct {
	Tracked []Tracked
	// Probationary is granted on join.
	Probationary string
	// ProvisionOnJoin also creates the probationary channel right away
	// instead of waiting for the role-update event the grant causes.
	ProvisionOnJoin bool
}

type Manager struct {
	gw     platform.Gateway
	prov   Provisioner
	opts   Options
	notify Notifier
	log    *slog.Logger
}

func NewManager(gw platform.Gateway, prov Provisioner, opts Options, notify Notifier, log *slog.Logger) *Manager {
	return &Manager{gw: gw, prov: prov, opts: opts, notify: notify, log: log}
}

// OnRoleChange handles a member update. A nil before means the previous role
// set is unknown and the member is reconciled against its current roles.
func (m *Manager) OnRoleChange(ctx context.Context, member platform.Member, before []string) error {
	if member.Bot {
		return nil
	}
	if before == nil {
		return m.Reconcile(ctx, member)
	}
	prev := platform.Member{User: member.User, RoleIDs: before}

	var errs []error
	for _, tr := range m.opts.Tracked {
		role, ok := m.resolve(ctx, tr.Role)
		if !ok {
			continue
		}
		had, has := prev.HasRole(role.ID), member.HasRole(role.ID)
		switch {
		case !had && has:
			errs = append(errs, m.ensure(ctx, member, tr.Category))
		case had && !has:
			errs = append(errs, m.teardown(ctx, member, tr.Category))
		}
	}
	return errors.Join(errs...)
}

// Reconcile ensures channels for held tracked roles and tears down the rest.
func (m *Manager) Reconcile(ctx context.Context, member platform.Member) error {
	var errs []error
	for _, tr := range m.opts.Tracked {
		role, ok := m.resolve(ctx, tr.Role)
		if !ok {
			continue
		}
		if member.HasRole(role.ID) {
			errs = append(errs, m.ensure(ctx, member, tr.Category))
		} else {
			errs = append(errs, m.teardown(ctx, member, tr.Category))
		}
	}
	return errors.Join(errs...)
}

// OnJoin grants the probationary role and, by policy, its channel.
func (m *Manager) OnJoin(ctx context.Context, member platform.Member) error {
	if member.Bot || m.opts.Probationary == "" {
		return nil
	}
	role, ok := m.resolve(ctx, m.opts.Probationary)
	if !ok {
		return nil
	}
	if err := m.gw.GrantRole(ctx, member.ID, role.ID); err != nil {
		return fmt.Errorf("grant %s to %s: %w", role.Name, member.ID, err)
	}
	m.notify.Notify(ctx, fmt.Sprintf(constants.MsgRoleGranted, member.Name, role.Name))

	if !m.opts.ProvisionOnJoin {
		return nil
	}
	for _, tr := range m.opts.Tracked {
		if tr.Role == m.opts.Probationary {
			return m.ensure(ctx, member, tr.Category)
		}
	}
	return nil
}

// OnLeave removes the member's channels in every tracked category.
func (m *Manager) OnLeave(ctx context.Context, member platform.Member) error {
	var errs []error
	for _, tr := range m.opts.Tracked {
		errs = append(errs, m.teardown(ctx, member, tr.Category))
	}
	return errors.Join(errs...)
}

func (m *Manager) resolve(ctx context.Context, name string) (platform.Role, bool) {
	role, err := platform.RoleByName(ctx, m.gw, name)
	if err != nil {
		m.log.Error("tracked role not resolvable", "role", name, "err", err)
		m.notify.Notify(ctx, fmt.Sprintf(constants.MsgMissingConfig, "Rolle "+name))
		return platform.Role{}, false
	}
	return role, true
}

func (m *Manager) ensure(ctx context.Context, member platform.Member, cat channels.Category) error {
	_, created, err := m.prov.Ensure(ctx, member, cat)
	if errors.Is(err, channels.ErrMissingConfig) {
		m.log.Error("channel not provisioned", "member", member.ID, "category", cat.Key, "err", err)
		m.notify.Notify(ctx, fmt.Sprintf(constants.MsgMissingConfig, "Kategorie oder Rolle für "+cat.Key))
		return nil
	}
	if err != nil {
		return err
	}
	if created {
		m.notify.Notify(ctx, fmt.Sprintf(constants.MsgChannelCreated, member.Name))
	}
	return nil
}

func (m *Manager) teardown(ctx context.Context, member platform.Member, cat channels.Category) error {
	deleted, err := m.prov.Teardown(ctx, member, cat)
	if err != nil {
		return err
	}
	if deleted {
		m.notify.Notify(ctx, fmt.Sprintf(constants.MsgChannelDeleted, member.Name))
	}
	return nil
}
