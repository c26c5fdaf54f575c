package roles

import (
	"context"
	"sync"
	"testing"

	"go-training-bot/internal/channels"
	"go-training-bot/internal/logger"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/platform/platformtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Notify(_ context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

type fixture struct {
	guild     *platformtest.Guild
	manager   *Manager
	notes     *recorder
	member    string
	probation string
	private   channels.Category
	trial     channels.Category
}

func newFixture(t *testing.T, provisionOnJoin bool) *fixture {
	t.Helper()
	g := platformtest.NewGuild()
	member := g.AddRole("Pizzen")
	probation := g.AddRole("Probetraining")
	g.AddRole("VM")
	private := channels.Category{Key: "private", ID: g.AddChannel("Einzelgespräche", "", true), NamePrefix: "einzelgespraech"}
	trial := channels.Category{Key: "probation", ID: g.AddChannel("Probetraining", "", true), NamePrefix: "probetraining"}

	notes := &recorder{}
	prov := channels.NewProvisioner(g, channels.NewListingRepository(g), "VM", logger.Discard())
	m := NewManager(g, prov, Options{
		Tracked: []Tracked{
			{Role: "Pizzen", Category: private},
			{Role: "Probetraining", Category: trial},
		},
		Probationary:    "Probetraining",
		ProvisionOnJoin: provisionOnJoin,
	}, notes, logger.Discard())
	return &fixture{guild: g, manager: m, notes: notes, member: member, probation: probation, private: private, trial: trial}
}

func (f *fixture) get(t *testing.T, id string) platform.Member {
	t.Helper()
	m, err := f.guild.Member(context.Background(), id)
	require.NoError(t, err)
	return m
}

func TestOnRoleChange_GainAndLoss(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.guild.AddMember("1", "anna", false)

	f.guild.SetRoles("1", f.member)
	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{}))
	assert.Len(t, f.guild.ChannelsIn(f.private.ID), 1)
	assert.Empty(t, f.guild.ChannelsIn(f.trial.ID))

	// unrelated update while holding the role does nothing
	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{f.member}))
	assert.Equal(t, 1, f.guild.CreatedChannels)

	f.guild.SetRoles("1")
	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{f.member}))
	assert.Empty(t, f.guild.ChannelsIn(f.private.ID))
	assert.Contains(t, f.notes.lines, "🗑️ Einzelgespräch gelöscht für anna")
}

func TestOnRoleChange_DoubleEventCreatesOnce(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.guild.AddMember("1", "anna", false, f.member)

	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{}))
	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{}))
	assert.Len(t, f.guild.ChannelsIn(f.private.ID), 1)
}

func TestOnRoleChange_UnknownBeforeReconciles(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.guild.AddMember("1", "anna", false, f.probation)

	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), nil))
	assert.Len(t, f.guild.ChannelsIn(f.trial.ID), 1)

	f.guild.SetRoles("1", f.member)
	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), nil))
	assert.Empty(t, f.guild.ChannelsIn(f.trial.ID))
	assert.Len(t, f.guild.ChannelsIn(f.private.ID), 1)
}

func TestOnLeave_TearsDownEveryCategory(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.guild.AddMember("1", "anna", false, f.member, f.probation)
	require.NoError(t, f.manager.Reconcile(ctx, f.get(t, "1")))
	require.Len(t, f.guild.ChannelsIn(f.private.ID), 1)
	require.Len(t, f.guild.ChannelsIn(f.trial.ID), 1)

	// roles are already gone when the leave event arrives
	gone := platform.Member{User: platform.User{ID: "1", Name: "anna"}}
	f.guild.RemoveMember("1")
	require.NoError(t, f.manager.OnLeave(ctx, gone))
	assert.Empty(t, f.guild.ChannelsIn(f.private.ID))
	assert.Empty(t, f.guild.ChannelsIn(f.trial.ID))
}

func TestOnJoin_GrantOnly(t *testing.T) {
	f := newFixture(t, false)
	f.guild.AddMember("1", "anna", false)
	require.NoError(t, f.manager.OnJoin(context.Background(), f.get(t, "1")))

	assert.True(t, f.get(t, "1").HasRole(f.probation))
	assert.Empty(t, f.guild.ChannelsIn(f.trial.ID))
}

func TestOnJoin_GrantAndProvision(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.guild.AddMember("1", "anna", false)
	require.NoError(t, f.manager.OnJoin(ctx, f.get(t, "1")))
	assert.Len(t, f.guild.ChannelsIn(f.trial.ID), 1)

	// the role-update event caused by the grant finds the channel
	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{}))
	assert.Len(t, f.guild.ChannelsIn(f.trial.ID), 1)
}

func TestOnJoin_IgnoresBots(t *testing.T) {
	f := newFixture(t, true)
	f.guild.AddMember("9", "helper", true)
	require.NoError(t, f.manager.OnJoin(context.Background(), f.get(t, "9")))
	assert.False(t, f.get(t, "9").HasRole(f.probation))
}

func TestMissingCategoryIsLoggedNotFatal(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.manager.opts.Tracked[0].Category.ID = "deleted-category"
	f.guild.AddMember("1", "anna", false, f.member)

	require.NoError(t, f.manager.OnRoleChange(ctx, f.get(t, "1"), []string{}))
	assert.Zero(t, f.guild.CreatedChannels)
	require.NotEmpty(t, f.notes.lines)
	assert.Contains(t, f.notes.lines[0], "fehlt")
}
