package channels

import (
	"context"
	"testing"

	"go-training-bot/internal/logger"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/platform/platformtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	guild   *platformtest.Guild
	prov    *Provisioner
	cat     Category
	sponsor string
	member  platform.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := platformtest.NewGuild()
	sponsor := g.AddRole("VM")
	catID := g.AddChannel("Einzelgespräche", "", true)
	g.AddMember("42", "Jürgen", false)
	m, err := g.Member(context.Background(), "42")
	require.NoError(t, err)
	return &fixture{
		guild:   g,
		prov:    NewProvisioner(g, NewListingRepository(g), "VM", logger.Discard()),
		cat:     Category{Key: "private", ID: catID, NamePrefix: "einzelgespraech", Onboarding: func(m string) string { return "Hallo " + m }},
		sponsor: sponsor,
		member:  m,
	}
}

func TestEnsure_CreatesWithTemplate(t *testing.T) {
	f := newFixture(t)
	ch, created, err := f.prov.Ensure(context.Background(), f.member, f.cat)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, "einzelgespraech-juergen", ch.Name)
	assert.Equal(t, f.cat.ID, ch.ParentID)
	owner, ok := ParseOwner(ch.Topic)
	require.True(t, ok)
	assert.Equal(t, "42", owner)

	rw := platform.PermView | platform.PermSend
	assert.ElementsMatch(t, []platform.Overwrite{
		{ID: f.guild.GuildID(), Kind: platform.OverwriteRole, Deny: platform.PermView},
		{ID: "42", Kind: platform.OverwriteMember, Allow: rw},
		{ID: f.sponsor, Kind: platform.OverwriteRole, Allow: rw},
		{ID: "bot-self", Kind: platform.OverwriteMember, Allow: rw},
	}, ch.Overwrites)

	msgs := f.guild.Messages(ch.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hallo <@42>", msgs[0].Content)
}

func TestEnsure_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, created, err := f.prov.Ensure(ctx, f.member, f.cat)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.prov.Ensure(ctx, f.member, f.cat)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.guild.CreatedChannels)
	assert.Len(t, f.guild.ChannelsIn(f.cat.ID), 1)
}

func TestEnsure_SurvivesRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.prov.Ensure(ctx, f.member, f.cat)
	require.NoError(t, err)

	renamed := f.member
	renamed.Name = "Jogi"
	_, created, err := f.prov.Ensure(ctx, renamed, f.cat)
	require.NoError(t, err)
	assert.False(t, created)

	deleted, err := f.prov.Teardown(ctx, renamed, f.cat)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, f.guild.ChannelsIn(f.cat.ID))
}

func TestEnsure_OtherMembersChannelDoesNotCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.guild.AddChannelWith(platform.Channel{Name: "einzelgespraech-juergen", ParentID: f.cat.ID, Topic: OwnerTopic("99")})

	_, created, err := f.prov.Ensure(ctx, f.member, f.cat)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, f.guild.ChannelsIn(f.cat.ID), 2)
}

func TestEnsure_MissingConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.prov.Ensure(ctx, f.member, Category{Key: "private"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, _, err = f.prov.Ensure(ctx, f.member, Category{Key: "private", ID: "gone"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	noSponsor := NewProvisioner(f.guild, NewListingRepository(f.guild), "Nobody", logger.Discard())
	_, _, err = noSponsor.Ensure(ctx, f.member, f.cat)
	assert.ErrorIs(t, err, ErrMissingConfig)

	assert.Zero(t, f.guild.CreatedChannels)
}

func TestTeardown_NoChannelIsNoop(t *testing.T) {
	f := newFixture(t)
	deleted, err := f.prov.Teardown(context.Background(), f.member, f.cat)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Zero(t, f.guild.DeletedChannels)

	deleted, err = f.prov.Teardown(context.Background(), f.member, Category{Key: "disabled"})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTeardown_LegacyChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byName := f.guild.AddChannelWith(platform.Channel{Name: "einzelgespraech-juergen", ParentID: f.cat.ID})
	deleted, err := f.prov.Teardown(ctx, f.member, f.cat)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = f.guild.Channel(ctx, byName)
	assert.ErrorIs(t, err, platform.ErrNotFound)

	f.guild.AddChannelWith(platform.Channel{
		Name:       "einzelgespräch-old-name",
		ParentID:   f.cat.ID,
		Overwrites: []platform.Overwrite{{ID: "42", Kind: platform.OverwriteMember, Allow: platform.PermView}},
	})
	deleted, err = f.prov.Teardown(ctx, f.member, f.cat)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, f.guild.ChannelsIn(f.cat.ID))
}

func TestFind_TaggedBeatsLegacy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.guild.AddChannelWith(platform.Channel{Name: "einzelgespraech-juergen", ParentID: f.cat.ID})
	tagged := f.guild.AddChannelWith(platform.Channel{Name: "renamed", ParentID: f.cat.ID, Topic: OwnerTopic("42")})

	ch, ok, err := f.prov.Find(ctx, f.member, f.cat)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tagged, ch.ID)
}
