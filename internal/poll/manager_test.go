package poll

import (
	"context"
	"testing"
	"time"

	"go-training-bot/internal/logger"
	"go-training-bot/internal/platform"
	"go-training-bot/internal/platform/platformtest"
	"go-training-bot/internal/votes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainingDays = []Day{
	{Weekday: 0, Label: "Montag"},
	{Weekday: 1, Label: "Dienstag"},
	{Weekday: 3, Label: "Donnerstag"},
}

type fixture struct {
	guild   *platformtest.Guild
	channel string
	manager *Manager
	loc     *time.Location
}

func newFixture(t *testing.T, now time.Time, announce bool) *fixture {
	t.Helper()
	loc := now.Location()
	g := platformtest.NewGuild()
	g.AddRole("Pizzen")
	ch := g.AddChannel("training", "", false)
	m := NewManager(g, NewHistoryRepository(g, 100, loc), Options{
		Days:       trainingDays,
		Location:   loc,
		Announce:   announce,
		MemberRole: "Pizzen",
	}, logger.Discard())
	m.now = func() time.Time { return now }
	return &fixture{guild: g, channel: ch, manager: m, loc: loc}
}

func wednesday(t *testing.T) time.Time {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return time.Date(2026, time.October, 14, 20, 0, 0, 0, loc)
}

func TestCreateCycle_PublishesOnePostPerDay(t *testing.T) {
	f := newFixture(t, wednesday(t), false)
	cycle, err := f.manager.CreateCycle(context.Background(), f.channel)
	require.NoError(t, err)
	require.Len(t, cycle.Items, 3)

	want := []time.Time{
		time.Date(2026, time.October, 19, 0, 0, 0, 0, f.loc),
		time.Date(2026, time.October, 20, 0, 0, 0, 0, f.loc),
		time.Date(2026, time.October, 22, 0, 0, 0, 0, f.loc),
	}
	for i, item := range cycle.Items {
		assert.Equal(t, trainingDays[i], item.Day)
		assert.True(t, want[i].Equal(item.Date), "item %d date %s", i, item.Date)
		assert.Equal(t, DayMarker(trainingDays[i].Weekday), item.Marker)
	}

	msgs := f.guild.Messages(f.channel)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].Content, "**Montag, 19.10.2026**")
	assert.Contains(t, msgs[2].Content, "training-day:3")

	// two affordances per post, affirmative first
	require.Len(t, f.guild.Reacted, 6)
	for i, item := range cycle.Items {
		assert.Equal(t, item.MessageID+" "+votes.Yes, f.guild.Reacted[2*i])
		assert.Equal(t, item.MessageID+" "+votes.No, f.guild.Reacted[2*i+1])
	}
}

func TestCreateCycle_OnTrainingDayIsNextWeek(t *testing.T) {
	monday := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, monday, false)
	cycle, err := f.manager.CreateCycle(context.Background(), f.channel)
	require.NoError(t, err)

	first, ok := cycle.Item(0)
	require.True(t, ok)
	assert.True(t, time.Date(2026, time.October, 26, 0, 0, 0, 0, time.UTC).Equal(first.Date))
	for _, it := range cycle.Items {
		assert.True(t, it.Date.After(monday))
	}
}

func TestFindCurrentCycle_AfterCreate(t *testing.T) {
	f := newFixture(t, wednesday(t), false)
	created, err := f.manager.CreateCycle(context.Background(), f.channel)
	require.NoError(t, err)

	found, err := f.manager.FindCurrentCycle(context.Background(), f.channel)
	require.NoError(t, err)
	require.Len(t, found.Items, len(trainingDays))
	for i, item := range found.Items {
		assert.Equal(t, created.Items[i].MessageID, item.MessageID)
		assert.Equal(t, DayMarker(item.Day.Weekday), item.Marker)
		assert.True(t, created.Items[i].Date.Equal(item.Date))
	}
}

func TestCreateCycle_ReplacesPreviousCycle(t *testing.T) {
	f := newFixture(t, wednesday(t), true)
	ctx := context.Background()
	member := platform.User{ID: "42", Name: "anna"}
	chatter := f.guild.Post(f.channel, member, "Bin am Montag dabei")

	_, err := f.manager.CreateCycle(ctx, f.channel)
	require.NoError(t, err)
	second, err := f.manager.CreateCycle(ctx, f.channel)
	require.NoError(t, err)

	msgs := f.guild.Messages(f.channel)
	// member chatter + 3 posts + 1 broadcast
	require.Len(t, msgs, 5)
	assert.Equal(t, chatter.ID, msgs[0].ID)
	assert.Equal(t, 4, f.guild.DeletedMessages)

	found, err := f.manager.FindCurrentCycle(ctx, f.channel)
	require.NoError(t, err)
	require.Len(t, found.Items, 3)
	for i := range found.Items {
		assert.Equal(t, second.Items[i].MessageID, found.Items[i].MessageID)
	}
}

func TestCreateCycle_Announces(t *testing.T) {
	f := newFixture(t, wednesday(t), true)
	_, err := f.manager.CreateCycle(context.Background(), f.channel)
	require.NoError(t, err)

	msgs := f.guild.Messages(f.channel)
	require.Len(t, msgs, 4)
	assert.Contains(t, msgs[3].Content, "<@&")
	assert.Contains(t, msgs[3].Content, BroadcastMarker)
}

func TestFindCurrentCycle_LegacyAndLastWins(t *testing.T) {
	f := newFixture(t, wednesday(t), false)
	self, _ := f.guild.Self(context.Background())

	f.guild.Post(f.channel, self, "🏋️ **Montag, 12.10.2026**\nReagiere mit 👍 oder 👎")
	newer := f.guild.Post(f.channel, self, "🏋️ **Montag, 19.10.2026**\nReagiere mit 👍 oder 👎")
	thursday := f.guild.Post(f.channel, self, "🏋️ **Donnerstag, 22.10.2026**\n-# "+DayMarker(3))
	// someone else quoting a marker is not a poll post
	f.guild.Post(f.channel, platform.User{ID: "7"}, "copy: "+DayMarker(1))
	// the bot's own report mentioning a label is not a poll post either
	f.guild.Post(f.channel, self, "📋 Noch nicht abgestimmt für Dienstag:")

	cycle, err := f.manager.FindCurrentCycle(context.Background(), f.channel)
	require.NoError(t, err)
	require.Len(t, cycle.Items, 2)

	mon, ok := cycle.Item(0)
	require.True(t, ok)
	assert.Equal(t, newer.ID, mon.MessageID)
	assert.True(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, f.loc).Equal(mon.Date))

	_, ok = cycle.Item(1)
	assert.False(t, ok)

	thu, ok := cycle.Item(3)
	require.True(t, ok)
	assert.Equal(t, thursday.ID, thu.MessageID)
}

func TestCreateCycle_UnknownChannelIsNoop(t *testing.T) {
	f := newFixture(t, wednesday(t), false)
	_, err := f.manager.CreateCycle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChannelUnavailable)
	assert.Empty(t, f.guild.Reacted)

	_, err = f.manager.FindCurrentCycle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestParseDayMarker(t *testing.T) {
	wd, ok := ParseDayMarker("foo\n-# training-day:3")
	assert.True(t, ok)
	assert.Equal(t, 3, wd)

	_, ok = ParseDayMarker("training-day:9")
	assert.False(t, ok)
	_, ok = ParseDayMarker("Montag")
	assert.False(t, ok)
}
