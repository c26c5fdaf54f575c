package db

import (
	"path/filepath"
	"testing"
	"time"

	"go-training-bot/internal/poll"
	"go-training-bot/internal/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordCycle(t *testing.T) {
	j := openJournal(t)
	monday := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	c := poll.Cycle{ChannelID: "100", Items: []poll.Item{
		{Day: poll.Day{Weekday: 0, Label: "Montag"}, Date: monday},
		{Day: poll.Day{Weekday: 1, Label: "Dienstag"}, Date: monday.AddDate(0, 0, 1)},
	}}
	require.NoError(t, j.RecordCycle("command", c))
	require.NoError(t, j.RecordCycle("schedule", c))

	n, err := j.CountCycles("100")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = j.CountCycles("other")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordRun(t *testing.T) {
	j := openJournal(t)
	start := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	older := reminder.Report{RunID: "run-1", ChannelID: "100", StartedAt: start.Add(-7 * 24 * time.Hour)}
	newer := reminder.Report{
		RunID:      "run-2",
		ChannelID:  "100",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Results: []reminder.Result{
			{MemberID: "1", MemberName: "anna", Missing: []string{"Dienstag", "Donnerstag"}, Outcome: reminder.Delivered, Via: reminder.ViaChannel},
			{MemberID: "2", MemberName: "ben", Missing: []string{"Montag"}, Outcome: reminder.Skipped, Via: reminder.ViaDM, Reason: "dm closed"},
		},
	}
	require.NoError(t, j.RecordRun("schedule", older))
	require.NoError(t, j.RecordRun("command", newer))

	runs, err := j.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 1, runs[0].Delivered)
	assert.Equal(t, 1, runs[0].Skipped)
	require.Len(t, runs[0].Outcomes, 2)
	assert.Equal(t, "Dienstag,Donnerstag", runs[0].Outcomes[0].Missing)
	assert.Empty(t, runs[1].Outcomes)

	assert.Error(t, j.RecordRun("command", newer), "run ids are unique")
}

func TestPrune(t *testing.T) {
	j := openJournal(t)
	require.NoError(t, j.RecordCycle("schedule", poll.Cycle{ChannelID: "100"}))
	require.NoError(t, j.RecordRun("schedule", reminder.Report{
		RunID:   "old",
		Results: []reminder.Result{{MemberID: "1", Outcome: reminder.Delivered}},
	}))

	n, err := j.Prune(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "fresh entries survive")

	n, err = j.Prune(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err := j.RecentRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	var outcomes int64
	require.NoError(t, j.db.Model(&ReminderOutcome{}).Unscoped().Count(&outcomes).Error)
	assert.Zero(t, outcomes)
}

func TestOpen_MigrationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	raw, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, raw.Exec("CREATE VIEW cycle_records AS SELECT 1 AS id").Error)
	sqlDB, err := raw.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	j, err := Open(path)
	require.Error(t, err)
	assert.Nil(t, j)
	assert.Contains(t, err.Error(), "migrate journal")
}
