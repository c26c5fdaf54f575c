package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-training-bot/internal/poll"
	"go-training-bot/internal/reminder"
)

// RecordCycle stores a freshly created cycle.
func (j *Journal) RecordCycle(trigger string, c poll.Cycle) error {
	rec := CycleRecord{ChannelID: c.ChannelID, Trigger: trigger, Items: len(c.Items)}
	labels := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		labels = append(labels, it.Day.Label)
	}
	rec.Days = strings.Join(labels, ",")
	if len(c.Items) > 0 {
		rec.FirstDate = c.Items[0].Date
	}
	if err := j.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}
	return nil
}

// RecordRun stores a reminder run with every per-member result.
func (j *Journal) RecordRun(trigger string, r reminder.Report) error {
	run := ReminderRun{
		RunID:      r.RunID,
		Trigger:    trigger,
		ChannelID:  r.ChannelID,
		TargetID:   r.TargetID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Delivered:  r.Count(reminder.Delivered),
		Skipped:    r.Count(reminder.Skipped),
	}
	for _, res := range r.Results {
		run.Outcomes = append(run.Outcomes, ReminderOutcome{
			RunID:      r.RunID,
			MemberID:   res.MemberID,
			MemberName: res.MemberName,
			Missing:    strings.Join(res.Missing, ","),
			Outcome:    string(res.Outcome),
			Via:        string(res.Via),
			Reason:     res.Reason,
		})
	}
	if err := j.db.Create(&run).Error; err != nil {
		return fmt.Errorf("record reminder run %s: %w", r.RunID, err)
	}
	return nil
}

// RecentRuns returns the latest reminder runs with outcomes, newest first.
func (j *Journal) RecentRuns(limit int) ([]ReminderRun, error) {
	var runs []ReminderRun
	err := j.db.Preload("Outcomes").Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

// CountCycles returns how many cycles were created in channelID.
func (j *Journal) CountCycles(channelID string) (int, error) {
	var count int64
	if err := j.db.Model(&CycleRecord{}).Where("channel_id = ?", channelID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count cycles: %w", err)
	}
	return int(count), nil
}

// Prune hard-deletes cycles and reminder runs created before the cutoff,
// together with their outcomes. It returns the number of deleted runs and cycles.
func (j *Journal) Prune(before time.Time) (int64, error) {
	var deleted int64
	err := j.db.Transaction(func(tx *gorm.DB) error {
		var runIDs []string
		if err := tx.Model(&ReminderRun{}).Where("created_at < ?", before).Pluck("run_id", &runIDs).Error; err != nil {
			return err
		}
		if len(runIDs) > 0 {
			if err := tx.Unscoped().Where("run_id IN ?", runIDs).Delete(&ReminderOutcome{}).Error; err != nil {
				return err
			}
			res := tx.Unscoped().Where("run_id IN ?", runIDs).Delete(&ReminderRun{})
			if res.Error != nil {
				return res.Error
			}
			deleted += res.RowsAffected
		}
		res := tx.Unscoped().Where("created_at < ?", before).Delete(&CycleRecord{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return deleted, nil
}
