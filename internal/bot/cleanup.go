package bot

import (
	"context"
	"time"

	"go-training-bot/internal/schedule"
)

// cleanupTrigger prunes journal entries older than the retention window
// every Saturday at 14:00.
func (b *Bot) cleanupTrigger() (schedule.Trigger, bool) {
	if b.journal == nil || b.cfg.Journal.RetentionDays <= 0 {
		return schedule.Trigger{}, false
	}
	return schedule.Trigger{Name: "journal-cleanup", Weekday: 5, Hour: 14, Minute: 0, Run: b.CleanupJournal}, true
}

// CleanupJournal deletes journal entries older than the retention window.
func (b *Bot) CleanupJournal(context.Context) {
	if b.journal == nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -b.cfg.Journal.RetentionDays)
	b.log.Info("🧹 pruning journal", "before", cutoff.Format(time.DateOnly))
	count, err := b.journal.Prune(cutoff)
	if err != nil {
		b.log.Error("journal cleanup failed", "err", err)
		return
	}
	b.log.Info("✅ journal pruned", "deleted", count)
}
