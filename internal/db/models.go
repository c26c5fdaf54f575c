package db

import (
	"time"

	"gorm.io/gorm"
)

// CycleRecord is one createCycle invocation.
type CycleRecord struct {
	gorm.Model
	ChannelID string `gorm:"index"`
	Trigger   string
	Days      string
	FirstDate time.Time
	Items     int
}

type ReminderRun struct {
	gorm.Model
	RunID      string `gorm:"uniqueIndex"`
	Trigger    string
	ChannelID  string
	TargetID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Delivered  int
	Skipped    int
	Outcomes   []ReminderOutcome `gorm:"foreignKey:RunID;references:RunID"`
}

type ReminderOutcome struct {
	gorm.Model
	RunID      string `gorm:"index"`
	MemberID   string
	MemberName string
	Missing    string
	Outcome    string
	Via        string
	Reason     string
}
