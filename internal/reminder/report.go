package reminder

import (
	"fmt"
	"time"
)

type Outcome string

const (
	Delivered Outcome = "delivered"
	Skipped   Outcome = "skipped"
)

// Via is the target a reminder went to.
type Via string

const (
	ViaChannel Via = "channel"
	ViaDM      Via = "dm"
)

// Result is the per-member outcome of one dispatch run.
type Result struct {
	MemberID   string
	MemberName string
	Missing    []string
	Outcome    Outcome
	Via        Via
	Reason     string
}

type Report struct {
	RunID      string
	ChannelID  string
	TargetID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Skips lists "name: reason" for every skipped member.
func (r Report) Skips() []string {
	var out []string
	for _, res := range r.Results {
		if res.Outcome == Skipped {
			out = append(out, res.MemberName+": "+res.Reason)
		}
	}
	return out
}

func (r Report) String() string {
	return fmt.Sprintf("%s=%d %s=%d", Delivered, r.Count(Delivered), Skipped, r.Count(Skipped))
}
