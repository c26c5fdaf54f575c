package poll

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go-training-bot/internal/platform"
)

var dateRegex = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`)

// Repository re-identifies the bot's poll posts. The history scan below is
// the only implementation; an indexed store can replace it without touching
// the Manager.
type Repository interface {
	// FindPollItems returns, per configured day, the most recent matching post.
	FindPollItems(ctx context.Context, channelID string, days []Day) (Cycle, error)
	// StalePosts returns every self-authored post of any cycle, current or past.
	StalePosts(ctx context.Context, channelID string, days []Day) ([]platform.Message, error)
}

// HistoryRepository scans a bounded window of recent channel history.
// Posts older than the window are never seen.
type HistoryRepository struct {
	gw    platform.Gateway
	limit int
	loc   *time.Location
}

func NewHistoryRepository(gw platform.Gateway, limit int, loc *time.Location) *HistoryRepository {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryRepository{gw: gw, limit: limit, loc: loc}
}

func (r *HistoryRepository) selfPosts(ctx context.Context, channelID string) ([]platform.Message, error) {
	self, err := r.gw.Self(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve self: %w", err)
	}
	history, err := r.gw.History(ctx, channelID, r.limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", channelID, err)
	}
	out := history[:0:0]
	for _, msg := range history {
		if msg.Author.ID == self.ID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// matchDay identifies which day a post belongs to: the marker first, the bold
// "**<label>," heading as a fallback for posts written before markers existed.
func matchDay(content string, days []Day) (Day, bool) {
	if wd, ok := ParseDayMarker(content); ok {
		for _, d := range days {
			if d.Weekday == wd {
				return d, true
			}
		}
		return Day{Weekday: wd}, true
	}
	for _, d := range days {
		if d.Label != "" && strings.Contains(content, "**"+d.Label+",") {
			return d, true
		}
	}
	return Day{}, false
}

func (r *HistoryRepository) FindPollItems(ctx context.Context, channelID string, days []Day) (Cycle, error) {
	posts, err := r.selfPosts(ctx, channelID)
	if err != nil {
		return Cycle{}, err
	}
	latest := map[int]platform.Message{}
	// newest first: the first hit per weekday is the most recent one
	for _, msg := range posts {
		if hasBroadcastMarker(msg.Content) {
			continue
		}
		d, ok := matchDay(msg.Content, days)
		if !ok {
			continue
		}
		if _, seen := latest[d.Weekday]; !seen {
			latest[d.Weekday] = msg
		}
	}

	cycle := Cycle{ChannelID: channelID}
	for _, d := range days {
		msg, ok := latest[d.Weekday]
		if !ok {
			continue
		}
		cycle.Items = append(cycle.Items, Item{
			Day:       d,
			Date:      r.parseDate(msg.Content),
			Marker:    DayMarker(d.Weekday),
			ChannelID: channelID,
			MessageID: msg.ID,
		})
	}
	return cycle, nil
}

func (r *HistoryRepository) StalePosts(ctx context.Context, channelID string, days []Day) ([]platform.Message, error) {
	posts, err := r.selfPosts(ctx, channelID)
	if err != nil {
		return nil, err
	}
	var stale []platform.Message
	for _, msg := range posts {
		if hasBroadcastMarker(msg.Content) {
			stale = append(stale, msg)
			continue
		}
		if _, ok := matchDay(msg.Content, days); ok {
			stale = append(stale, msg)
		}
	}
	return stale, nil
}

// parseDate reads the dd.mm.yyyy date of a post; zero when absent.
func (r *HistoryRepository) parseDate(content string) time.Time {
	m := dateRegex.FindString(content)
	if m == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("02.01.2006", m, r.loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
