package poll

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dayMarkerPrefix = "training-day:"
	// BroadcastMarker tags the optional role ping sent with a new cycle.
	BroadcastMarker = "training-broadcast"
)

var dayMarkerRegex = regexp.MustCompile(`training-day:(\d)`)

// Day is a configured training weekday. Weekday is 0=Monday .. 6=Sunday.
type Day struct {
	Weekday int
	Label   string
}

// Item is one attendance post of a cycle.
type Item struct {
	Day       Day
	Date      time.Time
	Marker    string
	ChannelID string
	MessageID string
}

// Cycle is one week's posts, ordered like the configured days. Days whose
// post could not be found are absent.
type Cycle struct {
	ChannelID string
	Items     []Item
}

func (c Cycle) Empty() bool { return len(c.Items) == 0 }

// Item returns the post for weekday, if the cycle has one.
func (c Cycle) Item(weekday int) (Item, bool) {
	for _, it := range c.Items {
		if it.Day.Weekday == weekday {
			return it, true
		}
	}
	return Item{}, false
}

// DayMarker is the locale independent token embedded in a post for weekday.
func DayMarker(weekday int) string {
	return fmt.Sprintf("%s%d", dayMarkerPrefix, weekday)
}

// ParseDayMarker extracts the weekday from a post carrying a day marker.
func ParseDayMarker(content string) (int, bool) {
	m := dayMarkerRegex.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	wd, err := strconv.Atoi(m[1])
	if err != nil || wd > 6 {
		return 0, false
	}
	return wd, true
}

func hasBroadcastMarker(content string) bool {
	return strings.Contains(content, BroadcastMarker)
}
