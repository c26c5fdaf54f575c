package utils

import (
	"regexp"
	"strings"
	"time"
)

var (
	mentionRegex = regexp.MustCompile(`^<@!?(\d+)>$`)
	idRegex      = regexp.MustCompile(`^\d+$`)
	unsafeRegex  = regexp.MustCompile(`[^a-z0-9\-]`)
	umlauts      = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
)

// MondayIndex maps time.Weekday onto 0=Monday .. 6=Sunday.
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// NextMonday returns midnight of the first Monday strictly after today, in
// today's location. On a Monday it is seven days out.
func NextMonday(today time.Time) time.Time {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return day.AddDate(0, 0, 7-MondayIndex(today.Weekday()))
}

// WeekDate returns the date of weekday (0=Monday) in the week that starts at
// the next Monday after today.
func WeekDate(today time.Time, weekday int) time.Time {
	return NextMonday(today).AddDate(0, 0, weekday)
}

// SafeName lowers name and reduces it to characters allowed in channel names.
func SafeName(name string) string {
	name = umlauts.Replace(strings.ToLower(name))
	name = unsafeRegex.ReplaceAllString(name, "-")
	if len(name) > 90 {
		name = name[:90]
	}
	return name
}

// ParseUserRef accepts a user mention (<@id>, <@!id>) or a bare numeric id.
func ParseUserRef(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := mentionRegex.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if idRegex.MatchString(s) {
		return s, true
	}
	return "", false
}
