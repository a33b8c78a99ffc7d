package humanize

import (
	"fmt"
	"strings"
	"time"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// Duration formats a number of seconds, omitting zero parts:
// 59 → "59 seconds", 60 → "1 minute", 3725 → "1 hour 2 minutes 5 seconds".
func Duration(seconds int) string {
	if seconds <= 0 {
		return "0 seconds"
	}

	var (
		hours   = seconds / secondsPerHour
		minutes = seconds % secondsPerHour / secondsPerMinute
		rest    = seconds % secondsPerMinute
		parts   = make([]string, 0, 3)
	)

	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}

	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}

	if rest > 0 {
		parts = append(parts, plural(rest, "second"))
	}

	return strings.Join(parts, " ")
}

// Day describes a day offset relative to today.
func Day(offset int) string {
	switch offset {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case 2:
		return "the day after tomorrow"
	default:
		return fmt.Sprintf("in %d days", offset)
	}
}

// DaysBetween counts calendar days from the date of now to the date of t,
// both taken in now's location. Both dates are compared as UTC midnights in
// Unix seconds, so any span a time.Time holds is counted exactly.
func DaysBetween(now, t time.Time) int {
	t = t.In(now.Location())

	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

// HourMinute formats a wall-clock target as HH:MM.
func HourMinute(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Clock formats an instant as local HH:MM:SS.
func Clock(t time.Time) string {
	return t.Local().Format(time.TimeOnly)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}

	return fmt.Sprintf("%d %ss", n, unit)
}
