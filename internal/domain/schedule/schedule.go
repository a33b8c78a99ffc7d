package schedule

import (
	"math"
	"time"

	"github.com/oshokin/voice-assistant/internal/domain/session"
)

// Kind distinguishes the two kinds of scheduled entries.
type Kind string

const (
	// KindTimer is a relative countdown.
	KindTimer Kind = "timer"
	// KindAlarm is an absolute wall-clock reminder.
	KindAlarm Kind = "alarm"
)

const (
	// MaxTimerSeconds is the longest countdown whose delay fits in a time.Duration.
	MaxTimerSeconds int64 = math.MaxInt64 / int64(time.Second)
	// MaxDayOffset is the furthest alarm day whose delay fits in a time.Duration,
	// leaving a day for the time of day.
	MaxDayOffset int64 = MaxTimerSeconds/(24*60*60) - 1
)

// Timer is a single countdown.
type Timer struct {
	// ID is unique for the process lifetime.
	ID string
	// Owner is the id of the session that receives the notification.
	Owner string
	// DurationSeconds is the countdown length as requested by the caller.
	DurationSeconds int
	// StartTime is when the countdown began.
	StartTime time.Time
	// EndTime is StartTime plus DurationSeconds.
	EndTime time.Time
	// Label is an optional annotation, never interpreted.
	Label string
	// Handle cancels the deferred notification. Nil until the engine attaches it.
	Handle session.Handle
}

// Remaining returns the time left until EndTime, never negative.
func (t *Timer) Remaining(now time.Time) time.Duration {
	return max(t.EndTime.Sub(now), 0)
}

// Clone returns a copy without the firing handle.
func (t *Timer) Clone() *Timer {
	if t == nil {
		return nil
	}

	cloned := *t
	cloned.Handle = nil

	return &cloned
}

// Alarm is a wall-clock reminder.
type Alarm struct {
	// ID is unique for the process lifetime.
	ID string
	// Owner is the id of the session that receives the notification.
	Owner string
	// Hour is the target hour, 0-23.
	Hour int
	// Minute is the target minute, 0-59.
	Minute int
	// DayOffset is the number of days from the creation date the caller asked for.
	DayOffset int
	// TargetTime is the resolved firing instant.
	TargetTime time.Time
	// Label is an optional annotation, never interpreted.
	Label string
	// Handle cancels the deferred notification. Nil until the engine attaches it.
	Handle session.Handle
}

// Clone returns a copy without the firing handle.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.Handle = nil

	return &cloned
}

// NextAlarmTime resolves the instant an alarm fires: the date of now plus
// dayOffset at hour:minute in now's location. With a zero offset a target
// that already passed moves to the next day; positive offsets never roll.
func NextAlarmTime(now time.Time, hour, minute, dayOffset int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day()+dayOffset, hour, minute, 0, 0, now.Location())

	if dayOffset == 0 && target.Before(now) {
		target = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}

	return target
}
