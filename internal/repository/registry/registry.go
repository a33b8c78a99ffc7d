package registry

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/voice-assistant/internal/domain/schedule"
	"github.com/oshokin/voice-assistant/internal/domain/session"
)

// Registry maps ids to timers and alarms.
type Registry struct {
	// timers holds pending countdowns by id.
	timers map[string]*schedule.Timer
	// alarms holds pending alarms by id.
	alarms map[string]*schedule.Alarm
	// now is the clock used for start, end and target instants.
	now func() time.Time
	// mu protects timers and alarms.
	mu sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		timers: make(map[string]*schedule.Timer),
		alarms: make(map[string]*schedule.Alarm),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// CreateTimer stores a countdown of durationSeconds starting now.
// The caller guarantees durationSeconds > 0.
func (r *Registry) CreateTimer(owner string, durationSeconds int, label string) *schedule.Timer {
	start := r.now()

	timer := &schedule.Timer{
		ID:              newID(schedule.KindTimer),
		Owner:           owner,
		DurationSeconds: durationSeconds,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationSeconds) * time.Second),
		Label:           label,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.timers[timer.ID] = timer

	return timer.Clone()
}

// CreateAlarm stores an alarm resolved against the current time.
// The caller guarantees the hour, minute and day offset are in range.
func (r *Registry) CreateAlarm(owner string, hour, minute, dayOffset int, label string) *schedule.Alarm {
	alarm := &schedule.Alarm{
		ID:         newID(schedule.KindAlarm),
		Owner:      owner,
		Hour:       hour,
		Minute:     minute,
		DayOffset:  dayOffset,
		TargetTime: schedule.NextAlarmTime(r.now(), hour, minute, dayOffset),
		Label:      label,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.alarms[alarm.ID] = alarm

	return alarm.Clone()
}

// AttachHandle associates a firing handle with an entry.
// It returns false when the entry no longer exists; the caller then owns the handle.
func (r *Registry) AttachHandle(kind schedule.Kind, id string, h session.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case schedule.KindTimer:
		if timer, ok := r.timers[id]; ok {
			timer.Handle = h
			return true
		}
	case schedule.KindAlarm:
		if alarm, ok := r.alarms[id]; ok {
			alarm.Handle = h
			return true
		}
	}

	return false
}

// Timer returns a snapshot of one timer.
func (r *Registry) Timer(id string) (*schedule.Timer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer, ok := r.timers[id]

	return timer.Clone(), ok
}

// Alarm returns a snapshot of one alarm.
func (r *Registry) Alarm(id string) (*schedule.Alarm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alarm, ok := r.alarms[id]

	return alarm.Clone(), ok
}

// Remove deletes an entry, cancelling its handle if it has not run yet.
func (r *Registry) Remove(kind schedule.Kind, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case schedule.KindTimer:
		return cancelByID(r.timers, id, timerHandle) > 0
	case schedule.KindAlarm:
		return cancelByID(r.alarms, id, alarmHandle) > 0
	default:
		return false
	}
}

// CancelTimer removes the timer with the given id, or every active timer
// when id is empty. It returns how many timers were cancelled; for the
// empty id the count is taken before the collection is cleared.
// Expired timers still waiting for removal are dropped without being counted.
func (r *Registry) CancelTimer(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		return cancelByID(r.timers, id, timerHandle)
	}

	r.pruneTimers()

	return cancelAll(r.timers, timerHandle)
}

// CancelAlarm removes the alarm with the given id, or every alarm when id is
// empty, and returns how many alarms were cancelled.
func (r *Registry) CancelAlarm(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		return cancelByID(r.alarms, id, alarmHandle)
	}

	return cancelAll(r.alarms, alarmHandle)
}

// ListTimers returns the timers whose end is still ahead, soonest first.
// Expired timers found during the scan are cancelled and removed.
func (r *Registry) ListTimers() []*schedule.Timer {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneTimers()

	result := make([]*schedule.Timer, 0, len(r.timers))
	for _, timer := range r.timers {
		result = append(result, timer.Clone())
	}

	slices.SortFunc(result, func(a, b *schedule.Timer) int {
		return cmp.Or(a.EndTime.Compare(b.EndTime), cmp.Compare(a.ID, b.ID))
	})

	return result
}

// ListAlarms returns every alarm, soonest first. Alarms are not pruned by expiry.
func (r *Registry) ListAlarms() []*schedule.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*schedule.Alarm, 0, len(r.alarms))
	for _, alarm := range r.alarms {
		result = append(result, alarm.Clone())
	}

	slices.SortFunc(result, func(a, b *schedule.Alarm) int {
		return cmp.Or(a.TargetTime.Compare(b.TargetTime), cmp.Compare(a.ID, b.ID))
	})

	return result
}

// ReleaseOwner cancels and removes every entry owned by the given session.
func (r *Registry) ReleaseOwner(owner string) (timers, alarms int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, timer := range r.timers {
		if timer.Owner == owner {
			timers += cancelByID(r.timers, id, timerHandle)
		}
	}

	for id, alarm := range r.alarms {
		if alarm.Owner == owner {
			alarms += cancelByID(r.alarms, id, alarmHandle)
		}
	}

	return timers, alarms
}

// pruneTimers drops timers whose end has passed. Callers hold mu.
func (r *Registry) pruneTimers() {
	now := r.now()

	for id, timer := range r.timers {
		if !timer.EndTime.After(now) {
			cancelByID(r.timers, id, timerHandle)
		}
	}
}

func timerHandle(t *schedule.Timer) session.Handle { return t.Handle }

func alarmHandle(a *schedule.Alarm) session.Handle { return a.Handle }

// cancelByID removes one entry and stops its handle. Callers hold mu.
func cancelByID[T any](entries map[string]T, id string, handle func(T) session.Handle) int {
	entry, ok := entries[id]
	if !ok {
		return 0
	}

	stop(handle(entry))
	delete(entries, id)

	return 1
}

// cancelAll removes every entry and returns how many there were. Callers hold mu.
func cancelAll[T any](entries map[string]T, handle func(T) session.Handle) int {
	count := len(entries)

	for _, entry := range entries {
		stop(handle(entry))
	}

	clear(entries)

	return count
}

// stop cancels a handle that has not run yet.
func stop(h session.Handle) {
	if h != nil && !h.Done() {
		h.Cancel()
	}
}

func newID(kind schedule.Kind) string {
	return string(kind) + "_" + uuid.NewString()
}
