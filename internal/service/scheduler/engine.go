package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/voice-assistant/internal/domain/schedule"
	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/humanize"
	"github.com/oshokin/voice-assistant/internal/logger"
	"github.com/oshokin/voice-assistant/internal/repository/registry"
)

// Engine schedules and fires timers and alarms.
type Engine struct {
	// registry is the shared store of entries.
	registry *registry.Registry
}

// NewEngine creates an engine over the shared registry.
func NewEngine(r *registry.Registry) *Engine {
	return &Engine{
		registry: r,
	}
}

// Now returns the registry clock's current time.
func (e *Engine) Now() time.Time {
	return e.registry.Now()
}

// StartTimer creates a countdown owned by conn and schedules its notification.
// The caller validates durationSeconds > 0.
func (e *Engine) StartTimer(
	ctx context.Context,
	conn session.Connection,
	durationSeconds int,
	label string,
) (*schedule.Timer, error) {
	timer := e.registry.CreateTimer(conn.ID(), durationSeconds, label)

	delay := timer.EndTime.Sub(e.registry.Now())
	if err := e.schedule(ctx, conn, schedule.KindTimer, timer.ID, delay); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Timer set",
		"timer_id", timer.ID,
		"duration", humanize.Duration(durationSeconds),
		"label", label,
		"end_time", timer.EndTime.Format(time.RFC3339))

	return timer, nil
}

// StartAlarm creates an alarm owned by conn and schedules its notification.
// The caller validates the hour, minute and day offset.
func (e *Engine) StartAlarm(
	ctx context.Context,
	conn session.Connection,
	hour, minute, dayOffset int,
	label string,
) (*schedule.Alarm, error) {
	alarm := e.registry.CreateAlarm(conn.ID(), hour, minute, dayOffset, label)

	delay := alarm.TargetTime.Sub(e.registry.Now())
	if err := e.schedule(ctx, conn, schedule.KindAlarm, alarm.ID, delay); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm set",
		"alarm_id", alarm.ID,
		"target_time", alarm.TargetTime.Format(time.RFC3339),
		"label", label)

	return alarm, nil
}

// CancelTimers cancels one timer by id, or all of them when id is empty,
// and returns how many were cancelled.
func (e *Engine) CancelTimers(ctx context.Context, id string) int {
	count := e.registry.CancelTimer(id)

	logger.InfoKV(ctx, "Timers cancelled", "timer_id", id, "count", count)

	return count
}

// CancelAlarms cancels one alarm by id, or all of them when id is empty,
// and returns how many were cancelled.
func (e *Engine) CancelAlarms(ctx context.Context, id string) int {
	count := e.registry.CancelAlarm(id)

	logger.InfoKV(ctx, "Alarms cancelled", "alarm_id", id, "count", count)

	return count
}

// Timers lists the active timers, pruning expired ones.
func (e *Engine) Timers() []*schedule.Timer {
	return e.registry.ListTimers()
}

// Alarms lists every pending alarm.
func (e *Engine) Alarms() []*schedule.Alarm {
	return e.registry.ListAlarms()
}

// Detach cancels everything owned by a connection that went away.
func (e *Engine) Detach(ctx context.Context, connID string) {
	timers, alarms := e.registry.ReleaseOwner(connID)
	if timers == 0 && alarms == 0 {
		return
	}

	logger.InfoKV(ctx, "Released entries of closed session",
		"session_id", connID,
		"timers", timers,
		"alarms", alarms)
}

// schedule submits the firing action and attaches its handle.
// On failure the entry is removed so nothing is left without a handle.
func (e *Engine) schedule(
	ctx context.Context,
	conn session.Connection,
	kind schedule.Kind,
	id string,
	delay time.Duration,
) error {
	handle, err := conn.Submit(max(delay, 0), func(loopCtx context.Context) {
		e.fire(loopCtx, conn, kind, id)
	})
	if err != nil {
		e.registry.Remove(kind, id)

		return fmt.Errorf("schedule %s %s: %w", kind, id, err)
	}

	// The entry may be gone already: cancelled by another request or fired
	// with a zero delay. The handle is ours to stop then.
	if !e.registry.AttachHandle(kind, id, handle) {
		handle.Cancel()
		logger.DebugKV(ctx, "Entry vanished before its handle was attached", "kind", kind, "id", id)
	}

	return nil
}

// fire runs on the connection's event loop when an entry is due.
func (e *Engine) fire(ctx context.Context, conn session.Connection, kind schedule.Kind, id string) {
	ctx = logger.WithKV(ctx, "kind", kind, "id", id)

	message, ok := e.message(kind, id)
	if !ok {
		logger.DebugKV(ctx, "Entry cancelled before firing")
		return
	}

	defer func() {
		e.registry.Remove(kind, id)
		logger.InfoKV(ctx, "Entry fired", "message", message)
	}()

	if err := conn.Notify(ctx, message); err != nil {
		logger.ErrorKV(ctx, "Notification delivery failed", "error", err)
		return
	}

	var err error
	if conn.FunctionCallingEnabled() {
		err = conn.ChatWithFunctionCalling(ctx, message)
	} else {
		err = conn.Chat(ctx, message)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Conversation hand-off failed", "error", err)
	}
}

// message looks the entry up and renders its finished text.
func (e *Engine) message(kind schedule.Kind, id string) (string, bool) {
	switch kind {
	case schedule.KindTimer:
		timer, ok := e.registry.Timer(id)
		if !ok {
			return "", false
		}

		return TimerMessage(timer), true
	case schedule.KindAlarm:
		alarm, ok := e.registry.Alarm(id)
		if !ok {
			return "", false
		}

		return AlarmMessage(alarm), true
	default:
		return "", false
	}
}

// TimerMessage is the text spoken when a timer finishes.
func TimerMessage(timer *schedule.Timer) string {
	if timer.Label != "" {
		return fmt.Sprintf("Your %s timer has finished!", timer.Label)
	}

	return "Your timer has finished!"
}

// AlarmMessage is the text spoken when an alarm goes off.
func AlarmMessage(alarm *schedule.Alarm) string {
	if alarm.Label != "" {
		return fmt.Sprintf("Your %s alarm is ringing!", alarm.Label)
	}

	return fmt.Sprintf("Alarm! It is now %s.", humanize.HourMinute(alarm.Hour, alarm.Minute))
}
