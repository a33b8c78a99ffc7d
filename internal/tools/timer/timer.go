package timer

import (
	"context"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/oshokin/voice-assistant/internal/domain/schedule"
	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/tools"
)

// Tool names.
const (
	SetTimerName          = "set_timer"
	SetAlarmName          = "set_alarm"
	CheckTimersAlarmsName = "check_timers_alarms"
	CancelTimerAlarmName  = "cancel_timer_alarm"
)

// Scope selects which kinds a check or cancel applies to.
type Scope string

const (
	// ScopeTimer applies to timers only.
	ScopeTimer Scope = "timer"
	// ScopeAlarm applies to alarms only.
	ScopeAlarm Scope = "alarm"
	// ScopeAll applies to both kinds.
	ScopeAll Scope = "all"
)

// Timers reports whether the scope includes timers.
func (s Scope) Timers() bool { return s == ScopeTimer || s == ScopeAll }

// Alarms reports whether the scope includes alarms.
func (s Scope) Alarms() bool { return s == ScopeAlarm || s == ScopeAll }

// Scheduler is the part of the scheduling engine the tools drive.
type Scheduler interface {
	Now() time.Time
	StartTimer(ctx context.Context, conn session.Connection, durationSeconds int, label string) (*schedule.Timer, error)
	StartAlarm(
		ctx context.Context,
		conn session.Connection,
		hour, minute, dayOffset int,
		label string,
	) (*schedule.Alarm, error)
	CancelTimers(ctx context.Context, id string) int
	CancelAlarms(ctx context.Context, id string) int
	Timers() []*schedule.Timer
	Alarms() []*schedule.Alarm
}

// Default success templates used when the model sends none.
const (
	DefaultTimerTemplate = "OK, your timer is set for {duration}. It will ring at {end_time}."
	DefaultAlarmTemplate = "OK, your alarm is set {day} at {time}."
)

// Toolset builds the four tools over one scheduler.
type Toolset struct {
	// scheduler creates, lists and cancels entries.
	scheduler Scheduler
}

// New creates the toolset.
func New(scheduler Scheduler) *Toolset {
	return &Toolset{
		scheduler: scheduler,
	}
}

// Register adds every tool of the set to r.
func (s *Toolset) Register(r *tools.Registry) error {
	return r.Register(s.Tools()...)
}

// Tools returns the tool definitions.
func (s *Toolset) Tools() []*tools.Tool {
	return []*tools.Tool{
		{
			Name: SetTimerName,
			Description: "Set a countdown timer. Use it when the user asks to be reminded " +
				"after a period of time, for example \"set a 5 minute timer for the tea\".",
			Parameters: objectSchema(map[string]*jsonschema.Schema{
				"duration": {Type: "integer", Description: "Timer length in seconds."},
				"label":    {Type: "string", Description: "Optional timer label, for example \"tea\"."},
				"response_success": {
					Type: "string",
					Description: "Friendly reply after the timer is set. " +
						"May use the {duration}, {label} and {end_time} placeholders.",
				},
				"response_failure": failureSchema(),
			}, "duration"),
			Handler: s.setTimer,
		},
		{
			Name: SetAlarmName,
			Description: "Set an alarm for a wall-clock time, today or a number of days ahead, " +
				"for example \"wake me up at 7 tomorrow\".",
			Parameters: objectSchema(map[string]*jsonschema.Schema{
				"hour":       {Type: "integer", Description: "Hour of the alarm, 0 to 23."},
				"minute":     {Type: "integer", Description: "Minute of the alarm, 0 to 59."},
				"day_offset": {Type: "integer", Description: "Days from today: 0 today, 1 tomorrow. Defaults to 0."},
				"label":      {Type: "string", Description: "Optional alarm label, for example \"meeting\"."},
				"response_success": {
					Type: "string",
					Description: "Friendly reply after the alarm is set. " +
						"May use the {time}, {label} and {day} placeholders.",
				},
				"response_failure": failureSchema(),
			}, "hour", "minute"),
			Handler: s.setAlarm,
		},
		{
			Name:        CheckTimersAlarmsName,
			Description: "List the active timers, the pending alarms, or both.",
			Parameters: objectSchema(map[string]*jsonschema.Schema{
				"check_type":       scopeSchema("What to list: timer, alarm or all."),
				"response_success": {Type: "string", Description: "Friendly reply introducing the list."},
				"response_failure": failureSchema(),
			}, "check_type"),
			Handler: s.checkTimersAlarms,
		},
		{
			Name: CancelTimerAlarmName,
			Description: "Cancel timers, alarms, or both. Without an id every entry of the kind is cancelled.",
			Parameters: objectSchema(map[string]*jsonschema.Schema{
				"cancel_type":      scopeSchema("What to cancel: timer, alarm or all."),
				"timer_id":         {Type: "string", Description: "Id of one timer to cancel."},
				"alarm_id":         {Type: "string", Description: "Id of one alarm to cancel."},
				"response_success": {Type: "string", Description: "Friendly reply after cancelling."},
				"response_failure": failureSchema(),
			}, "cancel_type"),
			Handler: s.cancelTimerAlarm,
		},
	}
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func scopeSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        []any{string(ScopeTimer), string(ScopeAlarm), string(ScopeAll)},
		Description: description,
	}
}

func failureSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Friendly reply when the request fails.",
	}
}
