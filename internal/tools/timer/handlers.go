package timer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/voice-assistant/internal/domain/schedule"
	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/humanize"
	"github.com/oshokin/voice-assistant/internal/tools"
)

// Fixed validation texts.
const (
	InvalidDurationText  = "The timer duration must be greater than 0 seconds."
	InvalidHourText      = "The hour must be between 0 and 23."
	InvalidMinuteText    = "The minute must be between 0 and 59."
	InvalidDayOffsetText = "The day offset must be greater than or equal to 0."

	DurationTooLongText = "The timer duration is too long."
	DayOffsetTooFarText = "The day offset is too far in the future."
)

// Listing and cancellation texts.
const (
	noTimersText       = "There are no active timers."
	noAlarmsText       = "There are no alarms set."
	timerNotFoundText  = "The specified timer was not found."
	alarmNotFoundText  = "The specified alarm was not found."
	nothingScheduled   = "You have no timers or alarms set."
	resultNothingFound = "no timers or alarms found"
)

type setTimerArgs struct {
	Duration        int    `json:"duration"`
	Label           string `json:"label"`
	ResponseSuccess string `json:"response_success"`
	ResponseFailure string `json:"response_failure"`
}

type setAlarmArgs struct {
	Hour            int    `json:"hour"`
	Minute          int    `json:"minute"`
	DayOffset       int    `json:"day_offset"`
	Label           string `json:"label"`
	ResponseSuccess string `json:"response_success"`
	ResponseFailure string `json:"response_failure"`
}

type checkArgs struct {
	CheckType       Scope  `json:"check_type"`
	ResponseSuccess string `json:"response_success"`
	ResponseFailure string `json:"response_failure"`
}

type cancelArgs struct {
	CancelType      Scope  `json:"cancel_type"`
	TimerID         string `json:"timer_id"`
	AlarmID         string `json:"alarm_id"`
	ResponseSuccess string `json:"response_success"`
	ResponseFailure string `json:"response_failure"`
}

func (s *Toolset) setTimer(
	ctx context.Context,
	conn session.Connection,
	raw json.RawMessage,
) (*tools.ActionResponse, error) {
	var args setTimerArgs

	// Values the schema allows but the fields cannot hold are reported with the failure text.
	decodeErr := tools.DecodeArguments(raw, &args)

	return tools.Safely(ctx, args.ResponseFailure, func() (*tools.ActionResponse, error) {
		if decodeErr != nil {
			return nil, decodeErr
		}

		switch {
		case args.Duration <= 0:
			return tools.Respond("invalid duration", InvalidDurationText), nil
		case int64(args.Duration) > schedule.MaxTimerSeconds:
			return tools.Respond("invalid duration", DurationTooLongText), nil
		}

		timer, err := s.scheduler.StartTimer(ctx, conn, args.Duration, args.Label)
		if err != nil {
			return nil, err
		}

		duration := humanize.Duration(args.Duration)
		template := args.ResponseSuccess
		if template == "" {
			template = DefaultTimerTemplate
		}

		response := tools.Render(template, map[string]string{
			"duration": duration,
			"end_time": humanize.Clock(timer.EndTime),
			"label":    args.Label,
		})

		return tools.Respond(fmt.Sprintf("timer set: %s, id: %s", duration, timer.ID), response), nil
	}), nil
}

func (s *Toolset) setAlarm(
	ctx context.Context,
	conn session.Connection,
	raw json.RawMessage,
) (*tools.ActionResponse, error) {
	var args setAlarmArgs

	decodeErr := tools.DecodeArguments(raw, &args)

	return tools.Safely(ctx, args.ResponseFailure, func() (*tools.ActionResponse, error) {
		if decodeErr != nil {
			return nil, decodeErr
		}

		switch {
		case args.Hour < 0 || args.Hour > 23:
			return tools.Respond("invalid hour", InvalidHourText), nil
		case args.Minute < 0 || args.Minute > 59:
			return tools.Respond("invalid minute", InvalidMinuteText), nil
		case args.DayOffset < 0:
			return tools.Respond("invalid day offset", InvalidDayOffsetText), nil
		case int64(args.DayOffset) > schedule.MaxDayOffset:
			return tools.Respond("invalid day offset", DayOffsetTooFarText), nil
		}

		alarm, err := s.scheduler.StartAlarm(ctx, conn, args.Hour, args.Minute, args.DayOffset, args.Label)
		if err != nil {
			return nil, err
		}

		clock := humanize.HourMinute(args.Hour, args.Minute)
		day := humanize.Day(humanize.DaysBetween(s.scheduler.Now(), alarm.TargetTime))

		template := args.ResponseSuccess
		if template == "" {
			template = DefaultAlarmTemplate
		}

		response := tools.Render(template, map[string]string{
			"time":  clock,
			"day":   day,
			"label": args.Label,
		})

		return tools.Respond(fmt.Sprintf("alarm set: %s %s, id: %s", day, clock, alarm.ID), response), nil
	}), nil
}

func (s *Toolset) checkTimersAlarms(
	ctx context.Context,
	_ session.Connection,
	raw json.RawMessage,
) (*tools.ActionResponse, error) {
	var args checkArgs

	decodeErr := tools.DecodeArguments(raw, &args)

	return tools.Safely(ctx, args.ResponseFailure, func() (*tools.ActionResponse, error) {
		if decodeErr != nil {
			return nil, decodeErr
		}

		var (
			sections []string
			summary  []string
		)

		if args.CheckType.Timers() {
			section, count := s.timerListing()
			sections = append(sections, section)
			summary = append(summary, fmt.Sprintf("timers: %d", count))
		}

		if args.CheckType.Alarms() {
			section, count := s.alarmListing()
			sections = append(sections, section)
			summary = append(summary, fmt.Sprintf("alarms: %d", count))
		}

		if len(sections) == 0 {
			return tools.Respond(resultNothingFound, nothingScheduled), nil
		}

		response := strings.Join(sections, "\n\n")
		if args.ResponseSuccess != "" {
			response = args.ResponseSuccess + "\n\n" + response
		}

		return tools.Respond(strings.Join(summary, " "), response), nil
	}), nil
}

// timerListing renders the active timers and returns how many were listed.
func (s *Toolset) timerListing() (string, int) {
	timers := s.scheduler.Timers()
	if len(timers) == 0 {
		return noTimersText, 0
	}

	now := s.scheduler.Now()

	var b strings.Builder

	b.WriteString("Current timers:")

	for i, timer := range timers {
		remaining := int(timer.Remaining(now).Round(time.Second) / time.Second)

		fmt.Fprintf(&b, "\n%d. %s left%s, rings at %s",
			i+1, humanize.Duration(remaining), labelSuffix(timer.Label), humanize.Clock(timer.EndTime))
	}

	return b.String(), len(timers)
}

// alarmListing renders the pending alarms and returns how many were listed.
func (s *Toolset) alarmListing() (string, int) {
	alarms := s.scheduler.Alarms()
	if len(alarms) == 0 {
		return noAlarmsText, 0
	}

	now := s.scheduler.Now()

	var b strings.Builder

	b.WriteString("Current alarms:")

	for i, alarm := range alarms {
		fmt.Fprintf(&b, "\n%d. %s %s%s",
			i+1,
			humanize.Day(humanize.DaysBetween(now, alarm.TargetTime)),
			humanize.HourMinute(alarm.Hour, alarm.Minute),
			labelSuffix(alarm.Label))
	}

	return b.String(), len(alarms)
}

func (s *Toolset) cancelTimerAlarm(
	ctx context.Context,
	_ session.Connection,
	raw json.RawMessage,
) (*tools.ActionResponse, error) {
	var args cancelArgs

	decodeErr := tools.DecodeArguments(raw, &args)

	return tools.Safely(ctx, args.ResponseFailure, func() (*tools.ActionResponse, error) {
		if decodeErr != nil {
			return nil, decodeErr
		}

		var (
			messages         []string
			cancelledTimers  int
			cancelledAlarms  int
			anythingAffected bool
		)

		if args.CancelType.Timers() {
			active := len(s.scheduler.Timers())
			cancelledTimers = s.scheduler.CancelTimers(ctx, args.TimerID)
			anythingAffected = anythingAffected || cancelledTimers > 0

			messages = append(messages,
				cancelMessage("timer", "timers", args.TimerID, cancelledTimers, active, noTimersText, timerNotFoundText))
		}

		if args.CancelType.Alarms() {
			active := len(s.scheduler.Alarms())
			cancelledAlarms = s.scheduler.CancelAlarms(ctx, args.AlarmID)
			anythingAffected = anythingAffected || cancelledAlarms > 0

			messages = append(messages,
				cancelMessage("alarm", "alarms", args.AlarmID, cancelledAlarms, active, noAlarmsText, alarmNotFoundText))
		}

		response := strings.Join(messages, " ")
		if !anythingAffected {
			if response == "" {
				response = nothingScheduled
			}

			return tools.Respond(resultNothingFound, response), nil
		}

		if args.ResponseSuccess != "" {
			response = args.ResponseSuccess + " " + response
		}

		result := fmt.Sprintf("cancelled timers: %d alarms: %d", cancelledTimers, cancelledAlarms)

		return tools.Respond(result, response), nil
	}), nil
}

// cancelMessage tells apart a cancellation, an empty collection and an unknown id.
func cancelMessage(singular, plural, id string, cancelled, active int, noneText, notFoundText string) string {
	switch {
	case cancelled > 0 && id != "":
		return fmt.Sprintf("Cancelled 1 %s.", singular)
	case cancelled > 0:
		return fmt.Sprintf("Cancelled all %s, %d in total.", plural, cancelled)
	case active == 0:
		return noneText
	default:
		return notFoundText
	}
}

func labelSuffix(label string) string {
	if label == "" {
		return ""
	}

	return " (" + label + ")"
}
