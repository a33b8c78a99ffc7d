// Package timer exposes the timer and alarm tools to the model:
// set_timer, set_alarm, check_timers_alarms and cancel_timer_alarm.
//
// Every tool answers with the respond-directly action. Validation failures
// return fixed texts before anything is scheduled; any other failure is
// logged and answered with the caller's response_failure text.
package timer
