// Package schedule contains the domain types of the timer and alarm
// subsystem.
//
// Timer is a countdown with a fixed end instant, Alarm a wall-clock
// reminder whose target instant is resolved once at creation by
// NextAlarmTime. Both carry the firing handle that cancels their deferred
// notification; Clone strips it so snapshots never leak it.
package schedule
