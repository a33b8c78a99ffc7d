// Package humanize renders durations, clock times and day offsets as the
// short English phrases the assistant speaks back to the user.
package humanize
