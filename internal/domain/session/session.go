package session

import (
	"context"
	"time"
)

// Handle is a cancellable reference to one deferred action.
type Handle interface {
	// Cancel prevents the action from running and reports whether it did.
	// Cancelling a running, finished or already cancelled action returns false.
	Cancel() bool
	// Done reports whether the action ran to completion or was cancelled.
	Done() bool
}

// Action is a unit of work run once on the connection's event loop.
type Action func(ctx context.Context)

// Connection is the owner of a conversation.
// Implementations must make every method safe to call from any goroutine.
type Connection interface {
	// ID identifies the connection for the lifetime of the process.
	ID() string
	// Submit schedules action to run on the connection's event loop after delay.
	Submit(delay time.Duration, action Action) (Handle, error)
	// Notify delivers text to the end user, typically for speech synthesis.
	Notify(ctx context.Context, text string) error
	// Chat injects text into a plain conversational turn.
	Chat(ctx context.Context, text string) error
	// ChatWithFunctionCalling injects text into a turn that may call tools.
	ChatWithFunctionCalling(ctx context.Context, text string) error
	// FunctionCallingEnabled reports the current conversational mode.
	FunctionCallingEnabled() bool
}
