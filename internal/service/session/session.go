package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/eventloop"
	"github.com/oshokin/voice-assistant/internal/logger"
)

var (
	// ErrSessionClosed is returned when delivering to a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrEventQueueFull is returned when the transport does not keep up with events.
	ErrEventQueueFull = errors.New("session event queue is full")
)

// EventType names the kind of an outbound event.
type EventType string

const (
	// EventSession announces the session id; it is always the first event.
	EventSession EventType = "session"
	// EventNotification carries text to speak to the user.
	EventNotification EventType = "notification"
	// EventTurn injects text into the conversation.
	EventTurn EventType = "turn"
)

// TurnMode is the conversational mode of a turn event.
type TurnMode string

const (
	// ModeChat is a plain conversational turn.
	ModeChat TurnMode = "chat"
	// ModeFunctionCalling is a turn in which the model may call tools.
	ModeFunctionCalling TurnMode = "function_calling"
)

// Event is one message from the server to the client of a session.
type Event struct {
	// Type selects which of the other fields are set.
	Type EventType `json:"type"`
	// SessionID is set on session events.
	SessionID string `json:"session_id,omitempty"`
	// Text is set on notification and turn events.
	Text string `json:"text,omitempty"`
	// Mode is set on turn events.
	Mode TurnMode `json:"mode,omitempty"`
}

// Peer describes who opened the session.
type Peer struct {
	// Hostname is the client machine name.
	Hostname string
	// Username is the client account name.
	Username string
}

// Session is one conversation. It implements domain.Connection.
type Session struct {
	// id is unique for the lifetime of the process.
	id string
	// peer is the client that opened the session.
	peer Peer
	// loop runs deferred actions.
	loop *eventloop.Loop
	// cancel stops the loop.
	cancel context.CancelFunc
	// events is read by the transport.
	events chan *Event
	// functionCalling is the current conversational mode.
	functionCalling atomic.Bool
	// closed is set once under mu; events is closed with it.
	closed bool
	// mu orders sends against Close.
	mu sync.RWMutex
}

var _ domain.Connection = (*Session)(nil)

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Peer returns the client that opened the session.
func (s *Session) Peer() Peer {
	return s.peer
}

// Events returns the outbound queue. It is closed when the session closes.
func (s *Session) Events() <-chan *Event {
	return s.events
}

// Submit schedules action on the session's loop.
func (s *Session) Submit(delay time.Duration, action domain.Action) (domain.Handle, error) {
	h, err := s.loop.Submit(delay, action)
	if err != nil {
		return nil, err
	}

	return h, nil
}

// Notify queues a notification event.
func (s *Session) Notify(ctx context.Context, text string) error {
	return s.send(ctx, &Event{Type: EventNotification, Text: text})
}

// Chat queues a plain turn.
func (s *Session) Chat(ctx context.Context, text string) error {
	return s.send(ctx, &Event{Type: EventTurn, Mode: ModeChat, Text: text})
}

// ChatWithFunctionCalling queues a turn that may call tools.
func (s *Session) ChatWithFunctionCalling(ctx context.Context, text string) error {
	return s.send(ctx, &Event{Type: EventTurn, Mode: ModeFunctionCalling, Text: text})
}

// FunctionCallingEnabled reports the current conversational mode.
func (s *Session) FunctionCallingEnabled() bool {
	return s.functionCalling.Load()
}

// SetFunctionCalling switches the conversational mode.
func (s *Session) SetFunctionCalling(enabled bool) {
	s.functionCalling.Store(enabled)
}

// send queues an event without blocking.
func (s *Session) send(ctx context.Context, event *Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSessionClosed
	}

	select {
	case s.events <- event:
		logger.DebugKV(ctx, "Event queued", "type", event.Type, "mode", event.Mode)

		return nil
	default:
		return ErrEventQueueFull
	}
}

// close stops the loop and closes the event queue. It reports whether
// this call did the closing.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.closed = true
	s.cancel()
	s.loop.Stop()
	close(s.events)

	return true
}
