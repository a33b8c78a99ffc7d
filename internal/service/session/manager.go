package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/oshokin/voice-assistant/internal/eventloop"
	"github.com/oshokin/voice-assistant/internal/logger"
)

// DefaultEventBuffer is the event queue capacity used when Options leaves it unset.
const DefaultEventBuffer = 64

// Detacher releases the scheduled entries of a closed session.
type Detacher interface {
	Detach(ctx context.Context, sessionID string)
}

// Options configures a Manager.
type Options struct {
	// EventBuffer is the capacity of each session's event queue.
	EventBuffer int
	// FunctionCalling is the mode of sessions that do not request one.
	FunctionCalling bool
}

// OpenOptions configures one session.
type OpenOptions struct {
	// FunctionCalling overrides the manager default when set.
	FunctionCalling *bool
	// Peer describes the client.
	Peer Peer
}

// Manager tracks open sessions.
type Manager struct {
	// detacher is told about closed sessions.
	detacher Detacher
	// opts holds the defaults for new sessions.
	opts Options
	// sessions maps ids to open sessions.
	sessions map[string]*Session
	// mu protects sessions.
	mu sync.RWMutex
}

// NewManager creates a manager that detaches closed sessions from detacher.
func NewManager(detacher Detacher, opts Options) *Manager {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}

	return &Manager{
		detacher: detacher,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session. Its loop keeps running after ctx is cancelled,
// until Close. The first queued event is the session announcement.
func (m *Manager) Open(ctx context.Context, opts OpenOptions) (*Session, error) {
	id := uuid.NewString()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	loopCtx = logger.WithName(loopCtx, "session")
	loopCtx = logger.WithKV(loopCtx, "session_id", id)

	s := &Session{
		id:     id,
		peer:   opts.Peer,
		loop:   eventloop.New(0),
		cancel: cancel,
		events: make(chan *Event, m.opts.EventBuffer),
	}

	functionCalling := m.opts.FunctionCalling
	if opts.FunctionCalling != nil {
		functionCalling = *opts.FunctionCalling
	}

	s.functionCalling.Store(functionCalling)

	if err := s.send(loopCtx, &Event{Type: EventSession, SessionID: id}); err != nil {
		cancel()

		return nil, fmt.Errorf("announce session: %w", err)
	}

	go s.loop.Run(loopCtx)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.InfoKV(loopCtx, "Session opened",
		"hostname", opts.Peer.Hostname,
		"username", opts.Peer.Username,
		"function_calling", functionCalling)

	return s, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]

	return s, ok
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Close closes a session and releases its timers and alarms.
// Closing an unknown or closed session is a no-op.
func (m *Manager) Close(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok || !s.close() {
		return
	}

	if m.detacher != nil {
		m.detacher.Detach(ctx, id)
	}

	logger.InfoKV(ctx, "Session closed", "session_id", id)
}

// CloseAll closes every open session.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))

	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Close(ctx, id)
	}
}
