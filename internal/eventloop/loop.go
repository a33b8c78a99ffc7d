package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/logger"
)

// DefaultQueueSize is the number of due actions buffered ahead of Run.
const DefaultQueueSize = 16

// ErrLoopClosed is returned by Submit after the loop stopped.
var ErrLoopClosed = errors.New("event loop is closed")

// Loop executes submitted actions one at a time.
type Loop struct {
	// queue holds actions whose delay has elapsed.
	queue chan *Handle
	// done is closed by Stop.
	done chan struct{}
	// pending holds handles that have neither started nor been cancelled.
	pending map[*Handle]struct{}
	// closed is set by Stop under mu.
	closed bool
	// mu protects pending and closed.
	mu sync.Mutex
}

// New creates a loop; call Run to start executing actions.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Loop{
		queue:   make(chan *Handle, queueSize),
		done:    make(chan struct{}),
		pending: make(map[*Handle]struct{}),
	}
}

// Run executes due actions until ctx is cancelled or Stop is called.
// The context passed to every action is ctx. Run must be called at most once.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case h := <-l.queue:
			l.execute(ctx, h)
		}
	}
}

// Stop makes Run return and cancels every action that has not started.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.closed = true
	close(l.done)

	for h := range l.pending {
		if h.state.CompareAndSwap(statePending, stateCancelled) {
			h.timer.Stop()
		}
	}

	clear(l.pending)
}

// Done is closed once the loop stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Submit schedules action to run on the loop after delay. It is safe to call
// from any goroutine, including from inside an action.
func (l *Loop) Submit(delay time.Duration, action session.Action) (*Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLoopClosed
	}

	h := &Handle{
		action: action,
		loop:   l,
	}

	l.pending[h] = struct{}{}
	h.timer = time.AfterFunc(max(delay, 0), func() {
		l.enqueue(h)
	})

	return h, nil
}

// enqueue hands a due action to Run. Once the loop stopped the handle is
// already cancelled and nothing reads the queue any more.
func (l *Loop) enqueue(h *Handle) {
	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.queue <- h:
	case <-l.done:
	}
}

// execute runs one action, recovering from panics so the loop survives.
func (l *Loop) execute(ctx context.Context, h *Handle) {
	if !h.state.CompareAndSwap(statePending, stateRunning) {
		return
	}

	l.forget(h)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Deferred action panicked", "panic", r)
		}

		h.state.Store(stateDone)
	}()

	h.action(ctx)
}

// forget drops a handle that started or was cancelled.
func (l *Loop) forget(h *Handle) {
	l.mu.Lock()
	delete(l.pending, h)
	l.mu.Unlock()
}

const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateCancelled
)

// Handle is a cancellable reference to a submitted action.
type Handle struct {
	// action is the work to run.
	action session.Action
	// loop owns the handle.
	loop *Loop
	// timer fires when the delay elapses. Set once before the handle is returned.
	timer *time.Timer
	// state moves pending → running → done, or pending → cancelled.
	state atomic.Int32
}

// Cancel prevents a pending action from running.
// It returns false when the action already started, finished or was cancelled.
func (h *Handle) Cancel() bool {
	if !h.state.CompareAndSwap(statePending, stateCancelled) {
		return false
	}

	h.timer.Stop()
	h.loop.forget(h)

	return true
}

// Done reports whether the action finished or was cancelled.
func (h *Handle) Done() bool {
	state := h.state.Load()

	return state == stateDone || state == stateCancelled
}
