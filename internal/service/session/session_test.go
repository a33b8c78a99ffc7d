package session

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/voice-assistant/internal/eventloop"
	"github.com/oshokin/voice-assistant/internal/repository/registry"
	"github.com/oshokin/voice-assistant/internal/service/scheduler"
)

// recordingDetacher remembers detached session ids.
type recordingDetacher struct {
	ids []string
	mu  sync.Mutex
}

func (d *recordingDetacher) Detach(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ids = append(d.ids, id)
}

// TestOpen_AnnouncesSession checks the first event and the default mode.
func TestOpen_AnnouncesSession(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := NewManager(nil, Options{FunctionCalling: true})

		s, err := m.Open(context.Background(), OpenOptions{Peer: Peer{Hostname: "kitchen", Username: "cook"}})
		require.NoError(t, err)
		defer m.Close(context.Background(), s.ID())

		event := <-s.Events()
		require.Equal(t, &Event{Type: EventSession, SessionID: s.ID()}, event)
		require.True(t, s.FunctionCallingEnabled())
		require.Equal(t, "kitchen", s.Peer().Hostname)

		got, ok := m.Get(s.ID())
		require.True(t, ok)
		require.Same(t, s, got)
		require.Equal(t, 1, m.Len())
	})
}

// TestOpen_ModeOverride verifies a per-session mode wins over the default.
func TestOpen_ModeOverride(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := NewManager(nil, Options{FunctionCalling: true})
		disabled := false

		s, err := m.Open(context.Background(), OpenOptions{FunctionCalling: &disabled})
		require.NoError(t, err)
		defer m.Close(context.Background(), s.ID())

		require.False(t, s.FunctionCallingEnabled())

		s.SetFunctionCalling(true)
		require.True(t, s.FunctionCallingEnabled())
	})
}

// TestSession_Events verifies each delivery method queues the matching event.
func TestSession_Events(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := NewManager(nil, Options{})
		ctx := context.Background()

		s, err := m.Open(ctx, OpenOptions{})
		require.NoError(t, err)
		defer m.Close(ctx, s.ID())

		<-s.Events()

		require.NoError(t, s.Notify(ctx, "Your timer has finished!"))
		require.NoError(t, s.Chat(ctx, "plain"))
		require.NoError(t, s.ChatWithFunctionCalling(ctx, "tools"))

		require.Equal(t, &Event{Type: EventNotification, Text: "Your timer has finished!"}, <-s.Events())
		require.Equal(t, &Event{Type: EventTurn, Mode: ModeChat, Text: "plain"}, <-s.Events())
		require.Equal(t, &Event{Type: EventTurn, Mode: ModeFunctionCalling, Text: "tools"}, <-s.Events())
	})
}

// TestSession_QueueFull ensures a slow reader gets an error instead of blocking the loop.
func TestSession_QueueFull(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := NewManager(nil, Options{EventBuffer: 2})
		ctx := context.Background()

		s, err := m.Open(ctx, OpenOptions{})
		require.NoError(t, err)
		defer m.Close(ctx, s.ID())

		require.NoError(t, s.Notify(ctx, "one"))
		require.ErrorIs(t, s.Notify(ctx, "two"), ErrEventQueueFull)
	})
}

// TestClose_StopsSessionAndDetaches verifies close semantics are idempotent.
func TestClose_StopsSessionAndDetaches(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		detacher := new(recordingDetacher)
		m := NewManager(detacher, Options{})
		ctx := context.Background()

		s, err := m.Open(ctx, OpenOptions{})
		require.NoError(t, err)

		m.Close(ctx, s.ID())
		m.Close(ctx, s.ID())
		synctest.Wait()

		require.Equal(t, []string{s.ID()}, detacher.ids)
		require.Zero(t, m.Len())
		require.ErrorIs(t, s.Notify(ctx, "late"), ErrSessionClosed)

		_, err = s.Submit(time.Second, func(context.Context) {})
		require.ErrorIs(t, err, eventloop.ErrLoopClosed)

		// Drains the announcement, then observes the closed queue.
		<-s.Events()
		_, open := <-s.Events()
		require.False(t, open)
	})
}

// TestClose_CancelsPendingTimers checks that a closed session's timers never fire.
func TestClose_CancelsPendingTimers(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine := scheduler.NewEngine(registry.New())
		m := NewManager(engine, Options{FunctionCalling: true})
		ctx := context.Background()

		keep, err := m.Open(ctx, OpenOptions{})
		require.NoError(t, err)
		defer m.Close(ctx, keep.ID())

		gone, err := m.Open(ctx, OpenOptions{})
		require.NoError(t, err)

		_, err = engine.StartTimer(ctx, keep, 5, "kept")
		require.NoError(t, err)

		_, err = engine.StartTimer(ctx, gone, 5, "dropped")
		require.NoError(t, err)

		_, err = engine.StartAlarm(ctx, gone, 7, 0, 1, "")
		require.NoError(t, err)

		m.Close(ctx, gone.ID())

		timers := engine.Timers()
		require.Len(t, timers, 1)
		require.Equal(t, "kept", timers[0].Label)
		require.Empty(t, engine.Alarms())

		time.Sleep(6 * time.Second)
		synctest.Wait()

		<-keep.Events()
		require.Equal(t, &Event{Type: EventNotification, Text: "Your kept timer has finished!"}, <-keep.Events())
		require.Equal(t, &Event{
			Type: EventTurn,
			Mode: ModeFunctionCalling,
			Text: "Your kept timer has finished!",
		}, <-keep.Events())
	})
}
