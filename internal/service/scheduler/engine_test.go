package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/eventloop"
	"github.com/oshokin/voice-assistant/internal/repository/registry"
)

var (
	errTestClosed = errors.New("connection closed")
	errTestSubmit = errors.New("loop closed")
)

// fakeConnection records everything the engine delivers.
type fakeConnection struct {
	// loop runs the deferred actions.
	loop *eventloop.Loop
	// notifyErr is returned from Notify when set.
	notifyErr error
	// submitErr is returned from Submit when set.
	submitErr error
	// notifications, chats and toolChats collect delivered texts.
	notifications, chats, toolChats []string
	// functionCalling is the reported conversational mode.
	functionCalling bool
	// mu protects the recorded slices.
	mu sync.Mutex
}

func (c *fakeConnection) ID() string { return "fake-session" }

func (c *fakeConnection) Submit(delay time.Duration, action session.Action) (session.Handle, error) {
	if c.submitErr != nil {
		return nil, c.submitErr
	}

	h, err := c.loop.Submit(delay, action)
	if err != nil {
		return nil, err
	}

	return h, nil
}

func (c *fakeConnection) Notify(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notifyErr != nil {
		return c.notifyErr
	}

	c.notifications = append(c.notifications, text)

	return nil
}

func (c *fakeConnection) Chat(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chats = append(c.chats, text)

	return nil
}

func (c *fakeConnection) ChatWithFunctionCalling(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toolChats = append(c.toolChats, text)

	return nil
}

func (c *fakeConnection) FunctionCallingEnabled() bool { return c.functionCalling }

// delivered returns copies of the recorded texts.
func (c *fakeConnection) delivered() (notifications, chats, toolChats []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.notifications...),
		append([]string(nil), c.chats...),
		append([]string(nil), c.toolChats...)
}

// newHarness builds an engine and a connection whose loop runs until stop is called.
func newHarness(functionCalling bool) (*Engine, *fakeConnection, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	loop := eventloop.New(0)
	go loop.Run(ctx)

	conn := &fakeConnection{loop: loop, functionCalling: functionCalling}

	return NewEngine(registry.New()), conn, cancel
}

// TestStartTimer_FiresOnce verifies the notification, the tool-enabled turn and the removal.
func TestStartTimer_FiresOnce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine, conn, stop := newHarness(true)
		defer stop()

		timer, err := engine.StartTimer(context.Background(), conn, 5, "tea")
		require.NoError(t, err)
		require.Len(t, engine.Timers(), 1)

		time.Sleep(4 * time.Second)
		synctest.Wait()

		notifications, _, _ := conn.delivered()
		require.Empty(t, notifications)

		time.Sleep(2 * time.Second)
		synctest.Wait()

		notifications, chats, toolChats := conn.delivered()
		require.Equal(t, []string{"Your tea timer has finished!"}, notifications)
		require.Empty(t, chats)
		require.Equal(t, []string{"Your tea timer has finished!"}, toolChats)
		require.Empty(t, engine.Timers())

		require.Zero(t, engine.CancelTimers(context.Background(), timer.ID))
	})
}

// TestStartAlarm_FiresWithClockText checks the unlabelled alarm text and the plain chat mode.
func TestStartAlarm_FiresWithClockText(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine, conn, stop := newHarness(false)
		defer stop()

		alarm, err := engine.StartAlarm(context.Background(), conn, 7, 0, 1, "")
		require.NoError(t, err)
		require.True(t, alarm.TargetTime.After(engine.Now()))

		time.Sleep(49 * time.Hour)
		synctest.Wait()

		notifications, chats, toolChats := conn.delivered()
		require.Equal(t, []string{"Alarm! It is now 07:00."}, notifications)
		require.Equal(t, []string{"Alarm! It is now 07:00."}, chats)
		require.Empty(t, toolChats)
		require.Empty(t, engine.Alarms())
	})
}

// TestCancel_BeforeFiring ensures a cancelled entry never notifies.
func TestCancel_BeforeFiring(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine, conn, stop := newHarness(true)
		defer stop()

		ctx := context.Background()

		timer, err := engine.StartTimer(ctx, conn, 10, "")
		require.NoError(t, err)

		_, err = engine.StartTimer(ctx, conn, 20, "")
		require.NoError(t, err)

		_, err = engine.StartAlarm(ctx, conn, 7, 0, 1, "")
		require.NoError(t, err)

		require.Equal(t, 1, engine.CancelTimers(ctx, timer.ID))
		require.Equal(t, 1, engine.CancelTimers(ctx, ""))
		require.Equal(t, 1, engine.CancelAlarms(ctx, ""))

		time.Sleep(72 * time.Hour)
		synctest.Wait()

		notifications, chats, toolChats := conn.delivered()
		require.Empty(t, notifications)
		require.Empty(t, chats)
		require.Empty(t, toolChats)
	})
}

// TestFire_DeliveryFailureStillRemoves verifies a failed notification is swallowed and the entry removed.
func TestFire_DeliveryFailureStillRemoves(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine, conn, stop := newHarness(true)
		defer stop()

		conn.notifyErr = errTestClosed

		_, err := engine.StartTimer(context.Background(), conn, 1, "")
		require.NoError(t, err)

		time.Sleep(2 * time.Second)
		synctest.Wait()

		_, chats, toolChats := conn.delivered()
		require.Empty(t, chats)
		require.Empty(t, toolChats)
		require.Empty(t, engine.Timers())
	})
}

// TestStartTimer_SubmitFailure leaves no entry behind.
func TestStartTimer_SubmitFailure(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine, conn, stop := newHarness(true)
		defer stop()

		conn.submitErr = errTestSubmit

		_, err := engine.StartTimer(context.Background(), conn, 5, "")
		require.ErrorIs(t, err, errTestSubmit)
		require.Empty(t, engine.Timers())

		_, err = engine.StartAlarm(context.Background(), conn, 7, 0, 0, "")
		require.ErrorIs(t, err, errTestSubmit)
		require.Empty(t, engine.Alarms())
	})
}

// TestDetach cancels the entries of a closed connection.
func TestDetach(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		engine, conn, stop := newHarness(true)
		defer stop()

		_, err := engine.StartTimer(context.Background(), conn, 5, "")
		require.NoError(t, err)

		engine.Detach(context.Background(), conn.ID())
		require.Empty(t, engine.Timers())

		time.Sleep(10 * time.Second)
		synctest.Wait()

		notifications, _, _ := conn.delivered()
		require.Empty(t, notifications)
	})
}
