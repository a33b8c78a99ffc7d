package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/voice-assistant/internal/repository/registry"
	"github.com/oshokin/voice-assistant/internal/service/scheduler"
	"github.com/oshokin/voice-assistant/internal/service/session"
	"github.com/oshokin/voice-assistant/internal/tools"
	"github.com/oshokin/voice-assistant/internal/tools/timer"
)

// fixture serves the handler over a real HTTP test server.
type fixture struct {
	server   *httptest.Server
	engine   *scheduler.Engine
	sessions *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	engine := scheduler.NewEngine(registry.New())

	toolRegistry := tools.NewRegistry()
	require.NoError(t, timer.New(engine).Register(toolRegistry))

	sessions := session.NewManager(engine, session.Options{})
	server := httptest.NewServer(NewHandler(toolRegistry, sessions).Router())
	t.Cleanup(server.Close)

	return &fixture{
		server:   server,
		engine:   engine,
		sessions: sessions,
	}
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws" + query

	socket, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	t.Cleanup(func() {
		_ = socket.Close()
	})

	return socket
}

func readFrame(t *testing.T, socket *websocket.Conn) *Frame {
	t.Helper()

	require.NoError(t, socket.SetReadDeadline(time.Now().Add(5*time.Second)))

	var frame Frame
	require.NoError(t, socket.ReadJSON(&frame))

	return &frame
}

// TestHealth verifies the liveness endpoint.
func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.server.URL+"/healthz", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestServeWS_RejectsBadMode ensures an invalid mode is refused before the upgrade.
func TestServeWS_RejectsBadMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?function_calling=maybe"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)

	_ = resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, f.sessions.Len())
}

// TestServeWS_TimerRoundtrip sets a timer and receives its answer and events.
func TestServeWS_TimerRoundtrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	socket := f.dial(t, "?function_calling=true")

	announcement := readFrame(t, socket)
	require.Equal(t, string(session.EventSession), announcement.Type)
	require.NotEmpty(t, announcement.SessionID)

	require.NoError(t, socket.WriteJSON(&Frame{
		Type:      TypeToolCall,
		ID:        "call-1",
		Name:      timer.SetTimerName,
		Arguments: json.RawMessage(`{"duration": 1, "label": "tea"}`),
	}))

	result := readFrame(t, socket)
	require.Equal(t, TypeToolResult, result.Type)
	require.Equal(t, "call-1", result.ID)
	require.Equal(t, string(tools.ActionRespond), result.Action)
	require.Contains(t, result.Response, "1 second")

	notification := readFrame(t, socket)
	require.Equal(t, string(session.EventNotification), notification.Type)
	require.Equal(t, "Your tea timer has finished!", notification.Text)

	turn := readFrame(t, socket)
	require.Equal(t, string(session.EventTurn), turn.Type)
	require.Equal(t, string(session.ModeFunctionCalling), turn.Mode)
}

// TestServeWS_Errors covers unknown tools, invalid arguments and unsupported frames.
func TestServeWS_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	socket := f.dial(t, "")

	readFrame(t, socket)

	require.NoError(t, socket.WriteJSON(&Frame{Type: TypeToolCall, ID: "a", Name: "play_music"}))

	frame := readFrame(t, socket)
	require.Equal(t, TypeError, frame.Type)
	require.Equal(t, "a", frame.ID)
	require.Contains(t, frame.Error, tools.ErrUnknownTool.Error())

	require.NoError(t, socket.WriteJSON(&Frame{
		Type:      TypeToolCall,
		ID:        "b",
		Name:      timer.CheckTimersAlarmsName,
		Arguments: json.RawMessage(`{"check_type": "reminder"}`),
	}))

	frame = readFrame(t, socket)
	require.Equal(t, TypeError, frame.Type)
	require.Equal(t, "b", frame.ID)
	require.Contains(t, frame.Error, tools.ErrInvalidArguments.Error())

	require.NoError(t, socket.WriteJSON(&Frame{Type: "hello", ID: "c"}))

	frame = readFrame(t, socket)
	require.Equal(t, TypeError, frame.Type)
	require.Equal(t, "c", frame.ID)
}

// TestServeWS_CloseReleasesSession verifies a closed socket closes the session and its timers.
func TestServeWS_CloseReleasesSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	socket := f.dial(t, "")

	readFrame(t, socket)

	require.NoError(t, socket.WriteJSON(&Frame{
		Type:      TypeToolCall,
		ID:        "1",
		Name:      timer.SetTimerName,
		Arguments: json.RawMessage(`{"duration": 3600}`),
	}))

	require.Equal(t, TypeToolResult, readFrame(t, socket).Type)
	require.Len(t, f.engine.Timers(), 1)
	require.Equal(t, 1, f.sessions.Len())

	require.NoError(t, socket.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, socket.Close())

	require.Eventually(t, func() bool {
		return f.sessions.Len() == 0 && len(f.engine.Timers()) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
