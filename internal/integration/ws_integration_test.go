package integration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/voice-assistant/internal/api/ws"
	"github.com/oshokin/voice-assistant/internal/service/session"
	"github.com/oshokin/voice-assistant/internal/tools/timer"
)

// TestWebSocket_AlarmValidationAndTimer exercises the WebSocket listener started by the server.
func TestWebSocket_AlarmValidationAndTimer(t *testing.T) {
	t.Parallel()

	wsAddr := reservePort(t)
	startServer(t, reservePort(t), wsAddr)

	socket, resp, err := websocket.DefaultDialer.Dial("ws://"+wsAddr+"/ws?function_calling=false", nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	defer func() {
		_ = socket.Close()
	}()

	read := func() *ws.Frame {
		require.NoError(t, socket.SetReadDeadline(time.Now().Add(5*time.Second)))

		var frame ws.Frame
		require.NoError(t, socket.ReadJSON(&frame))

		return &frame
	}

	require.Equal(t, string(session.EventSession), read().Type)

	require.NoError(t, socket.WriteJSON(&ws.Frame{
		Type:      ws.TypeToolCall,
		ID:        "alarm",
		Name:      timer.SetAlarmName,
		Arguments: json.RawMessage(`{"hour": 25, "minute": 0}`),
	}))

	frame := read()
	require.Equal(t, "alarm", frame.ID)
	require.Equal(t, timer.InvalidHourText, frame.Response)

	require.NoError(t, socket.WriteJSON(&ws.Frame{
		Type:      ws.TypeToolCall,
		ID:        "timer",
		Name:      timer.SetTimerName,
		Arguments: json.RawMessage(`{"duration": 1}`),
	}))

	require.Equal(t, ws.TypeToolResult, read().Type)
	require.Equal(t, "Your timer has finished!", read().Text)

	turn := read()
	require.Equal(t, string(session.EventTurn), turn.Type)
	require.Equal(t, string(session.ModeChat), turn.Mode)
}
