package ws

import (
	"encoding/json"

	"github.com/oshokin/voice-assistant/internal/service/session"
	"github.com/oshokin/voice-assistant/internal/tools"
)

// Frame types exchanged on the socket, in addition to the session event types.
const (
	TypeToolCall   = "tool_call"
	TypeToolResult = "tool_result"
	TypeError      = "error"
)

// Frame is one JSON message on the socket.
type Frame struct {
	// Type is a session event type or one of the Type constants.
	Type string `json:"type"`
	// ID correlates a tool_call with its tool_result or error.
	ID string `json:"id,omitempty"`
	// Name is the tool to call.
	Name string `json:"name,omitempty"`
	// Arguments is the tool's argument object.
	Arguments json.RawMessage `json:"arguments,omitempty"`
	// SessionID is set on session frames.
	SessionID string `json:"session_id,omitempty"`
	// Text is set on notification and turn frames.
	Text string `json:"text,omitempty"`
	// Mode is set on turn frames.
	Mode string `json:"mode,omitempty"`
	// Action, Result and Response carry a tool's answer.
	Action   string `json:"action,omitempty"`
	Result   string `json:"result,omitempty"`
	Response string `json:"response,omitempty"`
	// Error describes a failed call.
	Error string `json:"error,omitempty"`
}

func eventFrame(event *session.Event) *Frame {
	return &Frame{
		Type:      string(event.Type),
		SessionID: event.SessionID,
		Text:      event.Text,
		Mode:      string(event.Mode),
	}
}

func resultFrame(id string, resp *tools.ActionResponse) *Frame {
	return &Frame{
		Type:     TypeToolResult,
		ID:       id,
		Action:   string(resp.Action),
		Result:   resp.Result,
		Response: resp.Response,
	}
}

func errorFrame(id string, err error) *Frame {
	return &Frame{
		Type:  TypeError,
		ID:    id,
		Error: err.Error(),
	}
}
