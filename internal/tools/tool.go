package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/logger"
)

// Action tells the caller what to do with a tool's answer.
type Action string

const (
	// ActionRespond speaks Response to the user as is.
	ActionRespond Action = "response"
	// ActionRequestLLM hands Result back to the model for summarization.
	ActionRequestLLM Action = "request_llm"
)

// ActionResponse is what a tool returns to the dispatcher.
type ActionResponse struct {
	// Action selects how the caller uses the answer.
	Action Action `json:"action"`
	// Result is the machine-readable outcome.
	Result string `json:"result"`
	// Response is the optional text for the user.
	Response string `json:"response,omitempty"`
}

// Handler executes one tool call on behalf of conn.
// args has already been validated against the tool's schema.
type Handler func(ctx context.Context, conn session.Connection, args json.RawMessage) (*ActionResponse, error)

// Tool describes a callable function.
type Tool struct {
	// Name is the identifier the model calls.
	Name string
	// Description tells the model when to call the tool.
	Description string
	// Parameters is the JSON schema of the arguments object.
	Parameters *jsonschema.Schema
	// Handler runs the call.
	Handler Handler
}

// DecodeArguments unmarshals validated arguments into dst.
func DecodeArguments(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}

	return nil
}

// Safely runs fn at a tool's boundary. Errors and panics are logged and
// turned into a response that speaks failureText.
func Safely(ctx context.Context, failureText string, fn func() (*ActionResponse, error)) (resp *ActionResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Tool panicked", "panic", r)

			resp = Failure(fmt.Sprintf("error: %v", r), failureText)
		}
	}()

	resp, err := fn()
	if err != nil {
		logger.ErrorKV(ctx, "Tool failed", "error", err)

		return Failure("error: "+err.Error(), failureText)
	}

	return resp
}

// Respond builds a response that is spoken directly.
func Respond(result, response string) *ActionResponse {
	return &ActionResponse{
		Action:   ActionRespond,
		Result:   result,
		Response: response,
	}
}

// Failure builds the response for a failed call.
func Failure(result, failureText string) *ActionResponse {
	if failureText == "" {
		failureText = DefaultFailureResponse
	}

	return Respond(result, failureText)
}

// DefaultFailureResponse is spoken when a call fails and the model supplied no text.
const DefaultFailureResponse = "Sorry, I couldn't do that right now."
