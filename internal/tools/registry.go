package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/logger"
)

var (
	// ErrUnknownTool is returned when no tool has the requested name.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when arguments do not match the tool's schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")
	// ErrInvalidTool is returned when a tool cannot be registered.
	ErrInvalidTool = errors.New("invalid tool")
	// ErrToolFailed is returned when a handler panics outside its own guard.
	ErrToolFailed = errors.New("tool failed")
)

// entry is a registered tool with its resolved schema.
type entry struct {
	// tool is the registered definition.
	tool *Tool
	// schema validates call arguments.
	schema *jsonschema.Resolved
}

// Registry holds the tools available to the model.
type Registry struct {
	// tools maps names to entries.
	tools map[string]*entry
	// mu protects tools.
	mu sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*entry),
	}
}

// Register adds tools, resolving their schemas. Names must be unique.
func (r *Registry) Register(tools ...*Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tool := range tools {
		if tool == nil || tool.Name == "" || tool.Handler == nil {
			return fmt.Errorf("%w: name and handler are required", ErrInvalidTool)
		}

		if _, exists := r.tools[tool.Name]; exists {
			return fmt.Errorf("%w: %s is already registered", ErrInvalidTool, tool.Name)
		}

		params := tool.Parameters
		if params == nil {
			params = &jsonschema.Schema{Type: "object"}
		}

		resolved, err := params.Resolve(nil)
		if err != nil {
			return fmt.Errorf("resolve schema of %s: %w", tool.Name, err)
		}

		r.tools[tool.Name] = &entry{
			tool:   tool,
			schema: resolved,
		}
	}

	return nil
}

// Tools returns the registered tools ordered by name.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.tools))
	for _, e := range r.tools {
		result = append(result, e.tool)
	}

	slices.SortFunc(result, func(a, b *Tool) int {
		return strings.Compare(a.Name, b.Name)
	})

	return result
}

// Invoke validates args and runs the named tool for conn.
// Empty or null args are treated as an empty object.
func (r *Registry) Invoke(
	ctx context.Context,
	conn session.Connection,
	name string,
	args json.RawMessage,
) (resp *ActionResponse, err error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = json.RawMessage("{}")
	}

	var instance map[string]any
	if err = json.Unmarshal(args, &instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}

	if err = e.schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}

	ctx = logger.WithKV(ctx, "tool", name, "session_id", conn.ID())

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorKV(ctx, "Tool handler panicked", "panic", p)

			resp, err = nil, fmt.Errorf("%w: %s: %v", ErrToolFailed, name, p)
		}
	}()

	logger.DebugKV(ctx, "Invoking tool", "arguments", string(args))

	return e.tool.Handler(ctx, conn, args)
}
