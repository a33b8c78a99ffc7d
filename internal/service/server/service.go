package server

import (
	"fmt"

	"github.com/oshokin/voice-assistant/internal/config"
	"github.com/oshokin/voice-assistant/internal/repository/registry"
	"github.com/oshokin/voice-assistant/internal/service/scheduler"
	"github.com/oshokin/voice-assistant/internal/service/session"
	"github.com/oshokin/voice-assistant/internal/tools"
	"github.com/oshokin/voice-assistant/internal/tools/timer"
)

// application holds the components shared by both transports.
type application struct {
	// engine schedules and fires timers and alarms.
	engine *scheduler.Engine
	// tools lists and dispatches tool calls.
	tools *tools.Registry
	// sessions owns the open conversations.
	sessions *session.Manager
}

// newApplication wires the registry, engine, tools and session manager.
func newApplication(settings *config.Config) (*application, error) {
	engine := scheduler.NewEngine(registry.New())

	toolRegistry := tools.NewRegistry()
	if err := timer.New(engine).Register(toolRegistry); err != nil {
		return nil, fmt.Errorf("register timer tools: %w", err)
	}

	sessions := session.NewManager(engine, session.Options{
		EventBuffer:     settings.EventBuffer,
		FunctionCalling: settings.FunctionCallingEnabled(),
	})

	return &application{
		engine:   engine,
		tools:    toolRegistry,
		sessions: sessions,
	}, nil
}
