package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/voice-assistant/internal/api/grpc/assistant"
	"github.com/oshokin/voice-assistant/internal/api/ws"
	"github.com/oshokin/voice-assistant/internal/config"
	"github.com/oshokin/voice-assistant/internal/logger"
	pb "github.com/oshokin/voice-assistant/internal/pb/v1"
	"github.com/oshokin/voice-assistant/internal/version"
)

// Options controls the assistant-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// WebSocketAddress overrides websocket_addr from the settings when not empty.
	WebSocketAddress string
	// LogLevel overrides log_level from the settings when not empty.
	LogLevel string
	// AllowMultiple skips the check for another running server.
	AllowMultiple bool
}

// shutdownTimeout bounds graceful shutdown of both listeners.
const shutdownTimeout = 5 * time.Second

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// ErrUnknownLogLevel indicates a --log-level value zap does not know.
	ErrUnknownLogLevel = errors.New("unknown log level")
)

// Run starts the gRPC server, and the WebSocket server when configured, and
// blocks until ctx is cancelled or a server fails.
//
//nolint:funlen // Startup and shutdown of two listeners read best in one place.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "assistant-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logLevel := settings.LogLevel
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLogLevel, logLevel)
	}

	logger.SetLevel(level)

	if !opts.AllowMultiple {
		if err = ensureSingleInstance(ctx); err != nil {
			return err
		}
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	webSocketAddress := settings.WebSocketAddress
	if opts.WebSocketAddress != "" {
		webSocketAddress = opts.WebSocketAddress
	}

	app, err := newApplication(settings)
	if err != nil {
		return fmt.Errorf("initialise application: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterAssistantServiceServer(grpcServer, api.NewServer(app.tools, app.sessions, version.Short()))

	var httpServer *http.Server

	if webSocketAddress != "" {
		wsListener, listenErr := lc.Listen(ctx, "tcp", webSocketAddress)
		if listenErr != nil {
			_ = lis.Close()

			return fmt.Errorf("listen on %s: %w", webSocketAddress, listenErr)
		}

		httpServer = &http.Server{
			Handler:           ws.NewHandler(app.tools, app.sessions).Router(),
			ReadHeaderTimeout: shutdownTimeout,
		}

		go func() {
			if serveErr := httpServer.Serve(wsListener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "WebSocket server failed", "error", serveErr)
			}
		}()

		logger.InfoKV(ctx, "WebSocket server listening", "listen_address", wsListener.Addr().String())
	}

	logger.InfoKV(ctx, "Assistant server listening",
		"listen_address", lis.Addr().String(),
		"version", version.Short(),
		"tools", len(app.tools.Tools()))

	// Done channel is closed after shutdown finishes to ensure we block
	// until the servers fully stop before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down")

		shutdown(context.WithoutCancel(ctx), app, grpcServer, httpServer)
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Assistant server stopped")

	return nil
}

// shutdown closes every session first so that streams end, then stops the listeners.
func shutdown(ctx context.Context, app *application, grpcServer *grpc.Server, httpServer *http.Server) {
	app.sessions.CloseAll(ctx)

	if httpServer != nil {
		httpCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(httpCtx); err != nil {
			logger.WarnKV(ctx, "WebSocket server shutdown failed", "error", err)
		}
	}

	stopped := make(chan struct{})

	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn(ctx, "Graceful stop timed out, forcing")
		grpcServer.Stop()
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Port-only address binds on all interfaces.
	return ":" + port, nil
}
