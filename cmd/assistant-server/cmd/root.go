package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/voice-assistant/internal/config"
	"github.com/oshokin/voice-assistant/internal/service/server"
	"github.com/oshokin/voice-assistant/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// webSocketAddress overrides websocket_addr from the settings.
	webSocketAddress string
	// logLevel overrides log_level from the settings.
	logLevel string
	// allowMultiple skips the running-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the assistant server.
	rootCmd = &cobra.Command{
		Use:   "assistant-server [listen-address]",
		Short: "Run the voice assistant tool server.",
		Long: `Starts the gRPC server that exposes the timer and alarm tools to a voice assistant.

Clients open a session with Connect, call tools inside it with InvokeTool and receive
notifications and conversation turns on the Connect stream when timers and alarms go off.
Only the port from server_addr is used for listening (e.g., :50051); the listen address
argument overrides it. When websocket_addr is set, the same sessions are also served over
WebSocket at /ws.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:       configPath,
				ListenAddress:    listenAddress,
				WebSocketAddress: webSocketAddress,
				LogLevel:         logLevel,
				AllowMultiple:    allowMultiple,
			})
		},
	}
)

// Execute runs the assistant-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&webSocketAddress, "websocket", "w", "", "WebSocket listen address, overrides the settings")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "debug, info, warn or error; overrides the settings")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "do not refuse to start when another server is running")
}
