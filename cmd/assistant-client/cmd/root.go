package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/voice-assistant/internal/config"
	"github.com/oshokin/voice-assistant/internal/service/client"
	"github.com/oshokin/voice-assistant/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from the settings.
	serverAddress string
	// arguments is the JSON object passed to the tool.
	arguments string
	// functionCalling selects the session mode when the flag is given.
	functionCalling bool
	// wait keeps the session open to print the events that follow the call.
	wait time.Duration

	// rootCmd is the base command; it only groups the subcommands.
	rootCmd = &cobra.Command{
		Use:   "assistant-client",
		Short: "Talk to the voice assistant tool server.",
		Long: `Lists the tools of an assistant server and calls them from the command line.

Every call opens its own session. Use --wait to stay connected and print the
notifications and conversation turns produced when a timer or alarm goes off.`,
	}

	// toolsCmd prints the tool descriptors.
	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "Print the server version and its tools.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.ListTools(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Out:           cmd.OutOrStdout(),
			})
		},
	}

	// callCmd invokes one tool.
	callCmd = &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool in a new session.",
		Example: `  assistant-client call set_timer --args '{"duration": 300, "label": "tea"}' --wait 6m
  assistant-client call check_timers_alarms --args '{"check_type": "all"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := &client.CallOptions{
				Options: client.Options{
					ConfigPath:    cfgPath,
					ServerAddress: serverAddress,
					Out:           cmd.OutOrStdout(),
				},
				Tool:      args[0],
				Arguments: arguments,
				Wait:      wait,
			}

			if cmd.Flags().Changed("function-calling") {
				opts.FunctionCalling = &functionCalling
			}

			return client.Call(ctx, opts)
		},
	}
)

// Execute runs the assistant-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "server address, overrides the settings")

	callCmd.Flags().StringVarP(&arguments, "args", "a", "", "tool arguments as a JSON object")
	callCmd.Flags().BoolVar(&functionCalling, "function-calling", true, "let fired timers start tool-enabled turns")
	callCmd.Flags().DurationVarP(&wait, "wait", "w", 0, "stay connected and print events for this long")

	rootCmd.AddCommand(toolsCmd, callCmd)
}
