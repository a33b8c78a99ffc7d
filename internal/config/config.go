package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/voice-assistant/internal/logger"
)

// Config holds the settings shared by the assistant server and client.
type Config struct {
	// ServerAddress is the gRPC address the server binds and the client dials.
	ServerAddress string `yaml:"server_addr"`
	// WebSocketAddress enables the WebSocket transport when not empty.
	WebSocketAddress string `yaml:"websocket_addr,omitempty"`
	// Timeout bounds client RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// FunctionCalling is the conversational mode given to new sessions
	// that do not request one explicitly.
	FunctionCalling *bool `yaml:"function_calling,omitempty"`
	// EventBuffer is the capacity of each session's outbound event queue.
	EventBuffer int `yaml:"event_buffer"`
}

const (
	// DefaultConfigFilename is the settings file looked up when no path is given.
	DefaultConfigFilename = "voice-assistant-settings.yaml"

	// DefaultEnvFilename is the optional dotenv file applied on top of the YAML settings.
	DefaultEnvFilename = ".env"

	// DefaultTimeout is used when the settings leave timeout unset.
	DefaultTimeout = 5 * time.Second

	// DefaultEventBuffer is used when the settings leave event_buffer unset.
	DefaultEventBuffer = 64

	// DefaultLogLevel is used when the settings leave log_level unset.
	DefaultLogLevel = "info"

	// DefaultFilePermissions restricts written settings files to the owner.
	DefaultFilePermissions = 0o600
)

// Environment variables that override file settings.
const (
	EnvServerAddress    = "ASSISTANT_SERVER_ADDR"
	EnvWebSocketAddress = "ASSISTANT_WEBSOCKET_ADDR"
	EnvLogLevel         = "ASSISTANT_LOG_LEVEL"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerAddressRequired is returned when server address is missing.
	errServerAddressRequired = errors.New("server address must be provided")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads settings from path, applies the dotenv file next to it and
// environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(filepath.Clean(path)), DefaultEnvFilename)
	if err = loadEnvFile(envPath); err != nil {
		return nil, err
	}

	applyEnv(&cfg)

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return errServerAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.WebSocketAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.WebSocketAddress); err != nil {
			return fmt.Errorf("invalid websocket address: %w", err)
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.FunctionCalling == nil {
		enabled := true
		cfg.FunctionCalling = &enabled
	}

	return nil
}

// FunctionCallingEnabled reports the default session mode.
func (c *Config) FunctionCallingEnabled() bool {
	return c.FunctionCalling == nil || *c.FunctionCalling
}

// loadEnvFile applies a dotenv file without overriding variables already set.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load env file: %w", err)
}

// applyEnv overrides file settings with non-empty environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.ServerAddress = v
	}

	if v := os.Getenv(EnvWebSocketAddress); v != "" {
		cfg.WebSocketAddress = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}
