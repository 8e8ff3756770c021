package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/hconsole/internal/command"
	"pkt.systems/hconsole/internal/correlate"
	"pkt.systems/hconsole/internal/theme"
	"pkt.systems/hconsole/internal/transport"
	"pkt.systems/hconsole/shell"
	"pkt.systems/hconsole/tty"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int             `mapstructure:"config_version" yaml:"config_version"`
	Prompt        string          `mapstructure:"prompt" yaml:"prompt"`
	DateFormat    string          `mapstructure:"date_format" yaml:"date_format"`
	Theme         string          `mapstructure:"theme" yaml:"theme"`
	Timeouts      TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	Query         QueryConfig     `mapstructure:"query" yaml:"query"`
	Editor        EditorConfig    `mapstructure:"editor" yaml:"editor"`
	Transport     TransportConfig `mapstructure:"transport" yaml:"transport"`
	Logging       LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// TimeoutsConfig bounds connection setup and each command round trip.
type TimeoutsConfig struct {
	ConnectMillis int `mapstructure:"connect_ms" yaml:"connect_ms"`
	CommandMillis int `mapstructure:"command_ms" yaml:"command_ms"`
}

// QueryConfig controls the paging query shell.
type QueryConfig struct {
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// EditorConfig tunes the line editor and response waiting.
type EditorConfig struct {
	PollIntervalMillis int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	RecheckMillis      int `mapstructure:"recheck_ms" yaml:"recheck_ms"`
}

// TransportConfig configures the websocket connection.
type TransportConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	TLS            bool   `mapstructure:"tls" yaml:"tls"`
	ReadLimitBytes int64  `mapstructure:"read_limit_bytes" yaml:"read_limit_bytes"`
}

// LoggingConfig controls where diagnostics go.
type LoggingConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// DefaultConnectTimeout bounds connecting and the server handshake.
const DefaultConnectTimeout = 120 * time.Second

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Prompt:        ":",
		DateFormat:    command.DefaultDateLayout,
		Theme:         theme.DefaultPalette,
		Timeouts: TimeoutsConfig{
			ConnectMillis: int(DefaultConnectTimeout / time.Millisecond),
			CommandMillis: int(shell.DefaultTimeout / time.Millisecond),
		},
		Query: QueryConfig{
			PageSize: shell.DefaultPageSize,
		},
		Editor: EditorConfig{
			PollIntervalMillis: int(tty.DefaultPollInterval / time.Millisecond),
			RecheckMillis:      int(correlate.DefaultRecheck / time.Millisecond),
		},
		Transport: TransportConfig{
			Path:           transport.DefaultPath,
			TLS:            false,
			ReadLimitBytes: transport.DefaultReadLimit,
		},
		Logging: LoggingConfig{
			File: "",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hconsole", "config.yaml"), nil
}

// ConnectTimeout returns the connect timeout as a duration.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Timeouts.ConnectMillis) * time.Millisecond
}

// CommandTimeout returns the per-command timeout as a duration.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.Timeouts.CommandMillis) * time.Millisecond
}

// PollInterval returns the editor poll interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Editor.PollIntervalMillis) * time.Millisecond
}

// Recheck returns the bounded wait used while waiting for responses.
func (c Config) Recheck() time.Duration {
	return time.Duration(c.Editor.RecheckMillis) * time.Millisecond
}
