package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("prompt", cfg.Prompt)
	v.SetDefault("date_format", cfg.DateFormat)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("timeouts.connect_ms", cfg.Timeouts.ConnectMillis)
	v.SetDefault("timeouts.command_ms", cfg.Timeouts.CommandMillis)
	v.SetDefault("query.page_size", cfg.Query.PageSize)
	v.SetDefault("editor.poll_interval_ms", cfg.Editor.PollIntervalMillis)
	v.SetDefault("editor.recheck_ms", cfg.Editor.RecheckMillis)
	v.SetDefault("transport.path", cfg.Transport.Path)
	v.SetDefault("transport.tls", cfg.Transport.TLS)
	v.SetDefault("transport.read_limit_bytes", cfg.Transport.ReadLimitBytes)
	v.SetDefault("logging.file", cfg.Logging.File)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// SetConfigFile bypasses the search path, so a missing file surfaces as
	// a plain stat error.
	return os.IsNotExist(err)
}

func validate(cfg Config) error {
	if cfg.Timeouts.ConnectMillis <= 0 {
		return fmt.Errorf("timeouts.connect_ms must be positive")
	}
	if cfg.Timeouts.CommandMillis <= 0 {
		return fmt.Errorf("timeouts.command_ms must be positive")
	}
	if cfg.Query.PageSize < 1 {
		return fmt.Errorf("query.page_size must be at least 1")
	}
	if cfg.Editor.PollIntervalMillis <= 0 || cfg.Editor.RecheckMillis <= 0 {
		return fmt.Errorf("editor.poll_interval_ms and editor.recheck_ms must be positive")
	}
	if strings.TrimSpace(cfg.DateFormat) == "" {
		return fmt.Errorf("date_format must not be empty")
	}
	if !strings.HasPrefix(cfg.Transport.Path, "/") {
		return fmt.Errorf("transport.path must start with /")
	}
	if strings.ContainsAny(cfg.Transport.Path, "?#") {
		return fmt.Errorf("transport.path must not include query or fragment")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Logging.File = expandEnv(cfg.Logging.File)
	cfg.Transport.Path = expandEnv(cfg.Transport.Path)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
