package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.Path != "/console" || cfg.Query.PageSize != 5 {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("HCONSOLE_LOG_DIR", "/tmp/logs")
	path := writeConfig(t, `
config_version: 1
prompt: db
timeouts:
  command_ms: 2500
query:
  page_size: 20
transport:
  tls: true
logging:
  file: $HCONSOLE_LOG_DIR/hconsole.log
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Prompt != "db" || cfg.CommandTimeout() != 2500*time.Millisecond || cfg.Query.PageSize != 20 || !cfg.Transport.TLS {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.Timeouts.ConnectMillis != int(DefaultConnectTimeout/time.Millisecond) {
		t.Fatalf("expected connect timeout default kept, got %d", cfg.Timeouts.ConnectMillis)
	}
	if cfg.Logging.File != "/tmp/logs/hconsole.log" {
		t.Fatalf("expected env expansion, got %q", cfg.Logging.File)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 3
prompt: x
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	path := writeConfig(t, `
prompt: x
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: "query:\n  page_size: 0", want: "query.page_size"},
		{body: "timeouts:\n  command_ms: -1", want: "timeouts.command_ms"},
		{body: "transport:\n  path: console", want: "transport.path"},
		{body: "transport:\n  path: /c?x=1", want: "transport.path"},
		{body: "date_format: \" \"", want: "date_format"},
	}
	for _, tc := range tests {
		path := writeConfig(t, "config_version: 1\n"+tc.body)
		if _, err := Load(path); err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%q: expected %s error, got %v", tc.body, tc.want, err)
		}
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestWrittenDefaultLoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if _, err := WriteDefault(path, false); err != nil {
		t.Fatalf("write default: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	want, _ := DefaultConfig()
	if cfg != want {
		t.Fatalf("expected %#v, got %#v", want, cfg)
	}
}
