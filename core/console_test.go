package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pkt.systems/hconsole/internal/mockserver"
	"pkt.systems/hconsole/internal/transport"
	"pkt.systems/hconsole/schema"
)

// scriptReader answers reads from a fixed script and reports end of input
// once the script is exhausted.
type scriptReader struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
	secrets []string
	clears  int
	eof     chan struct{}
	once    sync.Once
}

func newScriptReader(lines ...string) *scriptReader {
	return &scriptReader{lines: lines, eof: make(chan struct{})}
}

func (r *scriptReader) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-r.eof:
		return io.EOF
	}
}

func format(prompt string, args ...any) string {
	if len(args) == 0 {
		return prompt
	}
	return fmt.Sprintf(prompt, args...)
}

func (r *scriptReader) next(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) > 0 {
		line := r.lines[0]
		r.lines = r.lines[1:]
		r.mu.Unlock()
		return line, nil
	}
	r.mu.Unlock()
	r.once.Do(func() { close(r.eof) })
	<-ctx.Done()
	return "", ctx.Err()
}

func (r *scriptReader) Read(ctx context.Context, prompt string, _ lipgloss.Color, args ...any) (string, error) {
	return r.next(ctx, format(prompt, args...))
}

func (r *scriptReader) ReadSecret(ctx context.Context, prompt string, _ lipgloss.Color, args ...any) (string, error) {
	p := format(prompt, args...)
	r.mu.Lock()
	r.secrets = append(r.secrets, p)
	r.mu.Unlock()
	return r.next(ctx, p)
}

func (r *scriptReader) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *scriptReader) snapshot() ([]string, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...), append([]string(nil), r.secrets...), r.clears
}

func startConsoleMock(t *testing.T, opts mockserver.Options) (string, int) {
	t.Helper()
	srv := httptest.NewServer(mockserver.New(opts).Handler())
	t.Cleanup(srv.Close)
	host, portText, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return host, port
}

func transportDialer(host string, port int) Dialer {
	return func(ctx context.Context) (Conn, error) {
		client, err := transport.Dial(ctx, host, port, transport.Options{})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func runConsole(t *testing.T, c *Console) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Run(ctx)
}

func TestConsoleGuestSession(t *testing.T) {
	host, port := startConsoleMock(t, mockserver.Options{Metadata: schema.ServerMetadata{ServerName: "demo", ClusterName: "east"}, Rows: 7})
	reader := newScriptReader(
		"",
		"echo hi 42",
		"evaluate",
		"SELECT * FROM t",
		"next",
		"exit",
		"bogus-after-exit",
		"exit",
	)
	out := &syncBuffer{}
	c := NewConsole(out, reader, transportDialer(host, port), Options{Host: host, Port: port, PageSize: 5, Tick: 5 * time.Millisecond})
	if err := runConsole(t, c); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Trying with " + host + ":" + strconv.Itoa(port),
		"Connected",
		"Server: demo",
		"Cluster: east",
		"Result set size: 7",
		"6: ",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	prompts, secrets, clears := reader.snapshot()
	if len(secrets) != 0 {
		t.Fatalf("guest session should not ask secrets, got %v", secrets)
	}
	if clears != 1 {
		t.Fatalf("expected banner to clear once, got %d", clears)
	}
	if prompts[0] != "guest$: " {
		t.Fatalf("unexpected first prompt %q", prompts[0])
	}
	if !strings.Contains(prompts[4], "guest$:/query[size:7, page:1/2]") {
		t.Fatalf("unexpected query prompt %q", prompts[4])
	}
	if c.Session().Identity() != GuestIdentity {
		t.Fatalf("expected guest identity")
	}
}

func TestConsoleLogin(t *testing.T) {
	host, port := startConsoleMock(t, mockserver.Options{Users: map[string]string{"admin": "admin"}})
	reader := newScriptReader("admin", "admin", "clear", "exit")
	out := &syncBuffer{}
	c := NewConsole(out, reader, transportDialer(host, port), Options{Host: host, Port: port, Tick: 5 * time.Millisecond})
	if err := runConsole(t, c); err != nil {
		t.Fatalf("run: %v", err)
	}
	prompts, secrets, clears := reader.snapshot()
	if len(secrets) != 1 || secrets[0] != "password: " {
		t.Fatalf("unexpected secret prompts %v", secrets)
	}
	if prompts[0] != "user: " {
		t.Fatalf("unexpected login prompt %q", prompts[0])
	}
	if prompts[2] != "admin$: " {
		t.Fatalf("expected signed-in prompt, got %q", prompts[2])
	}
	if clears != 2 {
		t.Fatalf("expected clear to redraw the banner, got %d clears", clears)
	}
	if c.Session().ID() == "" {
		t.Fatalf("expected session id after login")
	}
	if !strings.Contains(out.String(), c.Session().ID()) {
		t.Fatalf("session id not printed:\n%s", out.String())
	}
}

func TestConsoleLoginFailContinuesAsGuest(t *testing.T) {
	host, port := startConsoleMock(t, mockserver.Options{Users: map[string]string{"admin": "admin"}})
	reader := newScriptReader("admin", "wrong", "exit")
	out := &syncBuffer{}
	c := NewConsole(out, reader, transportDialer(host, port), Options{Host: host, Port: port, Tick: 5 * time.Millisecond})
	if err := runConsole(t, c); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Login fail") {
		t.Fatalf("missing login failure:\n%s", out.String())
	}
	prompts, _, _ := reader.snapshot()
	if prompts[2] != "guest$: " {
		t.Fatalf("expected guest prompt, got %q", prompts[2])
	}
}

func TestConsoleCommandErrorsKeepLoop(t *testing.T) {
	host, port := startConsoleMock(t, mockserver.Options{})
	reader := newScriptReader(`fail "nope"`, "set-timeout 0", "exit")
	out := &syncBuffer{}
	c := NewConsole(out, reader, transportDialer(host, port), Options{Host: host, Port: port, Tick: 5 * time.Millisecond})
	if err := runConsole(t, c); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "nope") {
		t.Fatalf("missing remote failure:\n%s", text)
	}
	prompts, _, _ := reader.snapshot()
	if len(prompts) != 3 {
		t.Fatalf("expected loop to continue after errors, prompts %v", prompts)
	}
}

func TestConsoleConnectionLost(t *testing.T) {
	host, port := startConsoleMock(t, mockserver.Options{})
	reader := newScriptReader(mockserver.CommandDisconnect, "exit")
	out := &syncBuffer{}
	c := NewConsole(out, reader, transportDialer(host, port), Options{Host: host, Port: port, Tick: 5 * time.Millisecond})
	err := runConsole(t, c)
	if !errors.Is(err, schema.ErrConnectionLost) {
		t.Fatalf("expected connection lost, got %v", err)
	}
	if !strings.Contains(out.String(), "Connection lost "+host+":"+strconv.Itoa(port)) {
		t.Fatalf("missing connection lost line:\n%s", out.String())
	}
}

func TestConsoleUnableToConnect(t *testing.T) {
	reader := newScriptReader("exit")
	out := &syncBuffer{}
	dial := func(context.Context) (Conn, error) { return nil, errors.New("refused") }
	c := NewConsole(out, reader, dial, Options{Host: "127.0.0.1", Port: 1, Tick: 5 * time.Millisecond})
	err := runConsole(t, c)
	if !errors.Is(err, ErrUnableToConnect) {
		t.Fatalf("expected unable to connect, got %v", err)
	}
	if !strings.Contains(out.String(), "Unable to connect") {
		t.Fatalf("missing failure line:\n%s", out.String())
	}
	prompts, _, _ := reader.snapshot()
	if len(prompts) != 0 {
		t.Fatalf("no prompt expected before connecting, got %v", prompts)
	}
}

func TestConsoleEndOfInputIsClean(t *testing.T) {
	host, port := startConsoleMock(t, mockserver.Options{})
	reader := newScriptReader("echo one")
	out := &syncBuffer{}
	c := NewConsole(out, reader, transportDialer(host, port), Options{Host: host, Port: port, Tick: 5 * time.Millisecond})
	if err := runConsole(t, c); err != nil {
		t.Fatalf("expected clean exit on end of input, got %v", err)
	}
}
