package tty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"pkt.systems/pslog"
)

// DefaultPollInterval is how often the input loop checks for pending bytes.
const DefaultPollInterval = 5 * time.Millisecond

// ErrReadInProgress is returned when a read is issued while another is outstanding.
var ErrReadInProgress = errors.New("line read already in progress")

// Options configures an Editor.
type Options struct {
	PollInterval time.Duration
	Logger       pslog.Logger
}

// Editor is a single-line editor with history over a raw Terminal. Run decodes
// input continuously; Read and ReadSecret block until Enter commits a line.
type Editor struct {
	term     Terminal
	screen   *screen
	renderer *lipgloss.Renderer
	poll     time.Duration
	log      pslog.Logger

	mu        sync.Mutex
	buf       lineBuffer
	history   history
	listening bool
	secret    bool
	prompt    string
	color     lipgloss.Color
	commit    chan string
}

// NewEditor constructs an Editor writing to and reading from t.
func NewEditor(t Terminal, opts Options) *Editor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	return &Editor{
		term:     t,
		screen:   newScreen(t),
		renderer: lipgloss.NewRenderer(t),
		poll:     opts.PollInterval,
		log:      opts.Logger,
	}
}

// Run polls the terminal and applies decoded keys until ctx is done or input
// ends. Bytes arriving while no read is outstanding are drained and dropped.
func (e *Editor) Run(ctx context.Context) error {
	chunk := make([]byte, ChunkSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		ready, err := e.term.Poll(e.poll)
		if err != nil {
			return fmt.Errorf("poll input: %w", err)
		}
		if !ready {
			continue
		}
		n, err := e.term.Read(chunk)
		if n > 0 {
			e.apply(Decode(chunk[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.log.Debug("editor input closed")
				return io.EOF
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
}

// Read shows the prompt (formatted with args) and blocks until a line is committed.
func (e *Editor) Read(ctx context.Context, prompt string, color lipgloss.Color, args ...any) (string, error) {
	return e.read(ctx, false, prompt, color, args...)
}

// ReadSecret is Read with masked echo; the line is never added to history.
func (e *Editor) ReadSecret(ctx context.Context, prompt string, color lipgloss.Color, args ...any) (string, error) {
	return e.read(ctx, true, prompt, color, args...)
}

func (e *Editor) read(ctx context.Context, secret bool, prompt string, color lipgloss.Color, args ...any) (string, error) {
	e.mu.Lock()
	if e.listening {
		e.mu.Unlock()
		return "", ErrReadInProgress
	}
	if len(args) > 0 {
		prompt = fmt.Sprintf(prompt, args...)
	}
	commit := make(chan string, 1)
	e.prompt = prompt
	e.color = color
	e.secret = secret
	e.buf.Clear()
	e.listening = true
	e.commit = commit
	e.render()
	e.mu.Unlock()

	select {
	case line := <-commit:
		return line, nil
	case <-ctx.Done():
		e.mu.Lock()
		if e.commit == commit {
			e.listening = false
			e.secret = false
			e.commit = nil
			e.buf.Clear()
		}
		e.mu.Unlock()
		select {
		case line := <-commit:
			return line, nil
		default:
		}
		return "", ctx.Err()
	}
}

// Clear erases the screen and drops any partially typed text.
func (e *Editor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Clear()
	e.screen.Clear()
}

// History returns a copy of the committed non-secret lines, oldest first.
func (e *Editor) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Entries()
}

// Listening reports whether a read is waiting for Enter.
func (e *Editor) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listening
}

func (e *Editor) apply(k Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.listening {
		return
	}
	switch k.Kind {
	case KeyPrintable:
		e.buf.Insert(rune(k.Char))
	case KeyDelete:
		e.buf.Backspace()
	case KeyLeft:
		e.buf.MoveLeft()
	case KeyRight:
		e.buf.MoveRight()
	case KeyUp:
		if e.secret {
			return
		}
		entry, ok := e.history.Older()
		if !ok {
			return
		}
		e.buf.SetString(entry)
		e.log.Trace("editor history up", "index", e.history.pos)
	case KeyDown:
		if e.secret {
			return
		}
		entry, ok := e.history.Newer()
		if !ok {
			return
		}
		e.buf.SetString(entry)
		e.log.Trace("editor history down", "index", e.history.pos)
	case KeyEnter:
		e.commitLine()
		return
	default:
		return
	}
	e.render()
}

func (e *Editor) commitLine() {
	line := e.buf.String()
	if !e.secret {
		e.history.Append(line)
	}
	commit := e.commit
	e.listening = false
	e.secret = false
	e.commit = nil
	e.buf.Clear()
	e.screen.Newline()
	if commit != nil {
		commit <- line
	}
}

// render must be called with mu held.
func (e *Editor) render() {
	content := e.buf.String()
	if e.secret {
		content = mask(e.buf.Len())
	}
	prompt := e.prompt
	if e.color != "" {
		prompt = e.renderer.NewStyle().Foreground(e.color).Render(prompt)
	}
	col := utf8.RuneCountInString(e.prompt) + e.buf.Cursor()
	if err := e.screen.RenderLine(prompt, content, col); err != nil {
		e.log.Trace("editor render failed", "err", err)
	}
}
