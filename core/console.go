package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"pkt.systems/hconsole/internal/command"
	"pkt.systems/hconsole/internal/correlate"
	"pkt.systems/hconsole/internal/logx"
	"pkt.systems/hconsole/internal/progress"
	"pkt.systems/hconsole/internal/theme"
	"pkt.systems/hconsole/schema"
	"pkt.systems/hconsole/shell"
	"pkt.systems/pslog"
)

// ErrUnableToConnect is returned when the connect handshake fails or times out.
var ErrUnableToConnect = errors.New("unable to connect")

var (
	errQuit        = errors.New("console quit")
	errInputClosed = errors.New("console input closed")
)

// Conn is the live server connection used by the console.
type Conn interface {
	Send(ctx context.Context, req schema.Request) error
	Listen(ctx context.Context, deliver func(schema.Response)) error
	Connected() bool
	Close() error
}

// Dialer opens a Conn.
type Dialer func(ctx context.Context) (Conn, error)

// LineReader is the interactive input the console reads from.
type LineReader interface {
	Run(ctx context.Context) error
	Read(ctx context.Context, prompt string, color lipgloss.Color, args ...any) (string, error)
	ReadSecret(ctx context.Context, prompt string, color lipgloss.Color, args ...any) (string, error)
	Clear()
}

// Options configures a Console.
type Options struct {
	Host           string
	Port           int
	Prompt         string
	DateLayout     string
	PageSize       int
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	Recheck        time.Duration
	Theme          *theme.Theme
	// Tick overrides the spinner redraw interval.
	Tick time.Duration
}

// Console drives a whole interactive session: connect, handshake, optional
// login and the command loop.
type Console struct {
	opts    Options
	out     io.Writer
	editor  LineReader
	dial    Dialer
	session *Session
	printer *shell.Printer
	router  *shell.Router
}

// NewConsole wires a Console writing to out and reading from editor.
func NewConsole(out io.Writer, editor LineReader, dial Dialer, opts Options) *Console {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 120 * time.Second
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = shell.DefaultTimeout
	}
	if opts.Prompt == "" {
		opts.Prompt = ":"
	}
	return &Console{
		opts:    opts,
		out:     out,
		editor:  editor,
		dial:    dial,
		session: &Session{},
		printer: shell.NewPrinter(out, opts.Theme),
	}
}

// Session exposes what the console learned during the handshake.
func (c *Console) Session() *Session { return c.session }

// Run blocks until the operator quits, input ends, ctx is cancelled or the
// connection is lost. Only the failures return an error.
func (c *Console) Run(ctx context.Context) error {
	ctx = logx.ContextWithTarget(ctx, c.opts.Host, c.opts.Port)
	log := pslog.Ctx(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := c.editor.Run(gctx)
		if errors.Is(err, io.EOF) {
			return errInputClosed
		}
		return err
	})

	var conn Conn
	g.Go(func() error {
		var err error
		conn, err = c.start(gctx, g)
		if err != nil {
			return err
		}
		return c.loop(gctx, conn)
	})

	err := g.Wait()
	if conn != nil {
		if cerr := conn.Close(); cerr != nil {
			log.Debug("console close failed", "err", cerr)
		}
	}
	switch {
	case err == nil, errors.Is(err, errQuit), errors.Is(err, errInputClosed):
		return nil
	case errors.Is(err, schema.ErrConnectionLost):
		fmt.Fprintf(c.out, "\r\n%s\r\n", c.opts.Theme.Error(fmt.Sprintf("Connection lost %s:%d", c.opts.Host, c.opts.Port)))
		return err
	case ctx.Err() != nil:
		return nil
	default:
		return err
	}
}

// start connects, performs the handshake and the optional login. The inbound
// feed is added to g once the connection exists.
func (c *Console) start(ctx context.Context, g *errgroup.Group) (Conn, error) {
	log := pslog.Ctx(ctx)
	fmt.Fprintf(c.out, "Trying with %s:%d\r\n", c.opts.Host, c.opts.Port)

	type link struct {
		conn   Conn
		remote *Remote
	}
	// Buffered so a dial that completes after a timeout never blocks.
	links := make(chan link, 1)
	spinner := progress.New(c.out, "Connecting...", c.opts.ConnectTimeout, progress.Options{Theme: c.opts.Theme, Tick: c.opts.Tick})
	res := spinner.Run(ctx, func(sctx context.Context) (string, error) {
		dialed, err := c.dial(sctx)
		if err != nil {
			return "", err
		}
		corr := correlate.New(dialed, correlate.Options{Recheck: c.opts.Recheck, Logger: log})
		g.Go(func() error {
			return dialed.Listen(ctx, func(resp schema.Response) { corr.Deliver(resp) })
		})
		r := NewRemote(corr, c.session, c.out, c.opts.Theme)
		r.tick = c.opts.Tick
		links <- link{conn: dialed, remote: r}
		if _, err := r.Metadata(sctx); err != nil {
			return "", err
		}
		return "Connected", nil
	})
	var l link
	select {
	case l = <-links:
	default:
	}
	conn, remote := l.conn, l.remote
	if res.Outcome != progress.Done {
		log.Error("console connect failed", "outcome", res.Outcome.String(), "err", res.Err)
		fmt.Fprintln(c.out, c.opts.Theme.Error("Unable to connect"))
		if res.Err != nil {
			return conn, fmt.Errorf("%w: %v", ErrUnableToConnect, res.Err)
		}
		return conn, ErrUnableToConnect
	}
	log.Info("console connected", "server", c.session.Server().ServerName)

	if c.session.Server().LoginRequired {
		if err := c.login(ctx, remote); err != nil {
			if ctx.Err() != nil {
				return conn, ctx.Err()
			}
			log.Info("console login failed", "err", err)
			fmt.Fprintln(c.out, c.opts.Theme.Error("Login fail"))
		}
	}

	c.router = shell.NewRouter(
		shell.NewDefaultShell(shell.Deps{Remote: remote, Printer: c.printer, PageSize: c.opts.PageSize}, c.opts.Prompt),
		shell.RouterOptions{Timeout: c.opts.CommandTimeout, OnClear: c.printHead},
	)
	c.printHead()
	return conn, nil
}

func (c *Console) login(ctx context.Context, remote *Remote) error {
	meta := c.session.Server()
	fields := make(map[string]string, len(meta.LoginFields)+len(meta.LoginSecretFields))
	fmt.Fprint(c.out, "\r\n")
	for _, field := range meta.LoginFields {
		value, err := c.editor.Read(ctx, "%s: ", "", field)
		if err != nil {
			return err
		}
		fields[field] = value
	}
	for _, field := range meta.LoginSecretFields {
		value, err := c.editor.ReadSecret(ctx, "%s: ", "", field)
		if err != nil {
			return err
		}
		fields[field] = value
	}
	info, err := remote.Login(ctx, fields, c.opts.ConnectTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.opts.Theme.Info(info.ID))
	fmt.Fprintln(c.out, c.opts.Theme.Info(info.SessionName))
	return nil
}

func (c *Console) printHead() {
	c.editor.Clear()
	fmt.Fprintf(c.out, "%s\r\n", c.opts.Theme.Banner(c.session.Banner()))
}

func (c *Console) loop(ctx context.Context, conn Conn) error {
	for {
		if !conn.Connected() {
			return schema.ErrConnectionLost
		}
		line, err := c.editor.Read(ctx, "%s$%s ", c.opts.Theme.PromptColor(), c.session.Identity(), c.router.Prompt())
		if err != nil {
			return err
		}
		cmd := command.Parse(line, c.opts.DateLayout)
		if cmd.Name == "" {
			continue
		}
		log := logx.WithSession(logx.WithShell(pslog.Ctx(ctx), c.router.Prompt()), c.session.ID())
		err = c.router.Execute(ctx, cmd)
		switch {
		case err == nil:
		case errors.Is(err, shell.ErrQuit):
			log.Debug("console quit")
			return errQuit
		case errors.Is(err, schema.ErrConnectionLost), errors.Is(err, schema.ErrNotConnected):
			return fmt.Errorf("%w: %v", schema.ErrConnectionLost, err)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			if IsRemoteFailure(err) {
				log.Debug("console remote failure", "command", cmd.Name, "err", err)
			} else {
				log.Debug("console command failed", "command", cmd.Name, "err", err)
			}
			c.printer.Error(err)
		}
	}
}
