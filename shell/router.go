package shell

import (
	"context"
	"strings"
	"time"

	"pkt.systems/hconsole/internal/command"
	"pkt.systems/hconsole/internal/logx"
)

const (
	cmdClear         = "clear"
	cmdSetTimeout    = "set-timeout"
	cmdSetTimeoutAlt = "setTimeout"
	cmdExit          = "exit"
	cmdQuit          = "quit"
)

type frame struct {
	shell   Shell
	timeout time.Duration
}

// RouterOptions configures a Router.
type RouterOptions struct {
	Timeout time.Duration
	// OnClear runs for the clear built-in; it should clear the screen and
	// redraw the head banner.
	OnClear func()
}

// Router owns the shell stack. It is not safe for concurrent use; the command
// loop is its only caller.
type Router struct {
	stack   []frame
	onClear func()
}

// NewRouter returns a Router with root at the bottom of the stack.
func NewRouter(root Shell, opts RouterOptions) *Router {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Router{
		stack:   []frame{{shell: root, timeout: opts.Timeout}},
		onClear: opts.OnClear,
	}
}

// Execute intercepts the built-ins and delegates everything else to the
// active shell. Exiting the root shell returns ErrQuit.
func (r *Router) Execute(ctx context.Context, cmd command.Command) error {
	log := logx.WithShell(logx.Ctx(ctx), r.Prompt()).With("command", cmd.Name, "params", len(cmd.Params))
	switch cmd.Name {
	case "":
		return nil
	case cmdClear:
		if r.onClear != nil {
			r.onClear()
		}
		return nil
	case cmdSetTimeout, cmdSetTimeoutAlt:
		ms, ok := intParam(cmd)
		if !ok || ms <= 0 {
			return usage("You must indicate the timeout in milliseconds (i.e. set-timeout 10000)")
		}
		r.top().timeout = time.Duration(ms) * time.Millisecond
		log.Debug("shell timeout updated", "timeout_ms", ms)
		return nil
	case cmdExit, cmdQuit:
		if len(r.stack) == 1 {
			log.Debug("shell root exit")
			return ErrQuit
		}
		r.stack = r.stack[:len(r.stack)-1]
		log.Debug("shell popped", "depth", len(r.stack))
		return nil
	}
	top := r.top()
	log.Debug("shell delegate")
	next, err := top.shell.Handle(ctx, cmd, top.timeout)
	if next != nil {
		r.stack = append(r.stack, frame{shell: next, timeout: top.timeout})
		log.Debug("shell pushed", "depth", len(r.stack))
	}
	return err
}

// Prompt joins the prompt of every shell on the stack with "/".
func (r *Router) Prompt() string {
	parts := make([]string, len(r.stack))
	for i, f := range r.stack {
		parts[i] = f.shell.Prompt()
	}
	return strings.Join(parts, "/")
}

// Depth reports how many shells are on the stack.
func (r *Router) Depth() int { return len(r.stack) }

// Active returns the shell currently receiving commands.
func (r *Router) Active() Shell { return r.top().shell }

// Timeout returns the active shell's request timeout.
func (r *Router) Timeout() time.Duration { return r.top().timeout }

func (r *Router) top() *frame {
	return &r.stack[len(r.stack)-1]
}
