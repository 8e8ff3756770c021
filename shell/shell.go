// Package shell routes parsed console commands through a stack of nested
// shells. The root shell forwards commands to the server; sub-shells such as
// the query shell keep their own state until they are exited.
package shell

import (
	"context"
	"errors"
	"time"

	"pkt.systems/hconsole/internal/command"
	"pkt.systems/hconsole/schema"
)

// ErrQuit is returned by Router.Execute when the root shell is exited.
var ErrQuit = errors.New("quit")

// DefaultTimeout bounds each remote round trip unless changed with set-timeout.
const DefaultTimeout = 10 * time.Second

// Shell handles commands that are not router built-ins.
type Shell interface {
	// Prompt is the shell's segment of the composite prompt.
	Prompt() string
	// Handle runs cmd. A non-nil Shell result is pushed on top of the stack.
	Handle(ctx context.Context, cmd command.Command, timeout time.Duration) (Shell, error)
}

// Remote performs server round trips on behalf of the shells.
type Remote interface {
	Evaluate(ctx context.Context, q *schema.Queryable, timeout time.Duration) (any, error)
	Execute(ctx context.Context, name string, params []any, timeout time.Duration) (any, error)
}

// UsageError reports a malformed built-in or shell command. State is left
// unchanged when one is returned.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	if e == nil {
		return ""
	}
	return e.Usage
}

func usage(msg string) error {
	return &UsageError{Usage: msg}
}

// intParam returns the single integer parameter of cmd.
func intParam(cmd command.Command) (int64, bool) {
	if len(cmd.Params) != 1 {
		return 0, false
	}
	n, ok := cmd.Params[0].(int64)
	return n, ok
}
