package shell

import (
	"context"
	"time"

	"pkt.systems/hconsole/internal/command"
	"pkt.systems/hconsole/internal/query"
)

const (
	cmdEvaluate = "evaluate"

	// QueryPrompt is the prompt segment of the paging query shell.
	QueryPrompt = "query"
)

// Deps are the collaborators shared by the built-in shells.
type Deps struct {
	Remote   Remote
	Printer  *Printer
	PageSize int
}

// DefaultShell is the root shell. It evaluates queries and forwards every
// other command to the server as a named execution.
type DefaultShell struct {
	deps   Deps
	prompt string
}

// NewDefaultShell returns the root shell showing prompt.
func NewDefaultShell(deps Deps, prompt string) *DefaultShell {
	return &DefaultShell{deps: deps, prompt: prompt}
}

// Prompt implements Shell.
func (s *DefaultShell) Prompt() string { return s.prompt }

// Handle implements Shell.
func (s *DefaultShell) Handle(ctx context.Context, cmd command.Command, timeout time.Duration) (Shell, error) {
	if cmd.Name != cmdEvaluate {
		result, err := s.deps.Remote.Execute(ctx, cmd.Name, cmd.Params, timeout)
		if err != nil {
			return nil, err
		}
		s.deps.Printer.Value(result)
		return nil, nil
	}
	if len(cmd.Params) == 0 {
		return NewQueryShell(s.deps, QueryPrompt), nil
	}
	text, ok := cmd.Params[0].(string)
	if !ok {
		return nil, usage(`You must indicate the query as text (i.e. evaluate "SELECT * FROM t")`)
	}
	q, err := query.Compile(text)
	if err != nil {
		return nil, err
	}
	wire := q.Queryable()
	if len(cmd.Params) > 1 {
		wire, err = q.Parameterize(cmd.Params[1:]...)
		if err != nil {
			return nil, err
		}
	}
	result, err := s.deps.Remote.Evaluate(ctx, wire, timeout)
	if err != nil {
		return nil, err
	}
	s.deps.Printer.Value(result)
	return nil, nil
}
