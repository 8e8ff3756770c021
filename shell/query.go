package shell

import (
	"context"
	"fmt"
	"time"

	"pkt.systems/hconsole/internal/command"
	"pkt.systems/hconsole/internal/query"
)

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 5

const (
	cmdNext        = "next"
	cmdPrevious    = "previous"
	cmdPage        = "page"
	cmdSetPageSize = "setPageSize"
)

// QueryShell buffers the last result set and pages through it. Any line
// that is not a paging command is evaluated as a new query.
type QueryShell struct {
	deps     Deps
	prompt   string
	rows     []any
	loaded   bool
	page     int
	pageSize int
}

// NewQueryShell returns an empty paging shell.
func NewQueryShell(deps Deps, prompt string) *QueryShell {
	size := deps.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &QueryShell{deps: deps, prompt: prompt, page: 1, pageSize: size}
}

// Prompt implements Shell. Once a result set is loaded the prompt carries the
// result size and the current page.
func (s *QueryShell) Prompt() string {
	if !s.loaded {
		return s.prompt
	}
	return fmt.Sprintf("%s[size:%d, page:%d/%d]", s.prompt, len(s.rows), s.page, s.MaxPage())
}

// Page returns the current 1-based page.
func (s *QueryShell) Page() int { return s.page }

// PageSize returns the rows per page.
func (s *QueryShell) PageSize() int { return s.pageSize }

// Size returns the number of buffered rows.
func (s *QueryShell) Size() int { return len(s.rows) }

// MaxPage is ceil(size/pageSize), never less than one.
func (s *QueryShell) MaxPage() int {
	pages := (len(s.rows) + s.pageSize - 1) / s.pageSize
	return max(pages, 1)
}

// Handle implements Shell.
func (s *QueryShell) Handle(ctx context.Context, cmd command.Command, timeout time.Duration) (Shell, error) {
	var err error
	switch cmd.Name {
	case cmdNext:
		if s.loaded && s.page < s.MaxPage() {
			s.page++
		}
	case cmdPrevious:
		if s.loaded && s.page > 1 {
			s.page--
		}
	case cmdPage:
		n, ok := intParam(cmd)
		if !ok || n < 1 || int(n) > s.MaxPage() {
			err = usage("You must indicate the page number (i.e. page 1)")
			break
		}
		s.page = int(n)
	case cmdSetPageSize:
		n, ok := intParam(cmd)
		if !ok || n < 1 {
			err = usage("You must indicate the page size (i.e. setPageSize 10)")
			break
		}
		s.pageSize = int(n)
		s.page = 1
	default:
		return nil, s.evaluate(ctx, cmd.Line, timeout)
	}
	s.printPage()
	return nil, err
}

func (s *QueryShell) evaluate(ctx context.Context, text string, timeout time.Duration) error {
	q, err := query.Compile(text)
	if err != nil {
		return err
	}
	result, err := s.deps.Remote.Evaluate(ctx, q.Queryable(), timeout)
	if err != nil {
		return err
	}
	s.rows = asRows(result)
	s.loaded = true
	s.page = 1
	s.printPage()
	return nil
}

func (s *QueryShell) printPage() {
	if !s.loaded {
		s.deps.Printer.Line("Make some query first")
		return
	}
	s.deps.Printer.Rows(s.rows, (s.page-1)*s.pageSize, s.page*s.pageSize)
}

func asRows(v any) []any {
	switch val := v.(type) {
	case nil:
		return []any{}
	case []any:
		return val
	default:
		return []any{val}
	}
}
