package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"pkt.systems/hconsole/internal/theme"
)

// Printer writes command results to the console.
type Printer struct {
	out   io.Writer
	theme *theme.Theme
}

// NewPrinter returns a Printer writing to out. A nil theme prints plain text.
func NewPrinter(out io.Writer, th *theme.Theme) *Printer {
	return &Printer{out: out, theme: th}
}

// Value prints v. Lists print one styled row per item; anything else prints
// on a single line.
func (p *Printer) Value(v any) {
	if rows, ok := v.([]any); ok {
		p.Rows(rows, 0, len(rows))
		return
	}
	p.Line(formatValue(v))
}

// Rows prints rows[start:end] clamped to the slice bounds. Row numbers are
// 1-based positions in the full list.
func (p *Printer) Rows(rows []any, start, end int) {
	start = max(start, 0)
	end = min(end, len(rows))
	for i := start; i < end; i++ {
		line := fmt.Sprintf("%d: %s", i+1, formatValue(rows[i]))
		fmt.Fprintln(p.out, p.theme.Row(i, line))
	}
}

// Line prints s followed by a newline.
func (p *Printer) Line(s string) {
	fmt.Fprintln(p.out, s)
}

// Error prints err with the error style.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.out, p.theme.Error(err.Error()))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return formatMap(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}

func formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(formatValue(m[k]))
	}
	return b.String()
}
