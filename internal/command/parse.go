package command

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDateLayout is used when Parse is given an empty layout.
const DefaultDateLayout = "2006-01-02 15:04:05"

const (
	richTextSeparator = `"`
	richTextEscape    = `\"`
	placeholderPrefix = `"#`
)

var (
	uuidPattern    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^-?(?:[0-9]+\.[0-9]+(?:[eE][-+]?[0-9]+)?|[0-9]+[eE][-+]?[0-9]+)$`)
)

// Command is one parsed console line.
type Command struct {
	Name   string
	Params []any
	Line   string
}

// Param returns the i-th parameter or nil when out of range.
func (c Command) Param(i int) any {
	if i < 0 || i >= len(c.Params) {
		return nil
	}
	return c.Params[i]
}

// Parse splits line into a command name and typed parameters. Quoted segments
// are kept intact and tried as dates in layout before falling back to strings.
// Parsing never fails; unrecognised tokens stay strings.
func Parse(line, layout string) Command {
	if layout == "" {
		layout = DefaultDateLayout
	}
	trimmed := strings.TrimSpace(line)
	segments, replaced := GroupRichText(trimmed)
	fields := strings.Fields(replaced)
	cmd := Command{Line: trimmed}
	if len(fields) == 0 {
		return cmd
	}
	cmd.Name = fields[0]
	cmd.Params = make([]any, 0, len(fields)-1)
	for _, token := range fields[1:] {
		cmd.Params = append(cmd.Params, classify(token, segments, layout))
	}
	return cmd
}

func classify(token string, segments []string, layout string) any {
	switch token {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if segment, ok := resolvePlaceholder(token, segments); ok {
		text := strings.ReplaceAll(segment, richTextEscape, richTextSeparator)
		if ts, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return ts
		}
		return text
	}
	if uuidPattern.MatchString(token) {
		if id, err := uuid.Parse(token); err == nil {
			return id
		}
	}
	if integerPattern.MatchString(token) {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f
		}
		return token
	}
	if decimalPattern.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f
		}
	}
	return token
}

func resolvePlaceholder(token string, segments []string) (string, bool) {
	if !strings.HasPrefix(token, placeholderPrefix) || !strings.HasSuffix(token, richTextSeparator) || len(token) < 4 {
		return "", false
	}
	index, err := strconv.Atoi(token[len(placeholderPrefix) : len(token)-1])
	if err != nil || index < 0 || index >= len(segments) {
		return "", false
	}
	return segments[index], true
}

// Placeholder returns the token that replaces the i-th rich-text segment.
func Placeholder(i int) string {
	return placeholderPrefix + strconv.Itoa(i) + richTextSeparator
}

// GroupRichText extracts every double-quoted segment of line and returns the
// segments (escapes preserved) along with the line where each segment has been
// replaced by its Placeholder. A `\"` inside a segment does not close it. An
// unterminated segment runs to the end of the line.
func GroupRichText(line string) ([]string, string) {
	var (
		segments []string
		out      strings.Builder
		current  strings.Builder
		inside   bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) && line[i+1] == '"' {
			if inside {
				current.WriteString(richTextEscape)
			} else {
				out.WriteString(richTextEscape)
			}
			i++
			continue
		}
		if c == '"' {
			if inside {
				out.WriteString(Placeholder(len(segments)))
				segments = append(segments, current.String())
				current.Reset()
			}
			inside = !inside
			continue
		}
		if inside {
			current.WriteByte(c)
		} else {
			out.WriteByte(c)
		}
	}
	if inside {
		out.WriteString(Placeholder(len(segments)))
		segments = append(segments, current.String())
	}
	return segments, out.String()
}
