package tty

import (
	"io"
	"strconv"
	"strings"
)

const maskGlyph = "*"

type screen struct {
	out io.Writer
}

func newScreen(out io.Writer) *screen {
	return &screen{out: out}
}

// RenderLine redraws the current terminal line and leaves the cursor at column
// col counted from the line start. Output depends only on its arguments.
func (s *screen) RenderLine(prompt, content string, col int) error {
	var b strings.Builder
	b.WriteString("\r\x1b[2K")
	b.WriteString(prompt)
	b.WriteString(content)
	b.WriteString("\r")
	if col > 0 {
		b.WriteString("\x1b[")
		b.WriteString(strconv.Itoa(col))
		b.WriteString("C")
	}
	_, err := io.WriteString(s.out, b.String())
	return err
}

func (s *screen) Newline() {
	_, _ = io.WriteString(s.out, "\r\n")
}

func (s *screen) Clear() {
	_, _ = io.WriteString(s.out, "\x1b[H\x1b[2J")
}

func mask(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(maskGlyph, n)
}
