package tty

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Terminal is the raw byte capability the editor runs on.
type Terminal interface {
	io.Writer
	// Poll reports whether input is ready to read, waiting at most timeout.
	Poll(timeout time.Duration) (bool, error)
	Read(p []byte) (int, error)
}

// Console is a Terminal over the process's standard streams. When the input is
// a terminal it is switched to unbuffered, non-echoing input until Restore.
type Console struct {
	in    *os.File
	out   *os.File
	fd    int
	saved *term.State
}

// OpenConsole records the current input mode and switches to character input.
func OpenConsole(in, out *os.File) (*Console, error) {
	c := &Console{in: in, out: out, fd: int(in.Fd())}
	if !term.IsTerminal(c.fd) {
		return c, nil
	}
	state, err := term.GetState(c.fd)
	if err != nil {
		return nil, fmt.Errorf("read terminal mode: %w", err)
	}
	if err := setInputMode(c.fd); err != nil {
		return nil, fmt.Errorf("set terminal mode: %w", err)
	}
	c.saved = state
	return c, nil
}

// Restore puts the terminal back into the mode recorded by OpenConsole.
func (c *Console) Restore() error {
	if c == nil || c.saved == nil {
		return nil
	}
	state := c.saved
	c.saved = nil
	return term.Restore(c.fd, state)
}

// IsTerminal reports whether the input side is an interactive terminal.
func (c *Console) IsTerminal() bool {
	return term.IsTerminal(c.fd)
}

func (c *Console) Poll(timeout time.Duration) (bool, error) {
	return pollInput(c.fd, timeout)
}

func (c *Console) Read(p []byte) (int, error) {
	return c.in.Read(p)
}

func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Fd exposes the output descriptor so colour detection sees a real terminal.
func (c *Console) Fd() uintptr {
	return c.out.Fd()
}
