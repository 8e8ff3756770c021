//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package tty

import (
	"time"

	"golang.org/x/term"
)

func setInputMode(fd int) error {
	_, err := term.MakeRaw(fd)
	return err
}

// pollInput has no readiness primitive here; reads block until a key arrives.
func pollInput(int, time.Duration) (bool, error) {
	return true, nil
}
