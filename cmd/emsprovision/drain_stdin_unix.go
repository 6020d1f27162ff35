//go:build !windows

package main

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// initialTTYState is the terminal mode at startup, restored on Ctrl+C so a
// prompt interrupted in raw mode does not leave the shell unusable.
var initialTTYState *term.State

func init() {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		initialTTYState, _ = term.GetState(fd)
	}
}

// drainStdin discards pending terminal replies (CPR sequences) without
// blocking, then resyncs stdinReader.
func drainStdin() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	time.Sleep(30 * time.Millisecond)
	if err := syscall.SetNonblock(fd, true); err != nil {
		return
	}
	defer func() { _ = syscall.SetNonblock(fd, false) }()
	buf := make([]byte, 256)
	for {
		n, err := syscall.Read(fd, buf)
		if err != nil || n <= 0 {
			break
		}
	}
	stdinReader.Reset(os.Stdin)
}

// restoreTTYOnExit puts the terminal back into its startup mode.
func restoreTTYOnExit() {
	if initialTTYState == nil {
		return
	}
	_ = term.Restore(int(os.Stdin.Fd()), initialTTYState)
}
