//go:build windows

package main

// drainStdin is a no-op on Windows: the console does not answer survey's
// cursor queries through stdin.
func drainStdin() {}

// restoreTTYOnExit is a no-op on Windows.
func restoreTTYOnExit() {}
