package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const debugLogName = "emsprovision-debug.log"

var debugLogger *slog.Logger
var debugCleanup func()

func initDebugLogger(dataDir string) func() {
	if !debugLogs {
		return nil
	}
	path := filepath.Join(dataDir, debugLogName)
	logger, cleanup, err := setupDebugLogger(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to enable debug log: %v\n", err)
		return nil
	}
	debugLogger = logger
	debugCleanup = cleanup
	fmt.Printf("  Debug log: %s\n", path)
	return cleanup
}

func getLogger() *slog.Logger {
	if debugLogs && debugLogger != nil {
		return debugLogger
	}
	return newPrettyLogger(os.Stdout, parseLevel(logLevel()))
}

func setupDebugLogger(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	mw := io.MultiWriter(os.Stdout, f)
	return newDebugLogger(mw), func() { _ = f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
