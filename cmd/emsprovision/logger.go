package main

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

const (
	clrReset  = "\033[0m"
	clrDim    = "\033[2m"
	clrBold   = "\033[1m"
	clrRed    = "\033[31m"
	clrYellow = "\033[33m"
	clrGreen  = "\033[32m"
	clrCyan   = "\033[36m"
	clrGray   = "\033[90m"
	clrWhite  = "\033[97m"
)

// levelStyle is the glyph and message colour of one log level.
type levelStyle struct {
	glyph string
	color string
}

var levelStyles = map[slog.Level]levelStyle{
	slog.LevelDebug: {clrGray + "  · " + clrReset, clrGray},
	slog.LevelInfo:  {clrGray + "  → " + clrReset, clrWhite},
	slog.LevelWarn:  {clrYellow + "  ⚠ " + clrReset, clrYellow},
	slog.LevelError: {clrRed + "  ✗ " + clrReset, clrRed},
}

// prettyHandler is a slog.Handler for terminal output: no timestamps,
// a glyph per level and highlighted attribute values.
type prettyHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

func newPrettyLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(&prettyHandler{mu: &sync.Mutex{}, out: w, level: level})
}

// newDebugLogger logs every level, including navigation tracing.
func newDebugLogger(w io.Writer) *slog.Logger {
	return newPrettyLogger(w, slog.LevelDebug)
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *prettyHandler) WithGroup(string) slog.Handler { return h }

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	style, ok := levelStyles[r.Level]
	if !ok {
		style = levelStyles[slog.LevelDebug]
	}

	var sb strings.Builder
	sb.WriteString(style.glyph + style.color + clrBold + r.Message + clrReset)
	write := func(a slog.Attr) bool {
		sb.WriteString("  " + clrGray + a.Key + "=" + clrReset)
		sb.WriteString(colorForValue(a) + a.Value.String() + clrReset)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

// colorForValue picks an ANSI colour from the attribute key and value.
func colorForValue(a slog.Attr) string {
	val := a.Value.String()
	switch a.Key {
	case "error", "errors":
		return clrRed
	case "status":
		switch val {
		case "online":
			return clrGreen
		case "offline":
			return clrRed
		}
	}
	switch a.Value.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration:
		return clrYellow
	}
	if _, err := strconv.ParseFloat(val, 64); err == nil {
		return clrYellow
	}
	return clrCyan
}
