package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is the operator-visible diagnostic channel. The TUI owns the
// terminal, so everything goes to a file.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *os.File
	path  string
}

// New opens path in append mode and returns a text logger writing to it at
// info level.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	l := newWithWriter(f, false)
	l.file = f
	l.path = path
	l.Info("logger initialized", "path", path)
	return l, nil
}

func newWithWriter(w io.Writer, debug bool) *Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if debug {
		level.Set(slog.LevelDebug)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler), level: level}
}

// SetDebug switches between debug and info level.
func (l *Logger) SetDebug(enabled bool) {
	if enabled {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// OrDiscard returns l, or a logger that drops everything when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
