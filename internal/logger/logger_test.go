package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	l, err := New(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info("hello", "k", "v")
	l.Debug("hidden")
	if l.Path() != path {
		t.Fatalf("path = %q, want %q", l.Path(), path)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "k=v") {
		t.Fatalf("expected info record in log, got:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered at info level")
	}
}

func TestSetDebugChangesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, false)
	l.Debug("first")
	l.SetDebug(true)
	l.Debug("second")

	if strings.Contains(buf.String(), "first") {
		t.Fatalf("debug record written before SetDebug")
	}
	if !strings.Contains(buf.String(), "second") {
		t.Fatalf("expected debug record after SetDebug, got %q", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatalf("expected a usable logger for nil input")
	}
	l := newWithWriter(&bytes.Buffer{}, false)
	if OrDiscard(l.Logger) != l.Logger {
		t.Fatalf("expected non-nil logger to be returned unchanged")
	}
}
