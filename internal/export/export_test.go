package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"policy-guide/internal/history"
)

func TestBuildDocumentOrdersOldestFirstAndEscapesQueries(t *testing.T) {
	items := []history.Item{
		{Query: "newer <b>question</b>", Response: "<p>second</p>"},
		{Query: "older question", Response: "<h4>Key Areas</h4>"},
	}
	doc := BuildDocument(items, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	older := strings.Index(doc, "older question")
	newer := strings.Index(doc, "newer &lt;b&gt;question&lt;/b&gt;")
	if older < 0 || newer < 0 {
		t.Fatalf("expected both queries (escaped), got:\n%s", doc)
	}
	if older > newer {
		t.Fatalf("expected oldest entry first")
	}
	if !strings.Contains(doc, "<h4>Key Areas</h4>") {
		t.Fatalf("expected response markup to be embedded as-is")
	}
	if !strings.Contains(doc, "2 entries") || !strings.Contains(doc, "2026-03-01T12:00:00Z") {
		t.Fatalf("expected header metadata, got:\n%s", doc)
	}
}

func TestExportWritesToOverrideDir(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	e.now = func() time.Time { return time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC) }

	path, err := e.Export([]history.Item{{Query: "q", Response: "<p>a</p>"}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != filepath.Join(dir, "policy-guidance-20260301-083000.html") {
		t.Fatalf("unexpected export path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "1 entry") {
		t.Fatalf("expected singular entry count, got:\n%s", data)
	}
}

func TestExportRejectsEmptyHistory(t *testing.T) {
	e, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	if _, err := e.Export(nil); err == nil {
		t.Fatalf("expected error for empty history")
	}
}
