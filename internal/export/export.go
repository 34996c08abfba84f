package export

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"policy-guide/internal/history"
)

type Exporter struct {
	overrideDir string
	cwd         string
	now         func() time.Time
}

func New(overrideDir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{overrideDir: strings.TrimSpace(overrideDir), cwd: cwd, now: time.Now}, nil
}

// Export writes items as a standalone HTML page and returns its path.
func (e *Exporter) Export(items []history.Item) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("export history: nothing to export")
	}
	now := e.now().UTC()
	path := e.outputPath(now)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	doc := BuildDocument(items, now)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// BuildDocument renders the history oldest first so the page reads as the
// committee's working log. Responses are already sanitized markup.
func BuildDocument(items []history.Item, now time.Time) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>K-12 AI policy guidance</title>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString("<h1>K-12 AI policy guidance</h1>\n")
	b.WriteString("<p>Exported " + html.EscapeString(now.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(" &middot; %d %s</p>\n", len(items), plural(len(items), "entry", "entries")))

	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		b.WriteString("<section>\n")
		b.WriteString("<h2>" + html.EscapeString(safeValue(item.Query)) + "</h2>\n")
		b.WriteString(strings.TrimSpace(item.Response) + "\n")
		b.WriteString("</section>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (e *Exporter) outputPath(now time.Time) string {
	name := "policy-guidance-" + now.Format("20060102-150405") + ".html"
	if e.overrideDir != "" {
		dir := e.overrideDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.cwd, dir)
		}
		return filepath.Join(dir, name)
	}
	return filepath.Join(e.cwd, "policy-guidance", name)
}

func safeValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
