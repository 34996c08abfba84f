package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

const (
	DefaultStyle = "dark"

	maxLineChars    = 8000
	maxGlamourChars = 500_000
)

// Terminal renders markdown for the output pane. Renderers are cached per
// wrap width.
type Terminal struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

func NewTerminal(style string) *Terminal {
	if strings.TrimSpace(style) == "" {
		style = DefaultStyle
	}
	return &Terminal{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render returns styled text for md wrapped at width. When glamour is not
// usable the markdown source is returned, word-wrapped.
func (t *Terminal) Render(md string, width int) string {
	if width < 20 {
		width = 20
	}
	md = clampLongLines(md, maxLineChars)
	if len(md) > maxGlamourChars {
		return wordwrap.String(md, width)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(t.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return wordwrap.String(md, width)
		}
		t.renderers[width] = r
	}
	out, err := r.Render(md)
	if err != nil {
		return wordwrap.String(md, width)
	}
	return out
}

// Plain is used for history entries that carry markup but no markdown
// source.
func Plain(markup string, width int) string {
	if width < 20 {
		width = 20
	}
	return wordwrap.String(Text(markup), width)
}

func clampLongLines(s string, max int) string {
	if max <= 0 || len(s) == 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if len(line) <= max {
			continue
		}
		head := line[:max/2]
		tail := line[len(line)-max/2:]
		lines[i] = head + "... [line truncated " + strconv.Itoa(len(line)-max) + " chars] ..." + tail
	}
	return strings.Join(lines, "\n")
}
