package render

import (
	"strings"
	"testing"
)

func TestMarkupRendersHeadingAndBullets(t *testing.T) {
	out := NewMarkup().Render("#### Key Areas\n- Transparency\n- Equity")

	if !strings.Contains(out, "<h4>Key Areas</h4>") {
		t.Fatalf("expected h4 block, got %q", out)
	}
	if strings.Count(out, "<li>") != 2 {
		t.Fatalf("expected two list items, got %q", out)
	}
	if !strings.Contains(out, "<li>Transparency</li>") || !strings.Contains(out, "<li>Equity</li>") {
		t.Fatalf("unexpected list items: %q", out)
	}
}

func TestMarkupRendersBold(t *testing.T) {
	out := NewMarkup().Render("Schools **must** disclose AI use.")
	if !strings.Contains(out, "<strong>must</strong>") {
		t.Fatalf("expected bold markup, got %q", out)
	}
}

func TestMarkupDropsScripts(t *testing.T) {
	out := NewMarkup().Render("hello <script>alert(1)</script>\n\n[x](javascript:alert(1))")
	if strings.Contains(out, "<script") || strings.Contains(out, "javascript:") {
		t.Fatalf("unsafe content survived rendering: %q", out)
	}
}

func TestText(t *testing.T) {
	got := Text("<h4>Key Areas</h4>\n<ul>\n<li>Transparency &amp; trust</li>\n<li>Equity</li>\n</ul>\n")
	want := "Key Areas\nTransparency & trust\nEquity"
	if got != want {
		t.Fatalf("unexpected text\nwant: %q\ngot:  %q", want, got)
	}
}

func TestPlainWraps(t *testing.T) {
	out := Plain("<p>"+strings.Repeat("word ", 30)+"</p>", 20)
	for _, line := range strings.Split(out, "\n") {
		if len(strings.TrimSpace(line)) > 20 {
			t.Fatalf("line exceeds wrap width: %q", line)
		}
	}
}

func TestTerminalRenderContainsText(t *testing.T) {
	term := NewTerminal("notty")
	out := term.Render("#### Key Areas\n\n- Transparency\n- Equity\n", 60)
	for _, want := range []string{"Key Areas", "Transparency", "Equity"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in terminal output, got %q", want, out)
		}
	}
}

func TestClampLongLines(t *testing.T) {
	in := strings.Repeat("a", 50)
	out := clampLongLines(in, 20)
	if !strings.Contains(out, "[line truncated 30 chars]") {
		t.Fatalf("expected truncation marker, got %q", out)
	}
	if clampLongLines("short", 20) != "short" {
		t.Fatalf("short lines must be untouched")
	}
}
