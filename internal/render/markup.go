// Package render turns guidance markdown into stored markup (HTML) and into
// styled terminal text.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markup renders markdown to sanitized HTML. It never fails: if goldmark
// rejects the input the escaped source is returned inside <pre>.
type Markup struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewMarkup() *Markup {
	return &Markup{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

func (m *Markup) Render(markdown string) string {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markdown), &buf); err != nil {
		return "<pre>" + html.EscapeString(markdown) + "</pre>\n"
	}
	return m.policy.Sanitize(buf.String())
}

var stripPolicy = bluemonday.StrictPolicy()

// Text strips every tag from markup and returns the readable text with
// entities decoded. Block boundaries become newlines.
func Text(markup string) string {
	r := strings.NewReplacer(
		"</p>", "</p>\n",
		"</li>", "</li>\n",
		"</h1>", "</h1>\n",
		"</h2>", "</h2>\n",
		"</h3>", "</h3>\n",
		"</h4>", "</h4>\n",
		"</h5>", "</h5>\n",
		"</h6>", "</h6>\n",
		"<br>", "\n",
		"<br/>", "\n",
	)
	text := html.UnescapeString(stripPolicy.Sanitize(r.Replace(markup)))
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(line))
	}
	return strings.Join(out, "\n")
}
