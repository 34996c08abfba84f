// Package highlight marks occurrences of a find term inside ANSI-styled
// terminal text without disturbing the escape sequences.
package highlight

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

var csi = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

type Match struct {
	Line    int
	Preview string
}

type Result struct {
	Text    string
	Count   int
	Matches []Match
}

// Lines returns the distinct line numbers holding at least one match.
func (r Result) Lines() []int {
	out := make([]int, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.Line)
	}
	return out
}

// Find wraps every case-insensitive occurrence of term. Matches never span
// an escape sequence.
func Find(input, term string, wrap func(string) string) Result {
	term = strings.TrimSpace(term)
	if term == "" {
		return Result{Text: input}
	}
	if wrap == nil {
		wrap = func(s string) string { return s }
	}

	var out strings.Builder
	res := Result{}
	for lineNo, line := range strings.SplitAfter(input, "\n") {
		body, nl := strings.CutSuffix(line, "\n")
		marked, n := markStyled(body, term, wrap)
		out.WriteString(marked)
		if nl {
			out.WriteByte('\n')
		}
		if n > 0 {
			res.Count += n
			res.Matches = append(res.Matches, Match{
				Line:    lineNo,
				Preview: strings.TrimSpace(ansi.Strip(body)),
			})
		}
	}
	res.Text = out.String()
	return res
}

func markStyled(s, term string, wrap func(string) string) (string, int) {
	seqs := csi.FindAllStringIndex(s, -1)
	if len(seqs) == 0 {
		return markPlain(s, term, wrap)
	}

	var out strings.Builder
	total, pos := 0, 0
	for _, seq := range seqs {
		if seq[0] > pos {
			marked, n := markPlain(s[pos:seq[0]], term, wrap)
			out.WriteString(marked)
			total += n
		}
		out.WriteString(s[seq[0]:seq[1]])
		pos = seq[1]
	}
	if pos < len(s) {
		marked, n := markPlain(s[pos:], term, wrap)
		out.WriteString(marked)
		total += n
	}
	return out.String(), total
}

func markPlain(s, term string, wrap func(string) string) (string, int) {
	if s == "" {
		return s, 0
	}

	var out strings.Builder
	count, last := 0, 0
	for i := 0; i < len(s); {
		if n := foldPrefix(s[i:], term); n > 0 {
			out.WriteString(s[last:i])
			out.WriteString(wrap(s[i : i+n]))
			count++
			i += n
			last = i
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	if count == 0 {
		return s, 0
	}
	out.WriteString(s[last:])
	return out.String(), count
}

// foldPrefix returns the byte length of the prefix of s equal to term under
// simple case folding, or 0. Offsets always fall on rune boundaries of s.
func foldPrefix(s, term string) int {
	n := 0
	for _, want := range term {
		if n >= len(s) {
			return 0
		}
		got, size := utf8.DecodeRuneInString(s[n:])
		if got != want && !strings.EqualFold(string(got), string(want)) {
			return 0
		}
		n += size
	}
	return n
}
