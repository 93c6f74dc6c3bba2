// Package sanitize filters free text by quality and strips Markdown that
// would disrupt later text processing.
package sanitize

import (
	"regexp"
	"slices"
	"strings"
)

// markup matches, in order of preference: a [text](url) link whose url may
// hold one level of parentheses, a bare URL, a header marker at line start
// or after a blank, a line-start quote marker, and a caret with an optional
// escaping backslash. Group 1 is link text, group 2 the blank before a
// header marker and group 3 the escaping backslash.
var markup = regexp.MustCompile(
	`(?m)\[([^\]\n]*)\]\((?:[^()\s]|\([^()\s]*\))*\)` +
		`|https?://[^\s)\]]+|www\.[^\s)\]]+` +
		`|(^|[ \t])#+[ \t]+` +
		`|^[ \t]*(?:>|&gt;)+[ \t]?` +
		`|(\\)?\^`,
)

// Sanitizer is safe for concurrent use.
type Sanitizer struct {
	t Tables
}

func New(t Tables) *Sanitizer {
	t.Markers = slices.Clone(t.Markers)
	return &Sanitizer{t: t}
}

// Clean reports whether text is acceptable and, if it is, returns it with
// markup removed along with its sentence count.
func (s *Sanitizer) Clean(text string) (string, int, bool) {
	if text == "" || slices.Contains(s.t.Markers, text) {
		return "", 0, false
	}
	if !isASCII(text) {
		return "", 0, false
	}

	n := s.Sentences(text)
	if n < s.t.MinSentences {
		return "", n, false
	}

	cleaned := s.StripMarkup(text)
	cleaned = strings.ReplaceAll(cleaned, `\`, "")
	return cleaned, n, true
}

// Sentences counts sentence boundaries in text. A matched pair consumes
// both bytes.
func (s *Sanitizer) Sentences(text string) int {
	count := 0
	for i := 0; i < len(text); {
		c := text[i]
		var next byte
		if i+1 < len(text) {
			next = text[i+1]
		}
		if next < 0x80 && ((s.t.TermFirst[c] && s.t.TermFollow[next]) || (s.t.EndFirst[c] && s.t.EndFollow[next])) {
			count++
			i += 2
			continue
		}
		i++
	}
	return count
}

// StripMarkup removes links (keeping their text), URLs, header and quote
// markers and unescaped carets in one pass over the original text.
func (s *Sanitizer) StripMarkup(text string) string {
	matches := markup.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		switch {
		case m[2] >= 0:
			b.WriteString(text[m[2]:m[3]])
		case m[4] >= 0:
			b.WriteString(text[m[4]:m[5]])
		case m[6] >= 0:
			// escaped caret stays
			b.WriteString(text[m[0]:m[1]])
		}
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
