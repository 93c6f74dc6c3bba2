package sanitize

// Tables holds the byte classification used to count sentences. A boundary
// is a byte from a first table immediately followed by a byte from its
// paired second table. The byte after the last one is treated as NUL.
type Tables struct {
	// TermFirst marks sentence terminators and TermFollow the bytes that
	// may follow one.
	TermFirst  [256]bool
	TermFollow [256]bool
	// EndFirst and EndFollow catch content that ends a line or the text
	// without punctuation.
	EndFirst  [256]bool
	EndFollow [256]bool

	// MinSentences is the fewest boundaries accepted text may have.
	MinSentences int
	// Markers are bodies that stand for removed content.
	Markers []string
}

// DefaultTables returns the classification used for Reddit bodies.
func DefaultTables() Tables {
	var t Tables
	for _, c := range []byte(".?!") {
		t.TermFirst[c] = true
	}
	for _, c := range []byte{0, '\r', '\n', '\t', '\f', '\v', ' '} {
		t.TermFollow[c] = true
	}

	for i := range t.EndFirst {
		t.EndFirst[i] = true
	}
	for _, c := range []byte{'\r', '\n', '\t', '\f', '\v'} {
		t.EndFirst[c] = false
	}
	t.EndFollow['\n'] = true
	t.EndFollow[0] = true

	t.MinSentences = 5
	t.Markers = []string{"[deleted]", "[removed]"}
	return t
}
