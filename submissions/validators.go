package submissions

import (
	"reddit-ingest/sanitize"
)

// Valid keeps self posts whose text passes the sanitizer. Link posts have
// an empty selftext and are dropped.
func (s *Submission) Valid(san *sanitize.Sanitizer) bool {
	text, n, ok := san.Clean(s.Selftext)
	if !ok {
		return false
	}
	s.Selftext, s.NumSentences = text, n
	return true
}
