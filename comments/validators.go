package comments

import (
	"reddit-ingest/sanitize"
)

// BotAuthor posts templated replies that carry no signal.
const BotAuthor = "AutoModerator"

// Valid drops bot replies and low quality bodies. An accepted body is
// replaced by its cleaned text.
func (c *Comment) Valid(s *sanitize.Sanitizer) bool {
	if c.Author == BotAuthor {
		return false
	}
	body, n, ok := s.Clean(c.Body)
	if !ok {
		return false
	}
	c.Body, c.NumSentences = body, n
	return true
}

func (c *Full) Valid(s *sanitize.Sanitizer) bool {
	if c.Author == BotAuthor {
		return false
	}
	body, n, ok := s.Clean(c.Body)
	if !ok {
		return false
	}
	c.Body, c.NumSentences = body, n
	return true
}
