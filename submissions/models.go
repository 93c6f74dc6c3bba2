package submissions

import (
	"reddit-ingest/common"
)

// Submission is a post from an RS_* dump.
type Submission struct {
	Selftext      string       `json:"selftext"`
	Subreddit     string       `json:"subreddit"`
	ID            string       `json:"id"`
	CreatedUTC    common.Epoch `json:"created_utc"`
	Score         int64        `json:"score"`
	Distinguished *string      `json:"distinguished"`
	Author        string       `json:"author"`

	Title             string  `json:"title"`
	Permalink         string  `json:"permalink"`
	SubredditType     string  `json:"subreddit_type"`
	RemovedByCategory *string `json:"removed_by_category"`

	NumSentences int `json:"-"`
}

// Reset clears the submission before it is decoded into again.
func (s *Submission) Reset() { *s = Submission{} }

// Created returns created_utc in seconds.
func (s *Submission) Created() int64 { return s.CreatedUTC.Unix() }
