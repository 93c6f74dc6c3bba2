package submissions

import (
	"reddit-ingest/codes"
	"reddit-ingest/comments"
	"reddit-ingest/schema"
)

const FullTable = "submissions"

// Main writes submissions into the table shared with comments. The text
// column is named body and parent_id is always empty.
var Main = schema.New(comments.MainTable,
	schema.Column[Submission]{Key: "body", Type: schema.Text, Extract: func(s *Submission) string { return s.Selftext }},
	schema.Column[Submission]{Key: "subreddit", Type: schema.Text, Extract: func(s *Submission) string { return s.Subreddit }},
	schema.Column[Submission]{Key: "id", Type: schema.Text, Extract: func(s *Submission) string { return s.ID }},
	schema.Column[Submission]{Key: "parent_id", Type: schema.Text, Extract: func(*Submission) string { return "" }},
	schema.Column[Submission]{Key: "created_utc", Type: schema.Integer, Extract: func(s *Submission) string { return s.CreatedUTC.String() }},
	schema.Column[Submission]{Key: "score", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(s.Score) }},
	schema.Column[Submission]{Key: "num_sentences", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(s.NumSentences) }},
	schema.Column[Submission]{Key: "distinguished", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(codes.Distinguished(s.Distinguished)) }},
)

var FullSchema = schema.New(FullTable,
	schema.Column[Submission]{Key: "author", Type: schema.Text, Extract: func(s *Submission) string { return s.Author }},
	schema.Column[Submission]{Key: "id", Type: schema.Text, Extract: func(s *Submission) string { return s.ID }},
	schema.Column[Submission]{Key: "subreddit", Type: schema.Text, Extract: func(s *Submission) string { return s.Subreddit }},
	schema.Column[Submission]{Key: "permalink", Type: schema.Text, Extract: func(s *Submission) string { return s.Permalink }},
	schema.Column[Submission]{Key: "title", Type: schema.Text, Extract: func(s *Submission) string { return s.Title }},
	schema.Column[Submission]{Key: "selftext", Type: schema.Text, Extract: func(s *Submission) string { return s.Selftext }},
	schema.Column[Submission]{Key: "created_utc", Type: schema.Integer, Extract: func(s *Submission) string { return s.CreatedUTC.String() }},
	schema.Column[Submission]{Key: "score", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(s.Score) }},
	schema.Column[Submission]{Key: "num_sentences", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(s.NumSentences) }},
	schema.Column[Submission]{Key: "distinguished", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(codes.Distinguished(s.Distinguished)) }},
	schema.Column[Submission]{Key: "removal_type", Type: schema.Integer, Extract: func(s *Submission) string {
		return schema.Int(codes.SubmissionRemoval(s.RemovedByCategory))
	}},
	schema.Column[Submission]{Key: "subreddit_type", Type: schema.Integer, Extract: func(s *Submission) string { return schema.Int(codes.SubredditType(s.SubredditType)) }},
)

// Tables lists the tables a Submission can be written to.
func Tables() map[string]*schema.Schema[Submission] {
	return map[string]*schema.Schema[Submission]{
		comments.MainTable: Main,
		FullTable:          FullSchema,
	}
}
