package comments

import (
	"reddit-ingest/codes"
	"reddit-ingest/schema"
)

const (
	// MainTable is shared with submissions.
	MainTable = "main"
	FullTable = "comments"
)

// Main is the compact text table.
var Main = schema.New(MainTable,
	schema.Column[Comment]{Key: "body", Type: schema.Text, Extract: func(c *Comment) string { return c.Body }},
	schema.Column[Comment]{Key: "subreddit", Type: schema.Text, Extract: func(c *Comment) string { return c.Subreddit }},
	schema.Column[Comment]{Key: "id", Type: schema.Text, Extract: func(c *Comment) string { return c.ID }},
	schema.Column[Comment]{Key: "parent_id", Type: schema.Text, Extract: func(c *Comment) string { return c.ParentID.String() }},
	schema.Column[Comment]{Key: "created_utc", Type: schema.Integer, Extract: func(c *Comment) string { return c.CreatedUTC.String() }},
	schema.Column[Comment]{Key: "score", Type: schema.Integer, Extract: func(c *Comment) string { return schema.Int(c.Score) }},
	schema.Column[Comment]{Key: "num_sentences", Type: schema.Integer, Extract: func(c *Comment) string { return schema.Int(c.NumSentences) }},
	schema.Column[Comment]{Key: "distinguished", Type: schema.Integer, Extract: func(c *Comment) string { return schema.Int(codes.Distinguished(c.Distinguished)) }},
)

// FullSchema keeps every comment field with classifications encoded.
var FullSchema = schema.New(FullTable,
	schema.Column[Full]{Key: "author", Type: schema.Text, Extract: func(c *Full) string { return c.Author }},
	schema.Column[Full]{Key: "id", Type: schema.Text, Extract: func(c *Full) string { return c.ID }},
	schema.Column[Full]{Key: "link_id", Type: schema.Text, Extract: func(c *Full) string { return c.LinkID }},
	schema.Column[Full]{Key: "parent_id", Type: schema.Text, Extract: func(c *Full) string { return c.ParentID.String() }},
	schema.Column[Full]{Key: "subreddit_id", Type: schema.Text, Extract: func(c *Full) string { return c.SubredditID }},
	schema.Column[Full]{Key: "subreddit", Type: schema.Text, Extract: func(c *Full) string { return c.Subreddit }},
	schema.Column[Full]{Key: "permalink", Type: schema.Text, Extract: func(c *Full) string { return c.Permalink }},
	schema.Column[Full]{Key: "body", Type: schema.Text, Extract: func(c *Full) string { return c.Body }},
	schema.Column[Full]{Key: "created_utc", Type: schema.Integer, Extract: func(c *Full) string { return c.CreatedUTC.String() }},
	schema.Column[Full]{Key: "controversiality", Type: schema.Integer, Extract: func(c *Full) string { return schema.Int(c.Controversiality) }},
	schema.Column[Full]{Key: "score", Type: schema.Integer, Extract: func(c *Full) string { return schema.Int(c.Score) }},
	schema.Column[Full]{Key: "archived", Type: schema.Boolean, Extract: func(c *Full) string { return schema.Bool(c.Archived) }},
	schema.Column[Full]{Key: "locked", Type: schema.Boolean, Extract: func(c *Full) string { return schema.Bool(c.Locked) }},
	schema.Column[Full]{Key: "is_submitter", Type: schema.Boolean, Extract: func(c *Full) string { return schema.Bool(c.IsSubmitter) }},
	schema.Column[Full]{Key: "stickied", Type: schema.Boolean, Extract: func(c *Full) string { return schema.Bool(c.Stickied) }},
	schema.Column[Full]{Key: "num_sentences", Type: schema.Integer, Extract: func(c *Full) string { return schema.Int(c.NumSentences) }},
	schema.Column[Full]{Key: "edited", Type: schema.Boolean, Extract: func(c *Full) string { return schema.Bool(c.Edited.IsEdited()) }},
	schema.Column[Full]{Key: "removal_type", Type: schema.Integer, Extract: func(c *Full) string {
		return schema.Int(codes.Removal(c.RemovalReason, c.RemovalType()))
	}},
	schema.Column[Full]{Key: "collapsed", Type: schema.Integer, Extract: func(c *Full) string {
		return schema.Int(codes.Collapsed(c.Collapsed, c.CollapsedReason, c.CollapsedReasonCode))
	}},
	schema.Column[Full]{Key: "distinguished", Type: schema.Integer, Extract: func(c *Full) string { return schema.Int(codes.Distinguished(c.Distinguished)) }},
	schema.Column[Full]{Key: "subreddit_type", Type: schema.Integer, Extract: func(c *Full) string { return schema.Int(codes.SubredditType(c.SubredditType)) }},
)

// Tables lists the tables a Comment can be written to.
func Tables() map[string]*schema.Schema[Comment] {
	return map[string]*schema.Schema[Comment]{MainTable: Main}
}

// FullTables lists the tables a Full comment can be written to.
func FullTables() map[string]*schema.Schema[Full] {
	return map[string]*schema.Schema[Full]{FullTable: FullSchema}
}
