package comments

import (
	"reddit-ingest/common"
)

// Comment is a reply from an RC_* dump.
type Comment struct {
	Body          string       `json:"body"`
	Subreddit     string       `json:"subreddit"`
	ID            string       `json:"id"`
	ParentID      common.ID    `json:"parent_id"`
	CreatedUTC    common.Epoch `json:"created_utc"`
	Score         int64        `json:"score"`
	Distinguished *string      `json:"distinguished"`
	Author        string       `json:"author"`

	NumSentences int `json:"-"`
}

// Reset clears the comment before it is decoded into again.
func (c *Comment) Reset() { *c = Comment{} }

// Created returns created_utc in seconds.
func (c *Comment) Created() int64 { return c.CreatedUTC.Unix() }

// Meta is the archiver's "_meta" object.
type Meta struct {
	IsEdited    *bool   `json:"is_edited"`
	RemovalType *string `json:"removal_type"`
}

// Full is a reply with every field the archive carries that the comments
// table keeps.
type Full struct {
	Meta *Meta `json:"_meta"`

	Author    string `json:"author"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`

	ID       string    `json:"id"`
	LinkID   string    `json:"link_id"`
	ParentID common.ID `json:"parent_id"`

	Subreddit     string `json:"subreddit"`
	SubredditID   string `json:"subreddit_id"`
	SubredditType string `json:"subreddit_type"`

	Archived         bool         `json:"archived"`
	CreatedUTC       common.Epoch `json:"created_utc"`
	Controversiality int64        `json:"controversiality"`
	Score            int64        `json:"score"`
	IsSubmitter      bool         `json:"is_submitter"`
	Locked           bool         `json:"locked"`
	Stickied         bool         `json:"stickied"`

	Edited              common.Edited `json:"edited"`
	RemovalReason       *string       `json:"removal_reason"`
	Collapsed           bool          `json:"collapsed"`
	CollapsedReason     *string       `json:"collapsed_reason"`
	CollapsedReasonCode *string       `json:"collapsed_reason_code"`
	Distinguished       *string       `json:"distinguished"`

	NumSentences int `json:"-"`
}

func (c *Full) Reset() { *c = Full{} }

func (c *Full) Created() int64 { return c.CreatedUTC.Unix() }

// RemovalType is the archiver's removal type, if any.
func (c *Full) RemovalType() *string {
	if c.Meta == nil {
		return nil
	}
	return c.Meta.RemovalType
}
