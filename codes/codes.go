// Package codes maps the small string vocabularies found in Reddit dumps to
// compact integer codes. Every vocabulary reserves 0 for a value that was
// present but not recognized.
package codes

// Distinguished role of the author.
const (
	DistinguishedError = iota
	DistinguishedUser
	DistinguishedMod
	DistinguishedAdmin
)

// Comment removal reason.
const (
	RemovalError = iota
	RemovalNone
	RemovalDeleted
	RemovalRemoved
	RemovalReddit
	RemovalLegal
)

// Submission removal category.
const (
	SubmissionRemovalError = iota
	SubmissionRemovalNone
	SubmissionRemovalDeleted
	SubmissionRemovalMod
	SubmissionRemovalReddit
	SubmissionRemovalAutomod
	SubmissionRemovalAuthor
	SubmissionRemovalTakedown
	SubmissionRemovalOps
)

// Collapse reason.
const (
	CollapsedError = iota
	CollapsedNone
	CollapsedScore
	CollapsedDeleted
	CollapsedUnknown
)

// Subreddit visibility.
const (
	SubredditError = iota
	SubredditPublic
	SubredditRestricted
	SubredditUser
	SubredditArchived
)

// Distinguished maps the "distinguished" field. A missing value means a
// regular user.
func Distinguished(v *string) int {
	if v == nil {
		return DistinguishedUser
	}
	switch *v {
	case "moderator":
		return DistinguishedMod
	case "admin":
		return DistinguishedAdmin
	}
	return DistinguishedError
}

// Removal maps a comment's removal_reason and _meta.removal_type. Any
// removal_reason at all marks a legal removal.
func Removal(reason, removalType *string) int {
	if reason != nil {
		return RemovalLegal
	}
	if removalType == nil {
		return RemovalNone
	}
	switch *removalType {
	case "deleted":
		return RemovalDeleted
	case "removed":
		return RemovalRemoved
	case "removed by reddit":
		return RemovalReddit
	}
	return RemovalError
}

// SubmissionRemoval maps a submission's removed_by_category.
func SubmissionRemoval(category *string) int {
	if category == nil {
		return SubmissionRemovalNone
	}
	switch *category {
	case "deleted":
		return SubmissionRemovalDeleted
	case "moderator":
		return SubmissionRemovalMod
	case "reddit":
		return SubmissionRemovalReddit
	case "automod_filtered":
		return SubmissionRemovalAutomod
	case "author":
		return SubmissionRemovalAuthor
	case "content_takedown", "copyright_takedown":
		return SubmissionRemovalTakedown
	case "community_ops", "anti_evil_ops":
		return SubmissionRemovalOps
	}
	return SubmissionRemovalError
}

// Collapsed maps the collapsed flag together with collapsed_reason and
// collapsed_reason_code. Any reason text means the score threshold.
func Collapsed(collapsed bool, reason, code *string) int {
	if !collapsed {
		return CollapsedNone
	}
	if reason != nil {
		return CollapsedScore
	}
	if code == nil {
		return CollapsedUnknown
	}
	switch *code {
	case "LOW_SCORE":
		return CollapsedScore
	case "DELETED":
		return CollapsedDeleted
	}
	return CollapsedError
}

// SubredditType maps subreddit_type.
func SubredditType(v string) int {
	switch v {
	case "public":
		return SubredditPublic
	case "restricted":
		return SubredditRestricted
	case "user":
		return SubredditUser
	case "archived":
		return SubredditArchived
	}
	return SubredditError
}
