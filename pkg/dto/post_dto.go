package dto

import (
	"time"

	"github.com/google/uuid"
)

// Post is the view model handed to the presentation layer. Counts are
// denormalized server-side aggregates; MyReaction is viewer-relative state.
// ChildPosts is populated only by the timeline builder, never by a fetch.
type Post struct {
	ID      uuid.UUID `json:"id"`
	Author  Author    `json:"author"`
	Content string    `json:"content"`
	Media   []Media   `json:"media,omitempty"`
	Poll    *Poll     `json:"poll,omitempty"`

	// One level of quote embedding only; a quoted post never carries
	// its own quote.
	QuotedPost *Post `json:"quoted_post,omitempty"`

	ParentPostID *uuid.UUID `json:"parent_post_id,omitempty"`
	IsReply      bool       `json:"is_reply"`

	ThreadID       *uuid.UUID `json:"thread_id,omitempty"`
	SequenceNumber *int       `json:"sequence_number,omitempty"`
	ThreadTotal    *int       `json:"thread_total,omitempty"`

	ChildPosts []Post `json:"child_posts,omitempty"`

	LikeCount    int `json:"like_count"`
	DislikeCount int `json:"dislike_count"`
	RepostCount  int `json:"repost_count"`
	QuoteCount   int `json:"quote_count"`
	ReplyCount   int `json:"reply_count"`

	// "like", "dislike" or nil.
	MyReaction *string `json:"my_reaction,omitempty"`

	IsDeleted bool      `json:"is_deleted"`
	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
}
