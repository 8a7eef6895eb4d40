package dto

import (
	"driftline.app/backend/pkg/dto"
	"github.com/google/uuid"
)

// PostDraft is one post of a composition batch.
type PostDraft struct {
	Content  string     `json:"content"`
	MediaIDs []uint     `json:"media_ids,omitempty"`
	Poll     *PollDraft `json:"poll,omitempty"`
}

type PollDraft struct {
	Question              string   `json:"question" binding:"required"`
	Options               []string `json:"options" binding:"required"`
	AllowsMultipleChoices bool     `json:"allows_multiple_choices"`
	DurationHours         int      `json:"duration_hours" binding:"required,min=1"`
}

// CreatePostsRequest carries everything submitted in one composition
// action: one post, a reply, a quote, or a multi-post thread.
type CreatePostsRequest struct {
	Posts        []PostDraft `json:"posts" binding:"required,min=1,max=25"`
	ParentPostID *uuid.UUID  `json:"parent_post_id,omitempty"`
	ThreadID     *uuid.UUID  `json:"thread_id,omitempty"`
	QuotedPostID *uuid.UUID  `json:"quoted_post_id,omitempty"`
}

type UpdatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostDetail is the detail screen payload: the post itself, its parent
// when it is a reply, its direct reply forest, and the full thread stack
// when it belongs to one.
type PostDetail struct {
	Post        dto.Post   `json:"post"`
	ParentPost  *dto.Post  `json:"parent_post,omitempty"`
	Replies     []dto.Post `json:"replies"`
	ThreadPosts []dto.Post `json:"thread_posts,omitempty"`
}
