package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is the flat wire-level record. Reply nesting (child posts) is never
// stored; it is reconstructed by the timeline builder from ParentPostID.
//
// ThreadID points at the thread's anchor post (the anchor references
// itself). SequenceNumber is the 1-based position among the thread's
// non-reply posts; replies carry neither.
type Post struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Content  string    `gorm:"type:text;not null" json:"content"`

	ParentPostID *uuid.UUID `gorm:"type:uuid;index" json:"parent_post_id,omitempty"`
	ParentPost   *Post      `gorm:"foreignKey:ParentPostID;constraint:OnDelete:CASCADE" json:"parent_post,omitempty"`
	IsReply      bool       `gorm:"not null;default:false" json:"is_reply"`

	ThreadID       *uuid.UUID `gorm:"type:uuid;index" json:"thread_id,omitempty"`
	SequenceNumber *int       `json:"sequence_number,omitempty"`

	QuotedPostID *uuid.UUID `gorm:"type:uuid" json:"quoted_post_id,omitempty"`
	QuotedPost   *Post      `gorm:"foreignKey:QuotedPostID" json:"quoted_post,omitempty"`

	// Denormalized aggregates, owned by the store layer and updated
	// transactionally alongside the rows they count.
	LikeCount    int `gorm:"not null;default:0" json:"like_count"`
	DislikeCount int `gorm:"not null;default:0" json:"dislike_count"`
	RepostCount  int `gorm:"not null;default:0" json:"repost_count"`
	QuoteCount   int `gorm:"not null;default:0" json:"quote_count"`
	ReplyCount   int `gorm:"not null;default:0" json:"reply_count"`

	Media []Media `gorm:"foreignKey:PostID" json:"media,omitempty"`
	Poll  *Poll   `gorm:"foreignKey:PostID" json:"poll,omitempty"`

	IsEdited  bool           `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
