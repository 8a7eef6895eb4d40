package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction holds at most one row per (post, user) pair. The toggle path
// enforces this with a delete-then-insert sequence rather than an upsert,
// and the unique index backs it up at the store level.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_post_user,priority:1;index:idx_reactions_post" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_post_user,priority:2" json:"user_id"`
	Type      string    `gorm:"size:10;not null" json:"type"` // 'like' or 'dislike'
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
