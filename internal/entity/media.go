package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Media is uploaded first (unbound), then attached to a post on creation.
// Unbound rows older than the cleanup window are orphans.
type Media struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    *uuid.UUID `gorm:"type:uuid;index" json:"post_id,omitempty"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	Type      string     `gorm:"size:10;not null" json:"type"`
	URL       string     `gorm:"type:text;not null" json:"url"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
