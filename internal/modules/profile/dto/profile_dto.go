package dto

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// ImageFile is an uploaded avatar or cover image.
type ImageFile struct {
	Reader   io.Reader
	FileName string
}

type UpdateProfileInput struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,max=100"`
	Bio         *string `json:"bio,omitempty" binding:"omitempty,max=500"`
	Location    *string `json:"location,omitempty" binding:"omitempty,max=100"`
	Website     *string `json:"website,omitempty" binding:"omitempty,url,max=255"`
}

type ProfileResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Bio            *string   `json:"bio,omitempty"`
	Location       *string   `json:"location,omitempty"`
	Website        *string   `json:"website,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	CoverURL       *string   `json:"cover_url,omitempty"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
	JoinedAt       time.Time `json:"joined_at"`
}
