package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Poll struct {
	ID                    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PostID                uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"post_id"`
	Question              string       `gorm:"type:text;not null" json:"question"`
	AllowsMultipleChoices bool         `gorm:"not null;default:false" json:"allows_multiple_choices"`
	Options               []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	ExpiresAt             time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt             time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Poll) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

type PollOption struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PollID   uuid.UUID `gorm:"type:uuid;not null;index" json:"poll_id"`
	Text     string    `gorm:"size:100;not null" json:"text"`
	Position int       `gorm:"not null;default:0" json:"position"`
}

func (o *PollOption) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID, err = uuid.NewV7()
	}
	return
}

// PollVote is one (voter, option) row. Multiple rows per voter exist only
// for multiple-choice polls; the service layer enforces the constraint.
type PollVote struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PollID   uuid.UUID `gorm:"type:uuid;not null;index:idx_poll_votes_unique,priority:1" json:"poll_id"`
	OptionID uuid.UUID `gorm:"type:uuid;not null;index:idx_poll_votes_unique,priority:2" json:"option_id"`
	VoterID  uuid.UUID `gorm:"type:uuid;not null;index:idx_poll_votes_unique,unique,priority:3" json:"voter_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (v *PollVote) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID, err = uuid.NewV7()
	}
	return
}
