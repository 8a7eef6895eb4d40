package dto

import (
	"time"

	"github.com/google/uuid"
)

type PollOption struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Votes int       `json:"votes"`
}

type Poll struct {
	ID                    uuid.UUID   `json:"id"`
	Question              string      `json:"question"`
	Options               []PollOption `json:"options"`
	AllowsMultipleChoices bool        `json:"allows_multiple_choices"`
	ViewerSelectedOptions []uuid.UUID `json:"viewer_selected_options,omitempty"`
	TotalVotes            int         `json:"total_votes"`
	ExpiresAt             time.Time   `json:"expires_at"`
	CreatedAt             time.Time   `json:"created_at"`
}

// ShowResults is the presentation gate for vote tallies: results are
// revealed only after the viewer has voted or the poll has expired.
func (p *Poll) ShowResults(now time.Time) bool {
	return len(p.ViewerSelectedOptions) > 0 || p.ExpiresAt.Before(now)
}
