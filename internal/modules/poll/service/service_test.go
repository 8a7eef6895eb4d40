package service

import (
	"errors"
	"testing"
	"time"

	"driftline.app/backend/internal/entity"
	"driftline.app/backend/pkg/apperror"
	"github.com/google/uuid"
)

func fixturePoll(multi bool, expiresIn time.Duration) *entity.Poll {
	return &entity.Poll{
		ID:                    uuid.New(),
		Question:              "tabs or spaces?",
		AllowsMultipleChoices: multi,
		ExpiresAt:             time.Now().Add(expiresIn),
		Options: []entity.PollOption{
			{ID: uuid.New(), Text: "tabs", Position: 0},
			{ID: uuid.New(), Text: "spaces", Position: 1},
			{ID: uuid.New(), Text: "both", Position: 2},
		},
	}
}

func vote(poll *entity.Poll, option int, voter uuid.UUID) entity.PollVote {
	return entity.PollVote{
		ID:       uuid.New(),
		PollID:   poll.ID,
		OptionID: poll.Options[option].ID,
		VoterID:  voter,
	}
}

func TestMapPollTalliesPerOption(t *testing.T) {
	poll := fixturePoll(false, time.Hour)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	votes := []entity.PollVote{
		vote(poll, 0, a),
		vote(poll, 0, b),
		vote(poll, 1, c),
	}

	mapped := MapPoll(poll, votes, nil)

	if got := []int{mapped.Options[0].Votes, mapped.Options[1].Votes, mapped.Options[2].Votes}; got[0] != 2 || got[1] != 1 || got[2] != 0 {
		t.Errorf("tally = %v, want [2 1 0]", got)
	}
	if mapped.TotalVotes != 3 {
		t.Errorf("TotalVotes = %d, want 3", mapped.TotalVotes)
	}
	if len(mapped.ViewerSelectedOptions) != 0 {
		t.Errorf("anonymous viewer must have no selections")
	}
}

func TestMapPollCountsVotersOnceOnMultiChoice(t *testing.T) {
	poll := fixturePoll(true, time.Hour)
	voter := uuid.New()
	votes := []entity.PollVote{
		vote(poll, 0, voter),
		vote(poll, 2, voter),
	}

	mapped := MapPoll(poll, votes, &voter)

	if mapped.TotalVotes != 1 {
		t.Errorf("one voter with two selections should count once, got %d", mapped.TotalVotes)
	}
	if len(mapped.ViewerSelectedOptions) != 2 {
		t.Errorf("viewer selections = %d, want 2", len(mapped.ViewerSelectedOptions))
	}
}

func TestMapPollKeepsCreationOrder(t *testing.T) {
	poll := fixturePoll(false, time.Hour)
	// Shuffle the stored order; positions still decide presentation.
	poll.Options[0], poll.Options[2] = poll.Options[2], poll.Options[0]

	mapped := MapPoll(poll, nil, nil)

	want := []string{"tabs", "spaces", "both"}
	for i, opt := range mapped.Options {
		if opt.Text != want[i] {
			t.Errorf("option %d = %q, want %q", i, opt.Text, want[i])
		}
	}
}

func TestResultsHiddenUntilVoteOrExpiry(t *testing.T) {
	now := time.Now()

	open := MapPoll(fixturePoll(false, time.Hour), nil, nil)
	if open.ShowResults(now) {
		t.Errorf("open poll with no viewer vote must hide results")
	}

	ended := MapPoll(fixturePoll(false, -time.Minute), nil, nil)
	if !ended.ShowResults(now) {
		t.Errorf("ended poll must show results")
	}

	poll := fixturePoll(false, time.Hour)
	voter := uuid.New()
	voted := MapPoll(poll, []entity.PollVote{vote(poll, 1, voter)}, &voter)
	if !voted.ShowResults(now) {
		t.Errorf("viewer who voted must see results")
	}
}

func TestValidateBallot(t *testing.T) {
	poll := fixturePoll(false, time.Hour)
	now := time.Now()

	if err := ValidateBallot(poll, []uuid.UUID{poll.Options[0].ID}, now); err != nil {
		t.Errorf("valid single vote rejected: %v", err)
	}

	err := ValidateBallot(poll, []uuid.UUID{poll.Options[0].ID, poll.Options[1].ID}, now)
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("multi-option ballot on single-choice poll should fail, got %v", err)
	}

	err = ValidateBallot(poll, []uuid.UUID{uuid.New()}, now)
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("foreign option should fail, got %v", err)
	}

	ended := fixturePoll(false, -time.Minute)
	err = ValidateBallot(ended, []uuid.UUID{ended.Options[0].ID}, now)
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("vote on ended poll should fail, got %v", err)
	}

	multi := fixturePoll(true, time.Hour)
	if err := ValidateBallot(multi, []uuid.UUID{multi.Options[0].ID, multi.Options[2].ID}, now); err != nil {
		t.Errorf("multi-choice ballot rejected: %v", err)
	}
}

func TestValidateDraft(t *testing.T) {
	svc := &pollService{}
	base := func() *Draft {
		return &Draft{
			Question: "lunch?",
			Options:  []string{"pizza", "ramen"},
			Duration: 24 * time.Hour,
		}
	}

	if err := svc.ValidateDraft(base()); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"missing question", func(d *Draft) { d.Question = "" }},
		{"one option", func(d *Draft) { d.Options = []string{"pizza"} }},
		{"five options", func(d *Draft) { d.Options = []string{"a", "b", "c", "d", "e"} }},
		{"blank option", func(d *Draft) { d.Options = []string{"pizza", ""} }},
		{"duplicate options", func(d *Draft) { d.Options = []string{"pizza", "pizza"} }},
		{"no duration", func(d *Draft) { d.Duration = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := base()
			tc.mutate(draft)
			if err := svc.ValidateDraft(draft); !errors.Is(err, apperror.ErrInvalidInput) {
				t.Errorf("expected invalid input, got %v", err)
			}
		})
	}
}
