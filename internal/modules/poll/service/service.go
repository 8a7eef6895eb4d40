package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"driftline.app/backend/internal/entity"
	pollRepo "driftline.app/backend/internal/modules/poll/repository"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/dto"
	"driftline.app/backend/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const (
	MinOptions = 2
	MaxOptions = 4

	maxQuestionLength = 280
	maxOptionLength   = 100
)

// Draft is a poll as submitted alongside a new post, before any ids exist.
type Draft struct {
	Question              string        `json:"question"`
	Options               []string      `json:"options"`
	AllowsMultipleChoices bool          `json:"allows_multiple_choices"`
	Duration              time.Duration `json:"-"`
}

type PollService interface {
	ValidateDraft(draft *Draft) error
	CreateForPost(ctx context.Context, postID uuid.UUID, draft *Draft) (*entity.Poll, error)
	GetForPost(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*dto.Poll, error)
	CastVote(ctx context.Context, pollID, voterID uuid.UUID, optionIDs []uuid.UUID) (*dto.Poll, error)
}

type pollService struct {
	repo        pollRepo.PollRepository
	redisClient *redis.Client
	voteLimit   time.Duration
}

func NewPollService(repo pollRepo.PollRepository, redisClient *redis.Client, voteLimit time.Duration) PollService {
	return &pollService{
		repo:        repo,
		redisClient: redisClient,
		voteLimit:   voteLimit,
	}
}

func (s *pollService) ValidateDraft(draft *Draft) error {
	if draft.Question == "" {
		return fmt.Errorf("%w: poll question is required", apperror.ErrInvalidInput)
	}
	if len(draft.Question) > maxQuestionLength {
		return fmt.Errorf("%w: poll question exceeds %d characters", apperror.ErrInvalidInput, maxQuestionLength)
	}

	filled := lo.Filter(draft.Options, func(opt string, _ int) bool { return opt != "" })
	if len(filled) != len(draft.Options) {
		return fmt.Errorf("%w: poll options cannot be empty", apperror.ErrInvalidInput)
	}
	if len(filled) < MinOptions || len(filled) > MaxOptions {
		return fmt.Errorf("%w: polls need between %d and %d options", apperror.ErrInvalidInput, MinOptions, MaxOptions)
	}
	for _, opt := range filled {
		if len(opt) > maxOptionLength {
			return fmt.Errorf("%w: poll option exceeds %d characters", apperror.ErrInvalidInput, maxOptionLength)
		}
	}
	if len(lo.Uniq(filled)) != len(filled) {
		return fmt.Errorf("%w: poll options must be distinct", apperror.ErrInvalidInput)
	}
	if draft.Duration <= 0 {
		return fmt.Errorf("%w: poll duration must be positive", apperror.ErrInvalidInput)
	}
	return nil
}

func (s *pollService) CreateForPost(ctx context.Context, postID uuid.UUID, draft *Draft) (*entity.Poll, error) {
	if err := s.ValidateDraft(draft); err != nil {
		return nil, err
	}

	poll := &entity.Poll{
		PostID:                postID,
		Question:              draft.Question,
		AllowsMultipleChoices: draft.AllowsMultipleChoices,
		ExpiresAt:             time.Now().Add(draft.Duration),
		Options: lo.Map(draft.Options, func(text string, i int) entity.PollOption {
			return entity.PollOption{Text: text, Position: i}
		}),
	}

	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}
	return poll, nil
}

func (s *pollService) GetForPost(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*dto.Poll, error) {
	poll, err := s.repo.FindByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, poll, viewerID)
}

func (s *pollService) CastVote(ctx context.Context, pollID, voterID uuid.UUID, optionIDs []uuid.UUID) (*dto.Poll, error) {
	if len(optionIDs) == 0 {
		return nil, fmt.Errorf("%w: vote requires at least one option", apperror.ErrInvalidInput)
	}

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, voterID, ratelimiter.ScopeVote, s.voteLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, voterID, ratelimiter.ScopeVote)
		return nil, &ratelimiter.RateLimitError{
			Message:    "you are voting too fast",
			RetryAfter: ttl,
		}
	}

	poll, err := s.repo.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if err := ValidateBallot(poll, optionIDs, time.Now()); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceVotes(ctx, pollID, voterID, optionIDs); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	return s.assemble(ctx, poll, &voterID)
}

// ValidateBallot rejects votes on expired polls, multi-option ballots on
// single-choice polls, and options that belong to a different poll.
func ValidateBallot(poll *entity.Poll, optionIDs []uuid.UUID, now time.Time) error {
	if !poll.ExpiresAt.After(now) {
		return fmt.Errorf("%w: this poll has ended", apperror.ErrInvalidInput)
	}
	if !poll.AllowsMultipleChoices && len(optionIDs) > 1 {
		return fmt.Errorf("%w: this poll allows a single choice", apperror.ErrInvalidInput)
	}
	if len(lo.Uniq(optionIDs)) != len(optionIDs) {
		return fmt.Errorf("%w: duplicate option in ballot", apperror.ErrInvalidInput)
	}

	known := lo.SliceToMap(poll.Options, func(opt entity.PollOption) (uuid.UUID, struct{}) {
		return opt.ID, struct{}{}
	})
	for _, id := range optionIDs {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: option does not belong to this poll", apperror.ErrInvalidInput)
		}
	}
	return nil
}

// MapPoll is the pure view-model mapper: options in creation order with
// per-option tallies, the viewer's own selections, and the voter total
// (distinct voters, not ballot rows).
func MapPoll(poll *entity.Poll, votes []entity.PollVote, viewerID *uuid.UUID) *dto.Poll {
	options := make([]entity.PollOption, len(poll.Options))
	copy(options, poll.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Position < options[j].Position
	})

	tally := lo.CountValuesBy(votes, func(v entity.PollVote) uuid.UUID { return v.OptionID })
	voters := lo.UniqBy(votes, func(v entity.PollVote) uuid.UUID { return v.VoterID })

	var selected []uuid.UUID
	if viewerID != nil {
		selected = lo.FilterMap(votes, func(v entity.PollVote, _ int) (uuid.UUID, bool) {
			return v.OptionID, v.VoterID == *viewerID
		})
	}

	return &dto.Poll{
		ID:       poll.ID,
		Question: poll.Question,
		Options: lo.Map(options, func(opt entity.PollOption, _ int) dto.PollOption {
			return dto.PollOption{
				ID:    opt.ID,
				Text:  opt.Text,
				Votes: tally[opt.ID],
			}
		}),
		AllowsMultipleChoices: poll.AllowsMultipleChoices,
		ViewerSelectedOptions: selected,
		TotalVotes:            len(voters),
		ExpiresAt:             poll.ExpiresAt,
		CreatedAt:             poll.CreatedAt,
	}
}

func (s *pollService) assemble(ctx context.Context, poll *entity.Poll, viewerID *uuid.UUID) (*dto.Poll, error) {
	votes, err := s.repo.ListVotes(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load poll votes: %w", err)
	}
	return MapPoll(poll, votes, viewerID), nil
}
