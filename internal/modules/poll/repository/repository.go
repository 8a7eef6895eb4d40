package repository

import (
	"context"
	"errors"

	"driftline.app/backend/internal/entity"
	"driftline.app/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PollRepository interface {
	Create(ctx context.Context, poll *entity.Poll) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Poll, error)
	FindByPostID(ctx context.Context, postID uuid.UUID) (*entity.Poll, error)
	ListVotes(ctx context.Context, pollID uuid.UUID) ([]entity.PollVote, error)
	ListViewerVotes(ctx context.Context, pollID, voterID uuid.UUID) ([]entity.PollVote, error)
	ReplaceVotes(ctx context.Context, pollID, voterID uuid.UUID, optionIDs []uuid.UUID) error
}

type pollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) Create(ctx context.Context, poll *entity.Poll) error {
	return r.db.WithContext(ctx).Create(poll).Error
}

func (r *pollRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Poll, error) {
	var poll entity.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&poll, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) FindByPostID(ctx context.Context, postID uuid.UUID) (*entity.Poll, error) {
	var poll entity.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&poll, "post_id = ?", postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) ListVotes(ctx context.Context, pollID uuid.UUID) ([]entity.PollVote, error) {
	var votes []entity.PollVote
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Find(&votes).Error
	return votes, err
}

func (r *pollRepository) ListViewerVotes(ctx context.Context, pollID, voterID uuid.UUID) ([]entity.PollVote, error) {
	var votes []entity.PollVote
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		Find(&votes).Error
	return votes, err
}

// ReplaceVotes swaps the voter's ballot atomically: previous selections
// are cleared before the new ones are inserted so a re-vote never leaves
// stale rows behind.
func (r *pollRepository) ReplaceVotes(ctx context.Context, pollID, voterID uuid.UUID, optionIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ? AND voter_id = ?", pollID, voterID).
			Delete(&entity.PollVote{}).Error; err != nil {
			return err
		}
		for _, optionID := range optionIDs {
			vote := entity.PollVote{
				PollID:   pollID,
				OptionID: optionID,
				VoterID:  voterID,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
