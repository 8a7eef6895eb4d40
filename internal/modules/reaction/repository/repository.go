package repository

import (
	"context"
	"fmt"

	"driftline.app/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReactionRepository interface {
	// Find returns the viewer's reaction on a post, or nil.
	Find(ctx context.Context, postID, userID uuid.UUID) (*entity.Reaction, error)
	// ListForViewer returns the viewer's reactions across the given posts.
	ListForViewer(ctx context.Context, postIDs []uuid.UUID, viewerID uuid.UUID) ([]entity.Reaction, error)
	// Upsert removes any existing reaction for the pair, then inserts the
	// new one. The two steps are deliberately separate operations, not one
	// atomic statement; callers tolerate the brief window between them.
	Upsert(ctx context.Context, postID, userID uuid.UUID, reactionType string) error
	// Delete removes the pair's reaction. When reactionType is non-nil only
	// a matching row is removed.
	Delete(ctx context.Context, postID, userID uuid.UUID, reactionType *string) error
	CountsFor(ctx context.Context, postID uuid.UUID) (map[string]int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Find(ctx context.Context, postID, userID uuid.UUID) (*entity.Reaction, error) {
	// Find with slice avoids "record not found" log noise from First()
	var existing []entity.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

func (r *reactionRepository) ListForViewer(ctx context.Context, postIDs []uuid.UUID, viewerID uuid.UUID) ([]entity.Reaction, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var reactions []entity.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id IN ? AND user_id = ?", postIDs, viewerID).
		Find(&reactions).Error
	return reactions, err
}

func (r *reactionRepository) Upsert(ctx context.Context, postID, userID uuid.UUID, reactionType string) error {
	if err := r.Delete(ctx, postID, userID, nil); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reaction := &entity.Reaction{
			PostID: postID,
			UserID: userID,
			Type:   reactionType,
		}
		if err := tx.Create(reaction).Error; err != nil {
			return err
		}
		return bumpCount(tx, postID, reactionType, +1)
	})
}

func (r *reactionRepository) Delete(ctx context.Context, postID, userID uuid.UUID, reactionType *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []entity.Reaction
		query := tx.Where("post_id = ? AND user_id = ?", postID, userID)
		if reactionType != nil {
			query = query.Where("type = ?", *reactionType)
		}
		if err := query.Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			return nil
		}

		record := existing[0]
		if err := tx.Delete(&record).Error; err != nil {
			return err
		}
		return bumpCount(tx, postID, record.Type, -1)
	})
}

func (r *reactionRepository) CountsFor(ctx context.Context, postID uuid.UUID) (map[string]int64, error) {
	type result struct {
		Type  string
		Count int64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Model(&entity.Reaction{}).
		Select("type, count(*) as count").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, res := range results {
		counts[res.Type] = res.Count
	}
	return counts, nil
}

// bumpCount keeps the denormalized per-post aggregate in step with the
// reaction rows inside the same transaction.
func bumpCount(tx *gorm.DB, postID uuid.UUID, reactionType string, delta int) error {
	column, err := countColumn(reactionType)
	if err != nil {
		return err
	}
	return tx.Model(&entity.Post{}).Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func countColumn(reactionType string) (string, error) {
	switch reactionType {
	case entity.ReactionLike:
		return "like_count", nil
	case entity.ReactionDislike:
		return "dislike_count", nil
	default:
		return "", fmt.Errorf("unknown reaction type %q", reactionType)
	}
}
