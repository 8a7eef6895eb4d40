package repository

import (
	"context"
	"time"

	"driftline.app/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaRepository interface {
	Create(ctx context.Context, media *entity.Media) error
	FindOwned(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Media, error)
	AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID) error
	FindOrphans(ctx context.Context, olderThan time.Time) ([]entity.Media, error)
	Delete(ctx context.Context, id uint) error
}

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *entity.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

// FindOwned returns only media rows that belong to userID and are not yet
// attached, so a post cannot claim someone else's upload.
func (r *mediaRepository) FindOwned(ctx context.Context, ids []uint, userID uuid.UUID) ([]entity.Media, error) {
	var media []entity.Media
	err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ? AND post_id IS NULL", ids, userID).
		Find(&media).Error
	return media, err
}

func (r *mediaRepository) AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&entity.Media{}).
		Where("id IN ?", ids).
		Update("post_id", postID).Error
}

func (r *mediaRepository) FindOrphans(ctx context.Context, olderThan time.Time) ([]entity.Media, error) {
	var orphans []entity.Media
	err := r.db.WithContext(ctx).
		Where("post_id IS NULL AND created_at < ?", olderThan).
		Find(&orphans).Error
	return orphans, err
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Media{}, id).Error
}
