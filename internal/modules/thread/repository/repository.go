package repository

import (
	"context"

	"driftline.app/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ThreadRepository interface {
	// CountPosts counts a thread's non-reply posts. Replies nested under
	// threaded posts never take part in thread numbering.
	CountPosts(ctx context.Context, threadID uuid.UUID) (int, error)
	CountsFor(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int, error)
	// ListPosts returns the thread stack in sequence order.
	ListPosts(ctx context.Context, threadID uuid.UUID) ([]entity.Post, error)
}

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) CountPosts(ctx context.Context, threadID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("thread_id = ? AND is_reply = ?", threadID, false).
		Count(&count).Error
	return int(count), err
}

func (r *threadRepository) CountsFor(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}

	type result struct {
		ThreadID uuid.UUID
		Count    int
	}
	var results []result

	err := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Select("thread_id, count(*) as count").
		Where("thread_id IN ? AND is_reply = ?", threadIDs, false).
		Group("thread_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		counts[res.ThreadID] = res.Count
	}
	return counts, nil
}

func (r *threadRepository) ListPosts(ctx context.Context, threadID uuid.UUID) ([]entity.Post, error) {
	var posts []entity.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Media").
		Preload("Poll").
		Preload("Poll.Options").
		Where("thread_id = ? AND is_reply = ?", threadID, false).
		Order("sequence_number ASC").
		Find(&posts).Error
	return posts, err
}
