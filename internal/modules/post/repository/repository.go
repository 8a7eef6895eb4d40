package repository

import (
	"context"
	"errors"

	"driftline.app/backend/internal/entity"
	"driftline.app/backend/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostFilter narrows List. Zero value means the global feed: every
// non-deleted post, replies included, newest first.
type PostFilter struct {
	AuthorID       *uuid.UUID
	ThreadID       *uuid.UUID
	ParentPostID   *uuid.UUID
	ExcludeReplies bool
	IncludeDeleted bool
	OldestFirst    bool
	Limit          int
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*entity.Post, error)
	List(ctx context.Context, filter PostFilter) ([]entity.Post, error)
	Update(ctx context.Context, post *entity.Post) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// UpdateThreadID self-anchors a thread's first post after insertion.
	UpdateThreadID(ctx context.Context, postID, threadID uuid.UUID) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if post.ParentPostID != nil {
			if err := tx.Model(&entity.Post{}).Where("id = ?", *post.ParentPostID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		if post.QuotedPostID != nil {
			if err := tx.Model(&entity.Post{}).Where("id = ?", *post.QuotedPostID).
				UpdateColumn("quote_count", gorm.Expr("quote_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*entity.Post, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var post entity.Post
	err := query.
		Preload("Author").
		Preload("Media").
		Preload("Poll").
		Preload("Poll.Options").
		Preload("QuotedPost").
		Preload("QuotedPost.Author").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]entity.Post, error) {
	query := r.db.WithContext(ctx)
	if filter.IncludeDeleted {
		query = query.Unscoped()
	}

	query = query.
		Preload("Author").
		Preload("Media").
		Preload("Poll").
		Preload("Poll.Options").
		Preload("QuotedPost").
		Preload("QuotedPost.Author")

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.ThreadID != nil {
		query = query.Where("thread_id = ?", *filter.ThreadID)
	}
	if filter.ParentPostID != nil {
		query = query.Where("parent_post_id = ?", *filter.ParentPostID)
	}
	if filter.ExcludeReplies {
		query = query.Where("is_reply = ?", false)
	}

	if filter.OldestFirst {
		query = query.Order("created_at ASC")
	} else {
		query = query.Order("created_at DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var posts []entity.Post
	err := query.Find(&posts).Error
	return posts, err
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *postRepository) UpdateThreadID(ctx context.Context, postID, threadID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("id = ?", postID).
		UpdateColumn("thread_id", threadID).Error
}
