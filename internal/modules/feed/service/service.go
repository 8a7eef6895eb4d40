package service

import (
	"context"

	"driftline.app/backend/internal/modules/feed/timeline"
	postRepo "driftline.app/backend/internal/modules/post/repository"
	"github.com/google/uuid"
)

// FeedFilter narrows the feed: nil AuthorID means the global feed.
type FeedFilter struct {
	AuthorID *uuid.UUID
	Limit    int
}

type FeedService interface {
	// GetFeed returns the nested forest: top-level posts with their reply
	// trees attached.
	GetFeed(ctx context.Context, viewerID *uuid.UUID, filter FeedFilter) ([]timeline.Post, error)
}

type feedService struct {
	posts     postRepo.PostRepository
	assembler *Assembler
}

func NewFeedService(posts postRepo.PostRepository, assembler *Assembler) FeedService {
	return &feedService{posts: posts, assembler: assembler}
}

func (s *feedService) GetFeed(ctx context.Context, viewerID *uuid.UUID, filter FeedFilter) ([]timeline.Post, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	// Replies ride along in the same page so the builder can nest them
	// under their parents.
	records, err := s.posts.List(ctx, postRepo.PostFilter{
		AuthorID: filter.AuthorID,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	flat, err := s.assembler.MapPosts(ctx, records, viewerID)
	if err != nil {
		return nil, err
	}

	return timeline.Build(flat, nil)
}
