package thread

import (
	"context"

	"driftline.app/backend/internal/entity"
	threadRepo "driftline.app/backend/internal/modules/thread/repository"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/dto"
	"github.com/google/uuid"
)

// PostAssembler turns flat post records into view models with viewer
// state, polls and thread metadata attached. Implemented by the feed
// module's assembler.
type PostAssembler interface {
	MapPosts(ctx context.Context, posts []entity.Post, viewerID *uuid.UUID) ([]dto.Post, error)
}

type ThreadService interface {
	// GetStack returns a thread's non-reply posts in sequence order.
	GetStack(ctx context.Context, threadID uuid.UUID, viewerID *uuid.UUID) ([]dto.Post, error)
	// CountPosts recomputes thread_total from the store; it is never
	// cached because membership changes whenever the author continues
	// the thread.
	CountPosts(ctx context.Context, threadID uuid.UUID) (int, error)
}

type threadService struct {
	repo      threadRepo.ThreadRepository
	assembler PostAssembler
}

func NewThreadService(repo threadRepo.ThreadRepository, assembler PostAssembler) ThreadService {
	return &threadService{repo: repo, assembler: assembler}
}

func (s *threadService) GetStack(ctx context.Context, threadID uuid.UUID, viewerID *uuid.UUID) ([]dto.Post, error) {
	posts, err := s.repo.ListPosts(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperror.ErrNotFound
	}
	return s.assembler.MapPosts(ctx, posts, viewerID)
}

func (s *threadService) CountPosts(ctx context.Context, threadID uuid.UUID) (int, error) {
	return s.repo.CountPosts(ctx, threadID)
}
