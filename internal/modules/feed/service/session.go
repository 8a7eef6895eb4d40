package service

import (
	"context"
	"fmt"
	"sync"

	"driftline.app/backend/internal/entity"
	"driftline.app/backend/internal/modules/feed/timeline"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/dto"
	"github.com/google/uuid"
)

// reactionWriter is the mutation slice of the reaction service.
type reactionWriter interface {
	Set(ctx context.Context, userID, postID uuid.UUID, reactionType string) error
	Remove(ctx context.Context, userID, postID uuid.UUID, reactionType string) error
}

type postDeleter interface {
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error
}

type voteCaster interface {
	CastVote(ctx context.Context, pollID, voterID uuid.UUID, optionIDs []uuid.UUID) (*dto.Poll, error)
}

// Session is one viewer's live feed: an immutable forest snapshot plus
// optimistic mutations over it. All operations are serialized by a single
// mutex, so overlapping mutations apply in call order. The forest is
// never mutated in place; every operation swaps in a new one.
type Session struct {
	viewerID uuid.UUID

	mu     sync.Mutex
	forest []timeline.Post

	feed      FeedService
	reactions reactionWriter
	posts     postDeleter
	votes     voteCaster
	filter    FeedFilter
}

func NewSession(viewerID uuid.UUID, feed FeedService, reactions reactionWriter, posts postDeleter, votes voteCaster) *Session {
	return &Session{
		viewerID:  viewerID,
		feed:      feed,
		reactions: reactions,
		posts:     posts,
		votes:     votes,
	}
}

// Refresh re-fetches the feed and replaces the forest wholesale. It does
// not cancel in-flight mutations; server-confirmed state supersedes any
// unconfirmed optimistic state.
func (s *Session) Refresh(ctx context.Context) ([]timeline.Post, error) {
	viewerID := s.viewerID
	forest, err := s.feed.GetFeed(ctx, &viewerID, s.filter)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.forest = forest
	s.mu.Unlock()
	return forest, nil
}

// Forest returns the current snapshot. Safe to hand out: nodes are values
// and no mutation ever writes through a previously returned forest.
func (s *Session) Forest() []timeline.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest
}

func (s *Session) ToggleLike(ctx context.Context, postID uuid.UUID) error {
	return s.toggle(ctx, postID, entity.ReactionLike)
}

func (s *Session) ToggleDislike(ctx context.Context, postID uuid.UUID) error {
	return s.toggle(ctx, postID, entity.ReactionDislike)
}

// toggle applies the reaction transition locally first, then reconciles
// with the store. A store failure resynchronizes the whole forest rather
// than attempting a surgical rollback.
func (s *Session) toggle(ctx context.Context, postID uuid.UUID, reactionType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := timeline.Find(s.forest, postID)
	if current == nil {
		return apperror.ErrNotFound
	}
	if current.IsDeleted {
		// A slow confirmation can race a delete; deleted posts absorb
		// mutations silently.
		return nil
	}

	removing := current.MyReaction != nil && *current.MyReaction == reactionType

	s.forest = timeline.Update(s.forest, func(p timeline.Post) timeline.Post {
		if p.ID != postID {
			return p
		}
		return toggleReaction(p, reactionType)
	})

	var err error
	if removing {
		err = s.reactions.Remove(ctx, s.viewerID, postID, reactionType)
	} else {
		err = s.reactions.Set(ctx, s.viewerID, postID, reactionType)
	}
	if err != nil {
		s.resync(ctx)
		return fmt.Errorf("reaction not saved: %w", err)
	}
	return nil
}

// DeletePost awaits the remote soft delete, then tombstones the local
// node. Not optimistic: local state only changes on confirmation.
func (s *Session) DeletePost(ctx context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.posts.DeletePost(ctx, s.viewerID, postID); err != nil {
		return err
	}

	s.forest = timeline.Update(s.forest, func(p timeline.Post) timeline.Post {
		if p.ID != postID {
			return p
		}
		return tombstone(p)
	})
	return nil
}

// CastVote awaits server validation; only the returned poll state is
// applied, so a rejected vote never shows locally.
func (s *Session) CastVote(ctx context.Context, pollID uuid.UUID, optionIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.votes.CastVote(ctx, pollID, s.viewerID, optionIDs)
	if err != nil {
		return err
	}

	s.forest = timeline.Update(s.forest, func(p timeline.Post) timeline.Post {
		if p.Poll == nil || p.Poll.ID != pollID {
			return p
		}
		p.Poll = updated
		return p
	})
	return nil
}

// resync replaces the forest with server truth after a failed mutation.
// Callers hold the lock.
func (s *Session) resync(ctx context.Context) {
	viewerID := s.viewerID
	forest, err := s.feed.GetFeed(ctx, &viewerID, s.filter)
	if err != nil {
		// Keep the optimistic forest; the next refresh reconciles.
		return
	}
	s.forest = forest
}

// SessionManager hands out one Session per viewer.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	feed      FeedService
	reactions reactionWriter
	posts     postDeleter
	votes     voteCaster
}

func NewSessionManager(feed FeedService, reactions reactionWriter, posts postDeleter, votes voteCaster) *SessionManager {
	return &SessionManager{
		sessions:  make(map[uuid.UUID]*Session),
		feed:      feed,
		reactions: reactions,
		posts:     posts,
		votes:     votes,
	}
}

func (m *SessionManager) Get(viewerID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[viewerID]; ok {
		return session
	}
	session := NewSession(viewerID, m.feed, m.reactions, m.posts, m.votes)
	m.sessions[viewerID] = session
	return session
}
