package reaction

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"driftline.app/backend/internal/entity"
	notifService "driftline.app/backend/internal/modules/notification/service"
	postRepo "driftline.app/backend/internal/modules/post/repository"
	reactionRepo "driftline.app/backend/internal/modules/reaction/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ReactionService interface {
	// Set gives the post the viewer's reaction, replacing any previous one
	// (delete-then-insert at the store level).
	Set(ctx context.Context, userID, postID uuid.UUID, reactionType string) error
	// Remove clears the viewer's reaction of the given type.
	Remove(ctx context.Context, userID, postID uuid.UUID, reactionType string) error
	// MyReactions maps post id -> reaction type for the viewer.
	MyReactions(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]string, error)
	// Counts returns like/dislike tallies for a post, Redis cached.
	Counts(ctx context.Context, postID uuid.UUID) (map[string]int64, error)
}

type reactionService struct {
	repo                reactionRepo.ReactionRepository
	postRepo            postRepo.PostRepository
	redisClient         *redis.Client
	notificationService notifService.NotificationService
}

func NewReactionService(repo reactionRepo.ReactionRepository, postRepo postRepo.PostRepository, redisClient *redis.Client, notificationService notifService.NotificationService) ReactionService {
	return &reactionService{
		repo:                repo,
		postRepo:            postRepo,
		redisClient:         redisClient,
		notificationService: notificationService,
	}
}

func (s *reactionService) Set(ctx context.Context, userID, postID uuid.UUID, reactionType string) error {
	old, err := s.repo.Find(ctx, postID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, postID, userID, reactionType); err != nil {
		return err
	}

	var oldType string
	if old != nil {
		oldType = old.Type
	}
	s.updateCountCache(ctx, postID, oldType, reactionType)

	s.notifyAuthor(userID, postID, reactionType)
	return nil
}

func (s *reactionService) Remove(ctx context.Context, userID, postID uuid.UUID, reactionType string) error {
	if err := s.repo.Delete(ctx, postID, userID, &reactionType); err != nil {
		return err
	}
	s.updateCountCache(ctx, postID, reactionType, "")
	return nil
}

func (s *reactionService) MyReactions(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	reactions, err := s.repo.ListForViewer(ctx, postIDs, viewerID)
	if err != nil {
		return nil, err
	}

	byPost := make(map[uuid.UUID]string, len(reactions))
	for _, r := range reactions {
		byPost[r.PostID] = r.Type
	}
	return byPost, nil
}

func (s *reactionService) Counts(ctx context.Context, postID uuid.UUID) (map[string]int64, error) {
	redisKey := countKey(postID)

	if s.redisClient != nil {
		val, err := s.redisClient.HGetAll(ctx, redisKey).Result()
		if err == nil && len(val) > 0 {
			counts := make(map[string]int64)
			for k, v := range val {
				count, _ := strconv.ParseInt(v, 10, 64)
				if count > 0 {
					counts[k] = count
				}
			}
			return counts, nil
		}
	}

	// Cache miss: rebuild from the store
	counts, err := s.repo.CountsFor(ctx, postID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		pipe := s.redisClient.Pipeline()
		pipe.Del(ctx, redisKey)
		for reactionType, count := range counts {
			pipe.HSet(ctx, redisKey, reactionType, count)
		}
		pipe.Expire(ctx, redisKey, 7*24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}

	return counts, nil
}

func (s *reactionService) updateCountCache(ctx context.Context, postID uuid.UUID, oldType, newType string) {
	if s.redisClient == nil {
		return
	}

	pipe := s.redisClient.Pipeline()
	if oldType != "" {
		pipe.HIncrBy(ctx, countKey(postID), oldType, -1)
	}
	if newType != "" {
		pipe.HIncrBy(ctx, countKey(postID), newType, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Cache only; the store already holds the truth
		log.Printf("redis reaction count update failed: %v", err)
	}
}

func (s *reactionService) notifyAuthor(userID, postID uuid.UUID, reactionType string) {
	if s.notificationService == nil {
		return
	}

	go func() {
		post, err := s.postRepo.FindByID(context.Background(), postID, false)
		if err != nil || post.AuthorID == userID {
			return
		}

		snippet := post.Content
		if len(snippet) > 20 {
			snippet = snippet[:20] + "..."
		}

		notif := &entity.Notification{
			UserID:     post.AuthorID,
			ActorID:    userID,
			EntityID:   postID,
			EntityType: "post",
			Type:       "reaction",
			Message:    fmt.Sprintf("Someone reacted with %s to your post: %s", reactionType, snippet),
		}
		_ = s.notificationService.CreateNotification(context.Background(), notif)
	}()
}

func countKey(postID uuid.UUID) string {
	return fmt.Sprintf("counts:post:%s", postID.String())
}
