package service

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"driftline.app/backend/internal/entity"
	notifService "driftline.app/backend/internal/modules/notification/service"
	pollService "driftline.app/backend/internal/modules/poll/service"
	postDto "driftline.app/backend/internal/modules/post/dto"
	postRepo "driftline.app/backend/internal/modules/post/repository"
	searchService "driftline.app/backend/internal/modules/search/service"
	threadRepo "driftline.app/backend/internal/modules/thread/repository"
	thread "driftline.app/backend/internal/modules/thread/service"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/dto"
	"driftline.app/backend/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxPostLength = 280

// MediaAttacher binds uploaded media to a created post. Implemented by
// the media module's service.
type MediaAttacher interface {
	AttachToPost(ctx context.Context, userID, postID uuid.UUID, mediaIDs []uint) ([]entity.Media, error)
}

type PostService interface {
	CreatePosts(ctx context.Context, authorID uuid.UUID, req postDto.CreatePostsRequest) ([]dto.Post, error)
	GetPostDetail(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*postDto.PostDetail, error)
	UpdatePost(ctx context.Context, userID, postID uuid.UUID, req postDto.UpdatePostRequest) (*dto.Post, error)
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error
}

type postService struct {
	repo          postRepo.PostRepository
	threadRepo    threadRepo.ThreadRepository
	assembler     thread.PostAssembler
	polls         pollService.PollService
	media         MediaAttacher
	search        searchService.SearchService
	notifications notifService.NotificationService
	redisClient   *redis.Client
	postLimit     time.Duration
}

func NewPostService(
	repo postRepo.PostRepository,
	threads threadRepo.ThreadRepository,
	assembler thread.PostAssembler,
	polls pollService.PollService,
	media MediaAttacher,
	search searchService.SearchService,
	notifications notifService.NotificationService,
	redisClient *redis.Client,
	postLimit time.Duration,
) PostService {
	return &postService{
		repo:          repo,
		threadRepo:    threads,
		assembler:     assembler,
		polls:         polls,
		media:         media,
		search:        search,
		notifications: notifications,
		redisClient:   redisClient,
		postLimit:     postLimit,
	}
}

func (s *postService) CreatePosts(ctx context.Context, authorID uuid.UUID, req postDto.CreatePostsRequest) ([]dto.Post, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, authorID, ratelimiter.ScopePost, s.postLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, authorID, ratelimiter.ScopePost)
		return nil, &ratelimiter.RateLimitError{
			Message:    "you are posting too fast",
			RetryAfter: ttl,
		}
	}

	var parent *entity.Post
	if req.ParentPostID != nil {
		parent, err = s.repo.FindByID(ctx, *req.ParentPostID, false)
		if err != nil {
			return nil, fmt.Errorf("parent post: %w", err)
		}
	}
	if req.QuotedPostID != nil {
		if _, err := s.repo.FindByID(ctx, *req.QuotedPostID, false); err != nil {
			return nil, fmt.Errorf("quoted post: %w", err)
		}
	}

	target, err := s.resolveThreadTarget(ctx, authorID, req.ThreadID)
	if err != nil {
		return nil, err
	}

	slots, err := thread.PlanBatch(target, len(req.Posts))
	if err != nil {
		return nil, err
	}

	created := make([]entity.Post, 0, len(req.Posts))
	var anchorID *uuid.UUID
	for i, draft := range req.Posts {
		post := entity.Post{
			AuthorID:       authorID,
			Content:        draft.Content,
			SequenceNumber: slots[i].SequenceNumber,
		}
		if slots[i].ThreadID != nil {
			post.ThreadID = slots[i].ThreadID
		} else if anchorID != nil {
			post.ThreadID = anchorID
		}
		if req.ParentPostID != nil {
			post.ParentPostID = req.ParentPostID
			post.IsReply = true
		}
		if i == 0 && req.QuotedPostID != nil {
			post.QuotedPostID = req.QuotedPostID
		}

		if err := s.repo.Create(ctx, &post); err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}

		if slots[i].SelfAnchor {
			// The anchor references itself; later posts in the batch
			// reference it too.
			if err := s.repo.UpdateThreadID(ctx, post.ID, post.ID); err != nil {
				return nil, err
			}
			id := post.ID
			post.ThreadID = &id
			anchorID = &id
		}

		if _, err := s.media.AttachToPost(ctx, authorID, post.ID, draft.MediaIDs); err != nil {
			return nil, err
		}
		if draft.Poll != nil {
			pollDraft := &pollService.Draft{
				Question:              draft.Poll.Question,
				Options:               draft.Poll.Options,
				AllowsMultipleChoices: draft.Poll.AllowsMultipleChoices,
				Duration:              time.Duration(draft.Poll.DurationHours) * time.Hour,
			}
			if _, err := s.polls.CreateForPost(ctx, post.ID, pollDraft); err != nil {
				return nil, err
			}
		}

		created = append(created, post)
	}

	// Reload with relations so the response carries author, media and
	// poll exactly as a subsequent fetch would.
	reloaded := make([]entity.Post, 0, len(created))
	for _, post := range created {
		full, err := s.repo.FindByID(ctx, post.ID, false)
		if err != nil {
			return nil, err
		}
		reloaded = append(reloaded, *full)
	}

	s.afterCreate(reloaded, parent)

	return s.assembler.MapPosts(ctx, reloaded, &authorID)
}

func (s *postService) validateRequest(req postDto.CreatePostsRequest) error {
	if req.ParentPostID != nil && req.ThreadID != nil {
		return fmt.Errorf("%w: a post cannot both reply and continue a thread", apperror.ErrInvalidInput)
	}
	if req.ParentPostID != nil && len(req.Posts) > 1 {
		return fmt.Errorf("%w: replies are single posts", apperror.ErrInvalidInput)
	}
	if req.QuotedPostID != nil && len(req.Posts) > 1 {
		return fmt.Errorf("%w: quotes are single posts", apperror.ErrInvalidInput)
	}

	for _, draft := range req.Posts {
		if utf8.RuneCountInString(draft.Content) > maxPostLength {
			return fmt.Errorf("%w: post exceeds %d characters", apperror.ErrInvalidInput, maxPostLength)
		}
		if draft.Content == "" && len(draft.MediaIDs) == 0 && draft.Poll == nil {
			return fmt.Errorf("%w: post needs content, media or a poll", apperror.ErrInvalidInput)
		}
		if draft.Poll != nil {
			pollDraft := &pollService.Draft{
				Question:              draft.Poll.Question,
				Options:               draft.Poll.Options,
				AllowsMultipleChoices: draft.Poll.AllowsMultipleChoices,
				Duration:              time.Duration(draft.Poll.DurationHours) * time.Hour,
			}
			if err := s.polls.ValidateDraft(pollDraft); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveThreadTarget turns a continuation request into a sequencing
// target. Only the thread's author may extend it.
func (s *postService) resolveThreadTarget(ctx context.Context, authorID uuid.UUID, threadID *uuid.UUID) (*thread.Target, error) {
	if threadID == nil {
		return nil, nil
	}

	anchor, err := s.repo.FindByID(ctx, *threadID, false)
	if err != nil {
		return nil, fmt.Errorf("thread anchor: %w", err)
	}
	if anchor.AuthorID != authorID {
		return nil, fmt.Errorf("%w: only the author can continue this thread", apperror.ErrForbidden)
	}

	count, err := s.threadRepo.CountPosts(ctx, *threadID)
	if err != nil {
		return nil, err
	}

	return &thread.Target{ThreadID: *threadID, StartSequence: count + 1}, nil
}

// afterCreate runs the non-blocking side effects: search indexing and the
// reply notification. Failures are logged, never surfaced.
func (s *postService) afterCreate(posts []entity.Post, parent *entity.Post) {
	go func() {
		for i := range posts {
			if s.search != nil {
				if err := s.search.IndexPost(&posts[i]); err != nil {
					log.Printf("failed to index post %s: %v", posts[i].ID, err)
				}
			}
		}

		if parent != nil && s.notifications != nil && parent.AuthorID != posts[0].AuthorID {
			snippet := posts[0].Content
			if utf8.RuneCountInString(snippet) > 40 {
				snippet = string([]rune(snippet)[:40]) + "..."
			}
			notif := &entity.Notification{
				UserID:     parent.AuthorID,
				ActorID:    posts[0].AuthorID,
				EntityID:   posts[0].ID,
				EntityType: "post",
				Type:       "reply",
				Message:    fmt.Sprintf("%s replied to your post: %s", posts[0].Author.Username, snippet),
			}
			if err := s.notifications.CreateNotification(context.Background(), notif); err != nil {
				log.Printf("failed to create reply notification: %v", err)
			}
		}
	}()
}

func (s *postService) GetPostDetail(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*postDto.PostDetail, error) {
	post, err := s.repo.FindByID(ctx, postID, false)
	if err != nil {
		return nil, err
	}

	mapped, err := s.assembler.MapPosts(ctx, []entity.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	detail := &postDto.PostDetail{Post: mapped[0]}

	if post.ParentPostID != nil {
		parent, err := s.repo.FindByID(ctx, *post.ParentPostID, false)
		if err == nil {
			if parentMapped, err := s.assembler.MapPosts(ctx, []entity.Post{*parent}, viewerID); err == nil {
				detail.ParentPost = &parentMapped[0]
			}
		}
	}

	replies, err := s.repo.List(ctx, postRepo.PostFilter{
		ParentPostID: &postID,
		OldestFirst:  true,
	})
	if err != nil {
		return nil, err
	}
	detail.Replies, err = s.assembler.MapPosts(ctx, replies, viewerID)
	if err != nil {
		return nil, err
	}

	if post.ThreadID != nil {
		stack, err := s.threadRepo.ListPosts(ctx, *post.ThreadID)
		if err != nil {
			return nil, err
		}
		detail.ThreadPosts, err = s.assembler.MapPosts(ctx, stack, viewerID)
		if err != nil {
			return nil, err
		}
	}

	return detail, nil
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID uuid.UUID, req postDto.UpdatePostRequest) (*dto.Post, error) {
	if utf8.RuneCountInString(req.Content) > maxPostLength {
		return nil, fmt.Errorf("%w: post exceeds %d characters", apperror.ErrInvalidInput, maxPostLength)
	}

	post, err := s.repo.FindByID(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, fmt.Errorf("%w: you can only edit your own posts", apperror.ErrForbidden)
	}

	post.Content = req.Content
	post.IsEdited = true
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	if s.search != nil {
		go func(p entity.Post) {
			if err := s.search.IndexPost(&p); err != nil {
				log.Printf("failed to reindex post %s: %v", p.ID, err)
			}
		}(*post)
	}

	mapped, err := s.assembler.MapPosts(ctx, []entity.Post{*post}, &userID)
	if err != nil {
		return nil, err
	}
	return &mapped[0], nil
}

func (s *postService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, postID, false)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return fmt.Errorf("%w: you can only delete your own posts", apperror.ErrForbidden)
	}

	if err := s.repo.SoftDelete(ctx, postID); err != nil {
		return err
	}

	if s.search != nil {
		go func() {
			if err := s.search.DeletePost(postID.String()); err != nil {
				log.Printf("failed to remove post %s from index: %v", postID, err)
			}
		}()
	}
	return nil
}
