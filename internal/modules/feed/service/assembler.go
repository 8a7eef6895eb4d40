package service

import (
	"context"

	"driftline.app/backend/internal/entity"
	pollService "driftline.app/backend/internal/modules/poll/service"
	"driftline.app/backend/pkg/dto"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// reactionReader is the slice of the reaction service the assembler needs.
type reactionReader interface {
	MyReactions(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// threadCounter reports per-thread post totals for sequence display.
type threadCounter interface {
	CountsFor(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// pollVoteReader loads the flat vote rows backing an embedded poll.
type pollVoteReader interface {
	ListVotes(ctx context.Context, pollID uuid.UUID) ([]entity.PollVote, error)
}

// Assembler turns flat post records into view models: author, media,
// embedded poll, viewer reaction and thread metadata attached. It is the
// single mapping path shared by the feed, post detail and thread stack.
type Assembler struct {
	reactions reactionReader
	threads   threadCounter
	pollVotes pollVoteReader
}

func NewAssembler(reactions reactionReader, threads threadCounter, pollVotes pollVoteReader) *Assembler {
	return &Assembler{
		reactions: reactions,
		threads:   threads,
		pollVotes: pollVotes,
	}
}

func (a *Assembler) MapPosts(ctx context.Context, posts []entity.Post, viewerID *uuid.UUID) ([]dto.Post, error) {
	if len(posts) == 0 {
		return []dto.Post{}, nil
	}

	myReactions := map[uuid.UUID]string{}
	if viewerID != nil && a.reactions != nil {
		postIDs := lo.Map(posts, func(p entity.Post, _ int) uuid.UUID { return p.ID })
		var err error
		myReactions, err = a.reactions.MyReactions(ctx, *viewerID, postIDs)
		if err != nil {
			return nil, err
		}
	}

	threadTotals := map[uuid.UUID]int{}
	threadIDs := lo.Uniq(lo.FilterMap(posts, func(p entity.Post, _ int) (uuid.UUID, bool) {
		return lo.FromPtr(p.ThreadID), p.ThreadID != nil
	}))
	if len(threadIDs) > 0 && a.threads != nil {
		var err error
		threadTotals, err = a.threads.CountsFor(ctx, threadIDs)
		if err != nil {
			return nil, err
		}
	}

	mapped := make([]dto.Post, 0, len(posts))
	for i := range posts {
		post := a.mapPost(ctx, &posts[i], viewerID)

		if reaction, ok := myReactions[post.ID]; ok {
			post.MyReaction = &reaction
		}
		if posts[i].ThreadID != nil {
			if total, ok := threadTotals[*posts[i].ThreadID]; ok {
				post.ThreadTotal = &total
			}
		}

		mapped = append(mapped, post)
	}
	return mapped, nil
}

func (a *Assembler) mapPost(ctx context.Context, post *entity.Post, viewerID *uuid.UUID) dto.Post {
	mapped := dto.Post{
		ID:             post.ID,
		Author:         mapAuthor(&post.Author),
		Content:        post.Content,
		ParentPostID:   post.ParentPostID,
		IsReply:        post.IsReply,
		ThreadID:       post.ThreadID,
		SequenceNumber: post.SequenceNumber,
		LikeCount:      post.LikeCount,
		DislikeCount:   post.DislikeCount,
		RepostCount:    post.RepostCount,
		QuoteCount:     post.QuoteCount,
		ReplyCount:     post.ReplyCount,
		IsDeleted:      post.DeletedAt.Valid,
		IsEdited:       post.IsEdited,
		CreatedAt:      post.CreatedAt,
	}

	mapped.Media = lo.Map(post.Media, func(m entity.Media, _ int) dto.Media {
		return dto.Media{Type: m.Type, URL: m.URL}
	})

	if post.Poll != nil {
		mapped.Poll = a.mapPoll(ctx, post.Poll, viewerID)
	}

	// One level of quote embedding; the quoted post's own quote and poll
	// are not expanded.
	if post.QuotedPost != nil {
		quoted := dto.Post{
			ID:           post.QuotedPost.ID,
			Author:       mapAuthor(&post.QuotedPost.Author),
			Content:      post.QuotedPost.Content,
			IsDeleted:    post.QuotedPost.DeletedAt.Valid,
			IsEdited:     post.QuotedPost.IsEdited,
			CreatedAt:    post.QuotedPost.CreatedAt,
			LikeCount:    post.QuotedPost.LikeCount,
			DislikeCount: post.QuotedPost.DislikeCount,
			ReplyCount:   post.QuotedPost.ReplyCount,
		}
		quoted.Media = lo.Map(post.QuotedPost.Media, func(m entity.Media, _ int) dto.Media {
			return dto.Media{Type: m.Type, URL: m.URL}
		})
		mapped.QuotedPost = &quoted
	}

	return mapped
}

func (a *Assembler) mapPoll(ctx context.Context, poll *entity.Poll, viewerID *uuid.UUID) *dto.Poll {
	var votes []entity.PollVote
	if a.pollVotes != nil {
		// A failed vote load degrades to a zero-tally poll rather than
		// sinking the whole feed.
		votes, _ = a.pollVotes.ListVotes(ctx, poll.ID)
	}
	return pollService.MapPoll(poll, votes, viewerID)
}

// mapAuthor patches rows whose author relation failed to load with a
// placeholder instead of aborting the whole page.
func mapAuthor(author *entity.User) dto.Author {
	if author == nil || author.ID == uuid.Nil {
		return dto.Author{Username: "Unknown", DisplayName: "Unknown"}
	}

	displayName := author.DisplayName
	if displayName == "" {
		displayName = author.Username
	}
	return dto.Author{
		ID:          author.ID,
		Username:    author.Username,
		DisplayName: displayName,
		AvatarURL:   author.AvatarURL,
	}
}
