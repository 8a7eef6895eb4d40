package service

import (
	"context"
	"errors"
	"testing"

	"driftline.app/backend/internal/entity"
	"driftline.app/backend/internal/modules/feed/timeline"
	"driftline.app/backend/pkg/dto"
	"github.com/google/uuid"
)

type fakeFeed struct {
	forests [][]timeline.Post
	calls   int
}

func (f *fakeFeed) GetFeed(ctx context.Context, viewerID *uuid.UUID, filter FeedFilter) ([]timeline.Post, error) {
	idx := f.calls
	if idx >= len(f.forests) {
		idx = len(f.forests) - 1
	}
	f.calls++
	return f.forests[idx], nil
}

type fakeReactions struct {
	setCalls    int
	removeCalls int
	lastType    string
	err         error
}

func (f *fakeReactions) Set(ctx context.Context, userID, postID uuid.UUID, reactionType string) error {
	f.setCalls++
	f.lastType = reactionType
	return f.err
}

func (f *fakeReactions) Remove(ctx context.Context, userID, postID uuid.UUID, reactionType string) error {
	f.removeCalls++
	return f.err
}

type fakeDeleter struct {
	err   error
	calls int
}

func (f *fakeDeleter) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	f.calls++
	return f.err
}

type fakeVotes struct {
	poll *dto.Poll
	err  error
}

func (f *fakeVotes) CastVote(ctx context.Context, pollID, voterID uuid.UUID, optionIDs []uuid.UUID) (*dto.Poll, error) {
	return f.poll, f.err
}

func simplePost(id uuid.UUID) timeline.Post {
	return timeline.Post{ID: id, Content: "hello"}
}

func newTestSession(t *testing.T, forest []timeline.Post, reactions *fakeReactions, deleter *fakeDeleter, votes *fakeVotes) *Session {
	t.Helper()
	feed := &fakeFeed{forests: [][]timeline.Post{forest}}
	session := NewSession(uuid.New(), feed, reactions, deleter, votes)
	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	return session
}

func TestToggleLikeAddsThenRemoves(t *testing.T) {
	postID := uuid.New()
	reactions := &fakeReactions{}
	session := newTestSession(t, []timeline.Post{simplePost(postID)}, reactions, nil, nil)

	if err := session.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	got := timeline.Find(session.Forest(), postID)
	if got.MyReaction == nil || *got.MyReaction != entity.ReactionLike {
		t.Errorf("expected liked state, got %v", got.MyReaction)
	}
	if got.LikeCount != 1 {
		t.Errorf("like count = %d, want 1", got.LikeCount)
	}
	if reactions.setCalls != 1 {
		t.Errorf("expected one Set call, got %d", reactions.setCalls)
	}

	if err := session.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	got = timeline.Find(session.Forest(), postID)
	if got.MyReaction != nil {
		t.Errorf("expected no reaction after second toggle, got %v", *got.MyReaction)
	}
	if got.LikeCount != 0 {
		t.Errorf("like count = %d, want 0", got.LikeCount)
	}
	if reactions.removeCalls != 1 {
		t.Errorf("expected one Remove call, got %d", reactions.removeCalls)
	}
}

func TestToggleLikeClearsDislike(t *testing.T) {
	postID := uuid.New()
	dislike := entity.ReactionDislike
	post := simplePost(postID)
	post.MyReaction = &dislike
	post.DislikeCount = 3

	session := newTestSession(t, []timeline.Post{post}, &fakeReactions{}, nil, nil)

	if err := session.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	got := timeline.Find(session.Forest(), postID)
	if got.MyReaction == nil || *got.MyReaction != entity.ReactionLike {
		t.Errorf("expected liked state, got %v", got.MyReaction)
	}
	if got.LikeCount != 1 || got.DislikeCount != 2 {
		t.Errorf("counts = (%d, %d), want (1, 2): switching must move both in one step",
			got.LikeCount, got.DislikeCount)
	}
}

func TestToggleReachesNestedReply(t *testing.T) {
	rootID, replyID := uuid.New(), uuid.New()
	root := simplePost(rootID)
	root.ChildPosts = []timeline.Post{simplePost(replyID)}

	session := newTestSession(t, []timeline.Post{root}, &fakeReactions{}, nil, nil)

	if err := session.ToggleDislike(context.Background(), replyID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	got := timeline.Find(session.Forest(), replyID)
	if got.DislikeCount != 1 {
		t.Errorf("nested reply dislike count = %d, want 1", got.DislikeCount)
	}
	if parent := timeline.Find(session.Forest(), rootID); parent.DislikeCount != 0 {
		t.Errorf("parent must be untouched, dislike count = %d", parent.DislikeCount)
	}
}

func TestToggleNoOpsOnDeletedPost(t *testing.T) {
	postID := uuid.New()
	post := simplePost(postID)
	post.IsDeleted = true

	reactions := &fakeReactions{}
	session := newTestSession(t, []timeline.Post{post}, reactions, nil, nil)

	if err := session.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("toggle on deleted post should be a silent no-op, got %v", err)
	}
	if reactions.setCalls != 0 || reactions.removeCalls != 0 {
		t.Errorf("deleted post must not reach the store")
	}
	if got := timeline.Find(session.Forest(), postID); got.LikeCount != 0 {
		t.Errorf("deleted post counts must not change")
	}
}

func TestToggleResyncsOnRemoteFailure(t *testing.T) {
	postID := uuid.New()
	serverTruth := simplePost(postID)
	serverTruth.LikeCount = 7

	feed := &fakeFeed{forests: [][]timeline.Post{
		{simplePost(postID)},
		{serverTruth},
	}}
	reactions := &fakeReactions{err: errors.New("store down")}
	session := NewSession(uuid.New(), feed, reactions, nil, nil)
	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	err := session.ToggleLike(context.Background(), postID)
	if err == nil {
		t.Fatalf("expected error from failed remote reaction")
	}

	got := timeline.Find(session.Forest(), postID)
	if got.LikeCount != 7 || got.MyReaction != nil {
		t.Errorf("forest should hold server truth after resync, got likes=%d reaction=%v",
			got.LikeCount, got.MyReaction)
	}
}

func TestDeletePostAwaitsConfirmation(t *testing.T) {
	postID := uuid.New()

	deleter := &fakeDeleter{err: errors.New("store down")}
	session := newTestSession(t, []timeline.Post{simplePost(postID)}, nil, deleter, nil)

	if err := session.DeletePost(context.Background(), postID); err == nil {
		t.Fatalf("expected delete error")
	}
	if got := timeline.Find(session.Forest(), postID); got.IsDeleted {
		t.Errorf("failed delete must not tombstone locally")
	}

	deleter.err = nil
	if err := session.DeletePost(context.Background(), postID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := timeline.Find(session.Forest(), postID); !got.IsDeleted {
		t.Errorf("confirmed delete must tombstone the post")
	}
}

func TestCastVoteReplacesEmbeddedPoll(t *testing.T) {
	postID, pollID := uuid.New(), uuid.New()
	post := simplePost(postID)
	post.Poll = &dto.Poll{ID: pollID, TotalVotes: 0}

	updated := &dto.Poll{ID: pollID, TotalVotes: 1}
	session := newTestSession(t, []timeline.Post{post}, nil, nil, &fakeVotes{poll: updated})

	if err := session.CastVote(context.Background(), pollID, []uuid.UUID{uuid.New()}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	got := timeline.Find(session.Forest(), postID)
	if got.Poll.TotalVotes != 1 {
		t.Errorf("poll must be replaced with the server-returned state")
	}
}

func TestCastVoteFailureLeavesPollUntouched(t *testing.T) {
	postID, pollID := uuid.New(), uuid.New()
	post := simplePost(postID)
	post.Poll = &dto.Poll{ID: pollID, TotalVotes: 5}

	session := newTestSession(t, []timeline.Post{post}, nil, nil, &fakeVotes{err: errors.New("poll ended")})

	if err := session.CastVote(context.Background(), pollID, []uuid.UUID{uuid.New()}); err == nil {
		t.Fatalf("expected vote error")
	}
	if got := timeline.Find(session.Forest(), postID); got.Poll.TotalVotes != 5 {
		t.Errorf("rejected vote must not change local poll state")
	}
}

func TestSessionManagerReusesSessions(t *testing.T) {
	manager := NewSessionManager(&fakeFeed{forests: [][]timeline.Post{nil}}, nil, nil, nil)
	viewer := uuid.New()

	if manager.Get(viewer) != manager.Get(viewer) {
		t.Errorf("same viewer must get the same session")
	}
	if manager.Get(viewer) == manager.Get(uuid.New()) {
		t.Errorf("different viewers must get different sessions")
	}
}
