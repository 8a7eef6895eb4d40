package service

import (
	"context"
	"testing"
	"time"

	"driftline.app/backend/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeReactionReader struct {
	reactions map[uuid.UUID]string
}

func (f *fakeReactionReader) MyReactions(ctx context.Context, viewerID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	return f.reactions, nil
}

type fakeThreadCounter struct {
	counts map[uuid.UUID]int
}

func (f *fakeThreadCounter) CountsFor(ctx context.Context, threadIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return f.counts, nil
}

type fakeVoteReader struct {
	votes map[uuid.UUID][]entity.PollVote
}

func (f *fakeVoteReader) ListVotes(ctx context.Context, pollID uuid.UUID) ([]entity.PollVote, error) {
	return f.votes[pollID], nil
}

func entityPost(author entity.User) entity.Post {
	return entity.Post{
		ID:       uuid.New(),
		AuthorID: author.ID,
		Author:   author,
		Content:  "hello",
	}
}

func testAuthor() entity.User {
	return entity.User{ID: uuid.New(), Username: "mira", DisplayName: "Mira"}
}

func TestMapPostsAttachesViewerReaction(t *testing.T) {
	post := entityPost(testAuthor())
	post.LikeCount = 4

	viewer := uuid.New()
	assembler := NewAssembler(
		&fakeReactionReader{reactions: map[uuid.UUID]string{post.ID: entity.ReactionLike}},
		&fakeThreadCounter{},
		&fakeVoteReader{},
	)

	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, &viewer)
	if err != nil {
		t.Fatalf("MapPosts failed: %v", err)
	}

	if mapped[0].MyReaction == nil || *mapped[0].MyReaction != entity.ReactionLike {
		t.Errorf("viewer reaction not attached")
	}
	if mapped[0].LikeCount != 4 {
		t.Errorf("like count = %d, want 4", mapped[0].LikeCount)
	}
	if mapped[0].Author.Username != "mira" {
		t.Errorf("author not mapped, got %q", mapped[0].Author.Username)
	}
}

func TestMapPostsAnonymousViewerHasNoReaction(t *testing.T) {
	post := entityPost(testAuthor())
	assembler := NewAssembler(&fakeReactionReader{}, &fakeThreadCounter{}, &fakeVoteReader{})

	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, nil)
	if err != nil {
		t.Fatalf("MapPosts failed: %v", err)
	}
	if mapped[0].MyReaction != nil {
		t.Errorf("anonymous viewer must have no reaction state")
	}
}

func TestMapPostsPatchesMissingAuthor(t *testing.T) {
	post := entity.Post{ID: uuid.New(), Content: "orphaned row"}
	assembler := NewAssembler(&fakeReactionReader{}, &fakeThreadCounter{}, &fakeVoteReader{})

	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, nil)
	if err != nil {
		t.Fatalf("one bad row must not abort the page: %v", err)
	}
	if mapped[0].Author.Username != "Unknown" {
		t.Errorf("missing author should map to placeholder, got %q", mapped[0].Author.Username)
	}
}

func TestMapPostsAttachesThreadTotal(t *testing.T) {
	threadID := uuid.New()
	seq := 2
	post := entityPost(testAuthor())
	post.ThreadID = &threadID
	post.SequenceNumber = &seq

	assembler := NewAssembler(
		&fakeReactionReader{},
		&fakeThreadCounter{counts: map[uuid.UUID]int{threadID: 5}},
		&fakeVoteReader{},
	)

	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, nil)
	if err != nil {
		t.Fatalf("MapPosts failed: %v", err)
	}

	if mapped[0].ThreadTotal == nil || *mapped[0].ThreadTotal != 5 {
		t.Errorf("thread total not attached: %v", mapped[0].ThreadTotal)
	}
	if mapped[0].SequenceNumber == nil || *mapped[0].SequenceNumber != 2 {
		t.Errorf("sequence number lost in mapping")
	}
}

func TestMapPostsEmbedsPollWithTally(t *testing.T) {
	author := testAuthor()
	post := entityPost(author)
	optionA, optionB := uuid.New(), uuid.New()
	poll := &entity.Poll{
		ID:        uuid.New(),
		PostID:    post.ID,
		Question:  "which?",
		ExpiresAt: time.Now().Add(time.Hour),
		Options: []entity.PollOption{
			{ID: optionA, Text: "a", Position: 0},
			{ID: optionB, Text: "b", Position: 1},
		},
	}
	post.Poll = poll

	viewer := uuid.New()
	assembler := NewAssembler(
		&fakeReactionReader{},
		&fakeThreadCounter{},
		&fakeVoteReader{votes: map[uuid.UUID][]entity.PollVote{
			poll.ID: {
				{PollID: poll.ID, OptionID: optionA, VoterID: viewer},
				{PollID: poll.ID, OptionID: optionA, VoterID: uuid.New()},
			},
		}},
	)

	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, &viewer)
	if err != nil {
		t.Fatalf("MapPosts failed: %v", err)
	}

	got := mapped[0].Poll
	if got == nil {
		t.Fatalf("poll not embedded")
	}
	if got.Options[0].Votes != 2 || got.Options[1].Votes != 0 {
		t.Errorf("tally = [%d %d], want [2 0]", got.Options[0].Votes, got.Options[1].Votes)
	}
	if len(got.ViewerSelectedOptions) != 1 || got.ViewerSelectedOptions[0] != optionA {
		t.Errorf("viewer selection not attached: %v", got.ViewerSelectedOptions)
	}
}

func TestMapPostsMarksSoftDeleted(t *testing.T) {
	post := entityPost(testAuthor())
	post.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	assembler := NewAssembler(&fakeReactionReader{}, &fakeThreadCounter{}, &fakeVoteReader{})
	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, nil)
	if err != nil {
		t.Fatalf("MapPosts failed: %v", err)
	}
	if !mapped[0].IsDeleted {
		t.Errorf("soft-deleted row must map to a tombstone")
	}
}

func TestMapPostsEmbedsQuoteOneLevel(t *testing.T) {
	quotedAuthor := testAuthor()
	quoted := entityPost(quotedAuthor)
	innerID := uuid.New()
	quoted.QuotedPostID = &innerID // quote-of-a-quote must not expand

	post := entityPost(testAuthor())
	post.QuotedPostID = &quoted.ID
	post.QuotedPost = &quoted

	assembler := NewAssembler(&fakeReactionReader{}, &fakeThreadCounter{}, &fakeVoteReader{})
	mapped, err := assembler.MapPosts(context.Background(), []entity.Post{post}, nil)
	if err != nil {
		t.Fatalf("MapPosts failed: %v", err)
	}

	if mapped[0].QuotedPost == nil {
		t.Fatalf("quoted post not embedded")
	}
	if mapped[0].QuotedPost.QuotedPost != nil {
		t.Errorf("quote embedding must stop at one level")
	}
}
