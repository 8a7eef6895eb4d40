package timeline_test

import (
	"errors"
	"reflect"
	"testing"

	"driftline.app/backend/internal/modules/feed/timeline"
	"driftline.app/backend/pkg/apperror"
	"github.com/google/uuid"
)

type fixture struct {
	ids map[string]uuid.UUID
}

func newFixture() *fixture {
	return &fixture{ids: map[string]uuid.UUID{}}
}

func (f *fixture) id(name string) uuid.UUID {
	if existing, ok := f.ids[name]; ok {
		return existing
	}
	id := uuid.New()
	f.ids[name] = id
	return id
}

func (f *fixture) post(name string, parent string) timeline.Post {
	p := timeline.Post{ID: f.id(name), Content: name}
	if parent != "" {
		parentID := f.id(parent)
		p.ParentPostID = &parentID
		p.IsReply = true
	}
	return p
}

func collectIDs(forest []timeline.Post, into map[uuid.UUID]int) {
	for _, p := range forest {
		into[p.ID]++
		collectIDs(p.ChildPosts, into)
	}
}

func TestBuildNestsRepliesUnderParents(t *testing.T) {
	f := newFixture()
	posts := []timeline.Post{
		f.post("A", ""),
		f.post("B", "A"),
		f.post("C", "B"),
		f.post("D", ""),
	}

	forest, err := timeline.Build(posts, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if forest[0].ID != f.id("A") || forest[1].ID != f.id("D") {
		t.Fatalf("roots out of order: %s, %s", forest[0].Content, forest[1].Content)
	}

	a := forest[0]
	if len(a.ChildPosts) != 1 || a.ChildPosts[0].ID != f.id("B") {
		t.Fatalf("A should have exactly child B, got %+v", a.ChildPosts)
	}
	b := a.ChildPosts[0]
	if len(b.ChildPosts) != 1 || b.ChildPosts[0].ID != f.id("C") {
		t.Fatalf("B should have exactly child C, got %+v", b.ChildPosts)
	}
	if len(b.ChildPosts[0].ChildPosts) != 0 {
		t.Fatalf("C should have no children")
	}
	if len(forest[1].ChildPosts) != 0 {
		t.Fatalf("D should have no children")
	}
}

func TestBuildCompleteness(t *testing.T) {
	// Every post reachable from a root appears exactly once; orphans
	// (parent missing from the input) are dropped.
	f := newFixture()
	posts := []timeline.Post{
		f.post("root1", ""),
		f.post("r1a", "root1"),
		f.post("r1b", "root1"),
		f.post("r1a1", "r1a"),
		f.post("root2", ""),
		f.post("orphan", "missing-parent"),
	}
	// "missing-parent" id exists but no such post is in the input.

	forest, err := timeline.Build(posts, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	seen := map[uuid.UUID]int{}
	collectIDs(forest, seen)

	reachable := []string{"root1", "r1a", "r1b", "r1a1", "root2"}
	if len(seen) != len(reachable) {
		t.Fatalf("expected %d posts in forest, got %d", len(reachable), len(seen))
	}
	for _, name := range reachable {
		if seen[f.id(name)] != 1 {
			t.Errorf("post %q appears %d times, want 1", name, seen[f.id(name)])
		}
	}
	if seen[f.id("orphan")] != 0 {
		t.Errorf("orphan should not appear in the forest")
	}
}

func TestBuildNilParentIsStrict(t *testing.T) {
	f := newFixture()
	posts := []timeline.Post{
		f.post("top", ""),
		f.post("reply", "top"),
	}

	forest, err := timeline.Build(posts, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(forest) != 1 {
		t.Fatalf("nil parent must select only posts with no parent, got %d roots", len(forest))
	}

	topID := f.id("top")
	subtree, err := timeline.Build(posts, &topID)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(subtree) != 1 || subtree[0].ID != f.id("reply") {
		t.Fatalf("expected only the reply under top, got %+v", subtree)
	}
}

func TestBuildPreservesSiblingOrder(t *testing.T) {
	f := newFixture()
	posts := []timeline.Post{
		f.post("parent", ""),
		f.post("first", "parent"),
		f.post("second", "parent"),
		f.post("third", "parent"),
	}

	forest, err := timeline.Build(posts, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	got := []string{}
	for _, c := range forest[0].ChildPosts {
		got = append(got, c.Content)
	}
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sibling order = %v, want %v", got, want)
	}
}

func TestBuildRejectsParentCycle(t *testing.T) {
	f := newFixture()
	a := f.post("A", "B")
	b := f.post("B", "A")
	posts := []timeline.Post{a, b, f.post("C", "")}

	_, err := timeline.Build(posts, nil)
	if err == nil {
		t.Fatalf("expected cycle error, got nil")
	}
	if !errors.Is(err, apperror.ErrMalformedData) {
		t.Fatalf("cycle error should wrap ErrMalformedData, got %v", err)
	}
}

func TestBuildSelfParentCycle(t *testing.T) {
	f := newFixture()
	p := f.post("self", "self")
	if _, err := timeline.Build([]timeline.Post{p}, nil); !errors.Is(err, apperror.ErrMalformedData) {
		t.Fatalf("self-referencing parent should be rejected, got %v", err)
	}
}

func TestFindReturnsDeeplyNestedPost(t *testing.T) {
	f := newFixture()
	posts := []timeline.Post{
		f.post("A", ""),
		f.post("B", "A"),
		f.post("C", "B"),
		f.post("D", ""),
	}
	forest, err := timeline.Build(posts, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	found := timeline.Find(forest, f.id("C"))
	if found == nil || found.ID != f.id("C") {
		t.Fatalf("Find should locate C three levels deep, got %+v", found)
	}

	if missing := timeline.Find(forest, uuid.New()); missing != nil {
		t.Fatalf("Find of unknown id should return nil, got %+v", missing)
	}
}

func TestUpdateIsLocalToTarget(t *testing.T) {
	f := newFixture()
	posts := []timeline.Post{
		f.post("A", ""),
		f.post("B", "A"),
		f.post("C", "B"),
		f.post("D", ""),
	}
	forest, err := timeline.Build(posts, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	target := f.id("C")
	updated := timeline.Update(forest, func(p timeline.Post) timeline.Post {
		if p.ID != target {
			return p
		}
		p.LikeCount++
		return p
	})

	c := timeline.Find(updated, target)
	if c == nil || c.LikeCount != 1 {
		t.Fatalf("C like_count should be 1, got %+v", c)
	}

	for _, name := range []string{"A", "B", "D"} {
		before := timeline.Find(forest, f.id(name))
		after := timeline.Find(updated, f.id(name))
		before.ChildPosts, after.ChildPosts = nil, nil
		if !reflect.DeepEqual(before, after) {
			t.Errorf("post %q changed by unrelated update: %+v vs %+v", name, before, after)
		}
	}

	// Original forest must be untouched.
	if orig := timeline.Find(forest, target); orig.LikeCount != 0 {
		t.Fatalf("Update mutated its input forest")
	}
}

func TestUpdateVisitsEveryNode(t *testing.T) {
	f := newFixture()
	posts := []timeline.Post{
		f.post("A", ""),
		f.post("B", "A"),
		f.post("C", "B"),
		f.post("D", ""),
	}
	forest, _ := timeline.Build(posts, nil)

	visited := map[uuid.UUID]int{}
	timeline.Update(forest, func(p timeline.Post) timeline.Post {
		visited[p.ID]++
		return p
	})

	if len(visited) != len(posts) {
		t.Fatalf("update fn saw %d posts, want %d", len(visited), len(posts))
	}
	for name, id := range map[string]uuid.UUID{"A": f.id("A"), "B": f.id("B"), "C": f.id("C"), "D": f.id("D")} {
		if visited[id] != 1 {
			t.Errorf("post %q visited %d times, want 1", name, visited[id])
		}
	}
}
