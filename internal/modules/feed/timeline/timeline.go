// Package timeline reconstructs reply forests from flat post records and
// provides the pure update/lookup primitives every optimistic mutation is
// built on. Nothing here touches the store; inputs are treated as
// immutable values and every operation returns a fresh forest.
package timeline

import (
	"fmt"

	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/dto"
	"github.com/google/uuid"
)

// Post is the view-model node the forest is made of.
type Post = dto.Post

// Build selects the posts whose ParentPostID matches parentID (nil matches
// only posts with no parent) and nests each one's reply subtree under
// ChildPosts. Children keep the relative order of the input slice; callers
// sort the flat input beforehand if they need a particular order.
//
// The flat list is indexed by parent id up front, so construction is O(n).
// A cycle in the parent references fails with ErrMalformedData instead of
// recursing forever.
func Build(posts []Post, parentID *uuid.UUID) ([]Post, error) {
	if err := checkCycles(posts); err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]Post)
	for _, p := range posts {
		if p.ParentPostID == nil {
			continue
		}
		children[*p.ParentPostID] = append(children[*p.ParentPostID], p)
	}

	var attach func(p Post) Post
	attach = func(p Post) Post {
		kids := children[p.ID]
		nested := make([]Post, 0, len(kids))
		for _, child := range kids {
			nested = append(nested, attach(child))
		}
		p.ChildPosts = nested
		return p
	}

	result := []Post{}
	for _, p := range posts {
		if !parentMatches(p.ParentPostID, parentID) {
			continue
		}
		result = append(result, attach(p))
	}
	return result, nil
}

// Update applies fn to every node in the forest, parent before children,
// and replaces each node's ChildPosts with the recursively updated list.
// fn must be pure and total: it receives every post, not just the one a
// caller wants to change, and returns the post unchanged when it does not
// match. The input forest is never mutated.
func Update(forest []Post, fn func(Post) Post) []Post {
	updated := make([]Post, 0, len(forest))
	for _, p := range forest {
		node := fn(p)
		if len(node.ChildPosts) > 0 {
			node.ChildPosts = Update(node.ChildPosts, fn)
		}
		updated = append(updated, node)
	}
	return updated
}

// Find returns a copy of the first post with the given id, searching
// depth-first through nested ChildPosts, or nil if absent.
func Find(forest []Post, id uuid.UUID) *Post {
	for i := range forest {
		if forest[i].ID == id {
			p := forest[i]
			return &p
		}
		if found := Find(forest[i].ChildPosts, id); found != nil {
			return found
		}
	}
	return nil
}

func parentMatches(got, want *uuid.UUID) bool {
	if want == nil {
		return got == nil
	}
	return got != nil && *got == *want
}

// checkCycles walks every post's parent chain and fails if the chain
// revisits a post. Chains ending at an id outside the input set are
// orphans, not cycles; they are simply left out of the built forest.
func checkCycles(posts []Post) error {
	parents := make(map[uuid.UUID]*uuid.UUID, len(posts))
	for _, p := range posts {
		parents[p.ID] = p.ParentPostID
	}

	safe := make(map[uuid.UUID]bool, len(posts))
	for _, p := range posts {
		seen := map[uuid.UUID]bool{}
		id := p.ID
		for {
			if safe[id] {
				break
			}
			if seen[id] {
				return fmt.Errorf("%w: parent reference cycle involving post %s", apperror.ErrMalformedData, id)
			}
			seen[id] = true

			parent, known := parents[id]
			if !known || parent == nil {
				break
			}
			id = *parent
		}
		for visited := range seen {
			safe[visited] = true
		}
	}
	return nil
}
