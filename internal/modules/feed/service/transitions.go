package service

import (
	"driftline.app/backend/internal/entity"
	"driftline.app/backend/pkg/dto"
)

// Reaction state per (post, viewer) is exactly one of: none, liked,
// disliked. The transition helpers below adjust the local counts and
// MyReaction together so no intermediate state is ever observable.

// toggleReaction flips the viewer's reaction of the given type on a copy
// of the post: reacting again removes it, switching from the opposite
// type moves both counts in the same step.
func toggleReaction(post dto.Post, reactionType string) dto.Post {
	current := ""
	if post.MyReaction != nil {
		current = *post.MyReaction
	}

	switch {
	case current == reactionType:
		post.MyReaction = nil
		bump(&post, reactionType, -1)
	case current == "":
		r := reactionType
		post.MyReaction = &r
		bump(&post, reactionType, 1)
	default:
		r := reactionType
		post.MyReaction = &r
		bump(&post, current, -1)
		bump(&post, reactionType, 1)
	}
	return post
}

// tombstone marks the post deleted in place of removing it, so the
// subtree under it keeps its position.
func tombstone(post dto.Post) dto.Post {
	post.IsDeleted = true
	return post
}

func bump(post *dto.Post, reactionType string, delta int) {
	switch reactionType {
	case entity.ReactionLike:
		post.LikeCount += delta
		if post.LikeCount < 0 {
			post.LikeCount = 0
		}
	case entity.ReactionDislike:
		post.DislikeCount += delta
		if post.DislikeCount < 0 {
			post.DislikeCount = 0
		}
	}
}
