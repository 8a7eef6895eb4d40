package thread

import (
	"fmt"

	"driftline.app/backend/pkg/apperror"
	"github.com/google/uuid"
)

// Target identifies an existing thread being continued: the anchor post's
// id and the sequence number the first new post should take.
type Target struct {
	ThreadID      uuid.UUID
	StartSequence int
}

// Slot is the sequencing decision for one post of a composition batch.
// ThreadID is nil only for the first post of a brand-new thread, which is
// self-anchored after insertion (SelfAnchor).
type Slot struct {
	ThreadID       *uuid.UUID
	SequenceNumber *int
	SelfAnchor     bool
}

// PlanBatch decides thread membership and sequence numbers for a batch of
// posts submitted in one composition action.
//
// A single post with no target stays outside any thread. A multi-post
// batch starts a new thread: the first post becomes its own anchor (its
// thread id is set to its own id by a follow-up update), and each post is
// numbered from 1 by batch position. Continuing an existing thread numbers
// each post startSequence + index under the target anchor.
func PlanBatch(target *Target, batchSize int) ([]Slot, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: empty post batch", apperror.ErrInvalidInput)
	}
	if target != nil && target.StartSequence < 1 {
		return nil, fmt.Errorf("%w: thread sequence starts at 1", apperror.ErrInvalidInput)
	}

	slots := make([]Slot, batchSize)

	if target != nil {
		anchor := target.ThreadID
		for i := range slots {
			seq := target.StartSequence + i
			slots[i] = Slot{ThreadID: &anchor, SequenceNumber: &seq}
		}
		return slots, nil
	}

	if batchSize == 1 {
		// Lone post, no thread semantics at all.
		return slots, nil
	}

	for i := range slots {
		seq := i + 1
		slots[i] = Slot{SequenceNumber: &seq}
	}
	slots[0].SelfAnchor = true
	return slots, nil
}
