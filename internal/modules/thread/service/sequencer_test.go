package thread

import (
	"errors"
	"testing"

	"driftline.app/backend/pkg/apperror"
	"github.com/google/uuid"
)

func TestPlanBatchSinglePostHasNoThread(t *testing.T) {
	slots, err := PlanBatch(nil, 1)
	if err != nil {
		t.Fatalf("PlanBatch returned error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].ThreadID != nil || slots[0].SequenceNumber != nil || slots[0].SelfAnchor {
		t.Fatalf("lone post must stay outside thread semantics, got %+v", slots[0])
	}
}

func TestPlanBatchNewThreadNumbersDensely(t *testing.T) {
	slots, err := PlanBatch(nil, 4)
	if err != nil {
		t.Fatalf("PlanBatch returned error: %v", err)
	}

	if !slots[0].SelfAnchor {
		t.Errorf("first post of a new thread must self-anchor")
	}
	for i, slot := range slots {
		if slot.SequenceNumber == nil || *slot.SequenceNumber != i+1 {
			t.Errorf("slot %d sequence = %v, want %d", i, slot.SequenceNumber, i+1)
		}
		if slot.ThreadID != nil {
			t.Errorf("slot %d thread id must be unresolved before the anchor exists", i)
		}
		if i > 0 && slot.SelfAnchor {
			t.Errorf("only the first post may self-anchor")
		}
	}

	// Density: sequence numbers are exactly {1..N}, no gaps or duplicates.
	seen := map[int]bool{}
	for _, slot := range slots {
		if seen[*slot.SequenceNumber] {
			t.Fatalf("duplicate sequence number %d", *slot.SequenceNumber)
		}
		seen[*slot.SequenceNumber] = true
	}
	for i := 1; i <= len(slots); i++ {
		if !seen[i] {
			t.Fatalf("missing sequence number %d", i)
		}
	}
}

func TestPlanBatchContinuation(t *testing.T) {
	anchor := uuid.New()
	slots, err := PlanBatch(&Target{ThreadID: anchor, StartSequence: 4}, 3)
	if err != nil {
		t.Fatalf("PlanBatch returned error: %v", err)
	}

	for i, slot := range slots {
		if slot.ThreadID == nil || *slot.ThreadID != anchor {
			t.Errorf("slot %d should target anchor %s, got %v", i, anchor, slot.ThreadID)
		}
		if slot.SequenceNumber == nil || *slot.SequenceNumber != 4+i {
			t.Errorf("slot %d sequence = %v, want %d", i, slot.SequenceNumber, 4+i)
		}
		if slot.SelfAnchor {
			t.Errorf("continuation never self-anchors")
		}
	}
}

func TestPlanBatchRejectsBadInput(t *testing.T) {
	if _, err := PlanBatch(nil, 0); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("empty batch should be invalid, got %v", err)
	}
	if _, err := PlanBatch(&Target{ThreadID: uuid.New(), StartSequence: 0}, 1); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("zero start sequence should be invalid, got %v", err)
	}
}
