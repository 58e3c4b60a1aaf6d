package annot

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// counterObject is a minimal restorer keeping one integer
type counterObject struct {
	value int
}

func (c *counterObject) restore(field StateField, value any) {
	c.value = value.(int)
}

func setValue(h *History, object *counterObject, value int) {
	h.do(ActionChangedZOrder, []int{1}, 0, change{target: object, field: FieldZOrder, before: object.value, after: value})
	object.value = value
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	object := &counterObject{}
	setValue(h, object, 1)
	setValue(h, object, 2)
	setValue(h, object, 3)

	undone := h.Undo(2)
	if len(undone) != 2 {
		t.Fatalf("Expected 2 undone entries, got %d", len(undone))
	}
	if object.value != 1 {
		t.Errorf("Expected value 1 after undo, got %d", object.value)
	}
	h.Redo(1)
	if object.value != 2 {
		t.Errorf("Expected value 2 after redo, got %d", object.value)
	}
	// Boundaries stop replay
	h.Undo(10)
	if object.value != 0 {
		t.Errorf("Expected value 0 after undoing everything, got %d", object.value)
	}
	state := h.Get()
	if len(state.Undo) != 0 || len(state.Redo) != 3 {
		t.Errorf("Expected 0 undo and 3 redo entries, got %d and %d", len(state.Undo), len(state.Redo))
	}
}

func TestHistoryDiscardsRedoTail(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	object := &counterObject{}
	setValue(h, object, 1)
	setValue(h, object, 2)
	h.Undo(1)
	setValue(h, object, 5)
	if redone := h.Redo(1); len(redone) != 0 {
		t.Errorf("Redo tail should be discarded by a new action, got %d redone entries", len(redone))
	}
	h.Undo(1)
	if object.value != 1 {
		t.Errorf("Expected value 1, got %d", object.value)
	}
}

func TestHistoryFreeze(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	objects := []*counterObject{{}, {}, {}}
	h.Freeze(true)
	for i, object := range objects {
		setValue(h, object, i+10)
	}
	if !h.Frozen() {
		t.Error("History should be frozen")
	}
	h.Freeze(false)

	state := h.Get()
	if len(state.Undo) != 1 {
		t.Fatalf("Expected exactly one grouped entry, got %d", len(state.Undo))
	}
	h.Undo(1)
	for i, object := range objects {
		if object.value != 0 {
			t.Errorf("Object %d should be restored, got %d", i, object.value)
		}
	}
	h.Redo(1)
	for i, object := range objects {
		if object.value != i+10 {
			t.Errorf("Object %d should be redone to %d, got %d", i, i+10, object.value)
		}
	}
}

func TestHistoryNestedFreeze(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	object := &counterObject{}
	h.Freeze(true)
	setValue(h, object, 1)
	h.Freeze(true)
	setValue(h, object, 2)
	h.Freeze(false)
	if len(h.Get().Undo) != 0 {
		t.Error("Inner unfreeze should not commit the group")
	}
	h.Freeze(false)
	if len(h.Get().Undo) != 1 {
		t.Errorf("Expected one entry after outer unfreeze, got %d", len(h.Get().Undo))
	}
}

func TestHistoryBatch(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	object := &counterObject{}
	err := h.Batch(ActionPropagatedObject, []int{7}, 3, func() error {
		setValue(h, object, 1)
		setValue(h, object, 2)
		return nil
	})
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}
	entries := h.Get().Undo
	if len(entries) != 1 {
		t.Fatalf("Expected one entry, got %d", len(entries))
	}
	if entries[0].Action != ActionPropagatedObject || entries[0].Frame != 3 {
		t.Errorf("Entry should keep the batch action and frame, got %q on frame %d", entries[0].Action, entries[0].Frame)
	}

	failure := errors.New("boom")
	err = h.Batch(ActionChangedPoints, []int{7}, 3, func() error {
		setValue(h, object, 5)
		return failure
	})
	if errors.Cause(err) != failure {
		t.Errorf("Batch should return the wrapped failure, got %v", err)
	}
	if len(h.Get().Undo) != 2 {
		t.Error("Changes applied before a failure should still be recorded")
	}

	if err := h.Batch(ActionChangedPoints, nil, 0, func() error { return nil }); err != nil {
		t.Fatalf("Empty batch failed: %v", err)
	}
	if len(h.Get().Undo) != 2 {
		t.Error("Empty batch should not record an entry")
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	object := &counterObject{}
	setValue(h, object, 1)
	h.Undo(1)
	setValue(h, object, 2)
	h.Clear()
	state := h.Get()
	if len(state.Undo) != 0 || len(state.Redo) != 0 {
		t.Errorf("Clear should empty both stacks, got %d and %d", len(state.Undo), len(state.Redo))
	}
}
