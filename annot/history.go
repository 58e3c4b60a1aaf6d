package annot

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// restorer is implemented by every object whose fields are recorded in History
type restorer interface {
	restore(field StateField, value any)
}

// change is one field transition of one object. Values are immutable snapshots:
// objects never mutate a slice or map after handing it to a change.
type change struct {
	target restorer
	field  StateField
	before any
	after  any
}

// HistoryEntry is one undoable unit
type HistoryEntry struct {
	ID        uuid.UUID
	Action    HistoryAction
	ClientIDs []int
	Frame     int
	changes   []change
}

func (e *HistoryEntry) undo() {
	for i := len(e.changes) - 1; i >= 0; i-- {
		c := e.changes[i]
		c.target.restore(c.field, c.before)
	}
}

func (e *HistoryEntry) redo() {
	for _, c := range e.changes {
		c.target.restore(c.field, c.after)
	}
}

func (e *HistoryEntry) merge(clientIDs []int, changes []change) {
	for _, id := range clientIDs {
		found := false
		for _, existing := range e.ClientIDs {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			e.ClientIDs = append(e.ClientIDs, id)
		}
	}
	e.changes = append(e.changes, changes...)
}

// HistoryState lists recorded actions, oldest first
type HistoryState struct {
	Undo []HistoryEntry
	Redo []HistoryEntry
}

// History is the undo/redo ledger of one job
type History struct {
	undoStack []*HistoryEntry
	redoStack []*HistoryEntry
	// frozen > 0 collects changes into pending instead of recording entries
	frozen  int
	pending *HistoryEntry
	logger  zerolog.Logger
}

// NewHistory creates empty ledger
func NewHistory(logger zerolog.Logger) *History {
	return &History{
		undoStack: make([]*HistoryEntry, 0, 64),
		redoStack: make([]*HistoryEntry, 0, 64),
		logger:    logger,
	}
}

// do records already applied changes. While frozen the changes join the pending group.
func (h *History) do(action HistoryAction, clientIDs []int, frame int, changes ...change) {
	if len(changes) == 0 {
		return
	}
	if h.frozen > 0 {
		if h.pending == nil {
			h.pending = &HistoryEntry{
				ID:     uuid.New(),
				Action: action,
				Frame:  frame,
			}
		}
		h.pending.merge(clientIDs, changes)
		return
	}
	entry := &HistoryEntry{
		ID:     uuid.New(),
		Action: action,
		Frame:  frame,
	}
	entry.merge(clientIDs, changes)
	h.push(entry)
}

func (h *History) push(entry *HistoryEntry) {
	h.undoStack = append(h.undoStack, entry)
	h.redoStack = h.redoStack[:0]
}

// Freeze(true) opens a group, Freeze(false) closes it. Groups nest; the outermost close
// records everything done inside as a single entry.
func (h *History) Freeze(frozen bool) {
	if frozen {
		h.frozen++
		return
	}
	if h.frozen == 0 {
		return
	}
	h.frozen--
	if h.frozen == 0 && h.pending != nil {
		entry := h.pending
		h.pending = nil
		h.push(entry)
	}
}

// Frozen reports whether a group is open
func (h *History) Frozen() bool {
	return h.frozen > 0
}

// Batch runs fn inside a frozen group recorded as action. The group is committed even when fn
// fails, so whatever fn managed to apply stays undoable as one unit.
func (h *History) Batch(action HistoryAction, clientIDs []int, frame int, fn func() error) error {
	h.Freeze(true)
	if h.frozen == 1 && h.pending == nil {
		h.pending = &HistoryEntry{
			ID:        uuid.New(),
			Action:    action,
			ClientIDs: append([]int(nil), clientIDs...),
			Frame:     frame,
		}
	}
	err := fn()
	if h.frozen == 1 && h.pending != nil && len(h.pending.changes) == 0 {
		h.pending = nil
	}
	h.Freeze(false)
	return errors.Wrapf(err, "batch %q", action)
}

// Undo reverts up to count latest entries and returns them, latest first
func (h *History) Undo(count int) []HistoryEntry {
	undone := make([]HistoryEntry, 0, count)
	for i := 0; i < count && len(h.undoStack) > 0; i++ {
		entry := h.undoStack[len(h.undoStack)-1]
		h.undoStack = h.undoStack[:len(h.undoStack)-1]
		entry.undo()
		h.redoStack = append(h.redoStack, entry)
		undone = append(undone, *entry)
		h.logger.Debug().Str("action", string(entry.Action)).Ints("client_ids", entry.ClientIDs).Int("frame", entry.Frame).Msg("undo")
	}
	return undone
}

// Redo re-applies up to count latest undone entries and returns them
func (h *History) Redo(count int) []HistoryEntry {
	redone := make([]HistoryEntry, 0, count)
	for i := 0; i < count && len(h.redoStack) > 0; i++ {
		entry := h.redoStack[len(h.redoStack)-1]
		h.redoStack = h.redoStack[:len(h.redoStack)-1]
		entry.redo()
		h.undoStack = append(h.undoStack, entry)
		redone = append(redone, *entry)
		h.logger.Debug().Str("action", string(entry.Action)).Ints("client_ids", entry.ClientIDs).Int("frame", entry.Frame).Msg("redo")
	}
	return redone
}

// Clear drops both stacks and any open group
func (h *History) Clear() {
	h.undoStack = h.undoStack[:0]
	h.redoStack = h.redoStack[:0]
	h.pending = nil
	h.frozen = 0
}

// Get returns copies of recorded entries
func (h *History) Get() HistoryState {
	state := HistoryState{
		Undo: make([]HistoryEntry, 0, len(h.undoStack)),
		Redo: make([]HistoryEntry, 0, len(h.redoStack)),
	}
	for _, entry := range h.undoStack {
		state.Undo = append(state.Undo, *entry)
	}
	for _, entry := range h.redoStack {
		state.Redo = append(state.Redo, *entry)
	}
	return state
}
