package edit

import "fmt"

// DefaultDepth is the number of commands a History keeps by default.
const DefaultDepth = 50

// History is a bounded undo/redo list with a cursor. Entries before the
// cursor can be undone, entries at or after it can be redone.
type History struct {
	entries []Command
	cursor  int
	depth   int
}

// NewHistory creates a history keeping at most depth commands. A depth below
// one selects DefaultDepth.
func NewHistory(depth int) *History {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &History{depth: depth}
}

// Execute applies c and records it. The redo future is discarded and the
// oldest entry is evicted once the history is full. A rejected command is
// not recorded.
func (h *History) Execute(d *Document, c Command) error {
	if err := c.Apply(d); err != nil {
		return err
	}
	clear(h.entries[h.cursor:])
	h.entries = append(h.entries[:h.cursor], c)
	if over := len(h.entries) - h.depth; over > 0 {
		clear(h.entries[:over])
		h.entries = h.entries[over:]
	}
	h.cursor = len(h.entries)
	return nil
}

// Undo reverts the command before the cursor. It reports false and does
// nothing when there is nothing to undo.
func (h *History) Undo(d *Document) (bool, error) {
	if h.cursor == 0 {
		return false, nil
	}
	c := h.entries[h.cursor-1]
	if err := c.Undo(d); err != nil {
		return false, fmt.Errorf("edit: undo %s: %w", c.Label(), err)
	}
	h.cursor--
	return true, nil
}

// Redo re-applies the command at the cursor. It reports false and does
// nothing when there is nothing to redo.
func (h *History) Redo(d *Document) (bool, error) {
	if h.cursor == len(h.entries) {
		return false, nil
	}
	c := h.entries[h.cursor]
	if err := c.Apply(d); err != nil {
		return false, fmt.Errorf("edit: redo %s: %w", c.Label(), err)
	}
	h.cursor++
	return true, nil
}

// CanUndo reports whether there is an applied command for Undo to revert.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether there is an undone command for Redo to reapply.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// UndoLabel returns the label of the command Undo would revert.
func (h *History) UndoLabel() string {
	if !h.CanUndo() {
		return ""
	}
	return h.entries[h.cursor-1].Label()
}

// RedoLabel returns the label of the command Redo would re-apply.
func (h *History) RedoLabel() string {
	if !h.CanRedo() {
		return ""
	}
	return h.entries[h.cursor].Label()
}

// Len returns the number of recorded commands, undone ones included.
func (h *History) Len() int { return len(h.entries) }

// Depth returns the maximum number of recorded commands.
func (h *History) Depth() int { return h.depth }

// Clear forgets every recorded command.
func (h *History) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.cursor = 0
}
