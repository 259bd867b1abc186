package surface

import (
	"sync"

	"github.com/bethropolis/provtrace/internal/logger"
)

// DefaultMaxHistory bounds the undo stack.
const DefaultMaxHistory = 100

// change is one reversible replacement: inserted replaced deleted at index.
type change struct {
	index    int
	inserted string
	deleted  string
	before   selection // selection before the change
	after    selection
}

// history is the undo/redo stack of accepted edits.
type history struct {
	mu      sync.Mutex
	changes []change
	next    int // index of the next change to redo
	max     int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &history{changes: make([]change, 0, max), max: max}
}

// record adds c and drops any redo tail.
func (h *history) record(c change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.next < len(h.changes) {
		h.changes = h.changes[:h.next]
	}
	h.changes = append(h.changes, c)
	if len(h.changes) > h.max {
		h.changes = h.changes[len(h.changes)-h.max:]
	}
	h.next = len(h.changes)
	logger.DebugTagf("history", "Recorded change at %d. Index: %d, Count: %d", c.index, h.next, len(h.changes))
}

// undo pops the last applied change.
func (h *history) undo() (change, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.next <= 0 {
		return change{}, false
	}
	h.next--
	return h.changes[h.next], true
}

// redo returns the next undone change.
func (h *history) redo() (change, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.next >= len(h.changes) {
		return change{}, false
	}
	h.next++
	return h.changes[h.next-1], true
}

// unstep moves the index back after a failed or rejected undo/redo.
func (h *history) unstep(undone bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if undone {
		h.next++
	} else {
		h.next--
	}
}

func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = h.changes[:0]
	h.next = 0
}
