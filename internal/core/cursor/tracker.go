// Package cursor classifies selection changes by comparing them with the
// last known caret position.
package cursor

import (
	"errors"
	"fmt"

	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/types"
)

// ErrMalformedSelection is returned for a range with a negative index or
// length. The editing surface broke its contract; nothing is recorded.
var ErrMalformedSelection = errors.New("malformed selection")

// Tracker holds the cursor state of one editor. It is not safe for
// concurrent use; each editor instance owns its own Tracker.
type Tracker struct {
	previousIndex int
}

// NewTracker creates a tracker with the caret at index.
func NewTracker(index int) *Tracker {
	t := &Tracker{}
	t.Reset(index)
	return t
}

// PreviousIndex returns the last recorded caret index.
func (t *Tracker) PreviousIndex() int {
	return t.previousIndex
}

// Reset places the caret at index without classifying a move. Negative
// indexes clamp to 0.
func (t *Tracker) Reset(index int) {
	if index < 0 {
		index = 0
	}
	t.previousIndex = index
}

// Classify returns the kind of the selection change to r and records
// r.Index as the new previous index. A selection records its start.
func (t *Tracker) Classify(r types.Range) (event.Kind, error) {
	kind, err := Direction(r, t.previousIndex)
	if err != nil {
		logger.WarnTagf("cursor", "Rejected selection %v (previous index %d)", r, t.previousIndex)
		return event.KindSkip, err
	}
	logger.DebugTagf("cursor", "Selection %v from %d: %v", r, t.previousIndex, kind)
	t.previousIndex = r.Index
	return kind, nil
}

// Direction classifies r against previousIndex without touching state.
func Direction(r types.Range, previousIndex int) (event.Kind, error) {
	switch {
	case !r.Valid():
		return event.KindSkip, fmt.Errorf("%w: %v", ErrMalformedSelection, r)
	case r.Length > 0:
		return event.KindCursorSelect, nil
	case r.Index > previousIndex:
		return event.KindCursorForward, nil
	case r.Index < previousIndex:
		return event.KindCursorBackward, nil
	default:
		return event.KindCursorDeselect, nil
	}
}
