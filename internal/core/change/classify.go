// Package change classifies a content mutation by the operations it carries.
package change

import (
	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
)

// Classify maps a delta to an event kind. An insert anywhere in the delta
// makes it a text insert, even alongside deletes (a replacement counts as
// an insertion). Otherwise a delete makes it a text delete, and anything
// else, including an empty delta, is a skip.
func Classify(d delta.Delta) event.Kind {
	switch {
	case d.Has(delta.OpInsert):
		return event.KindTextInsert
	case d.Has(delta.OpDelete):
		return event.KindTextDelete
	default:
		return event.KindSkip
	}
}
