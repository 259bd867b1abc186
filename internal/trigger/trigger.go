// internal/trigger/trigger.go
package trigger

import (
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
)

// ParseOnBackward calls fn for every backward cursor movement recorded
// through mgr. The record is not consumed, so later handlers still see it.
func ParseOnBackward(mgr *event.Manager, fn func(event.Record)) {
	mgr.Subscribe(event.KindCursorBackward, func(r event.Record) bool {
		logger.DebugTagf("trigger", "Backward cursor movement at %v, parsing", r.Timestamp())
		fn(r)
		return false
	})
}

// OnKinds calls fn for every recorded event of the given kinds. Inert kinds
// are skipped even when listed.
func OnKinds(mgr *event.Manager, fn func(event.Record), kinds ...event.Kind) {
	for _, k := range kinds {
		if k.Inert() {
			logger.WarnTagf("trigger", "Ignoring trigger on inert kind %v", k)
			continue
		}
		mgr.Subscribe(k, func(r event.Record) bool {
			fn(r)
			return false
		})
	}
}
