// internal/surface/selection.go
package surface

import "github.com/bethropolis/provtrace/internal/types"

// selection is an anchor and a caret. They are equal when nothing is
// selected.
type selection struct {
	anchor int
	caret  int
}

func caretAt(i int) selection { return selection{anchor: i, caret: i} }

// Range normalises the selection so Index is the lower end.
func (s selection) Range() types.Range {
	if s.anchor <= s.caret {
		return types.Range{Index: s.anchor, Length: s.caret - s.anchor}
	}
	return types.Range{Index: s.caret, Length: s.anchor - s.caret}
}

func (s selection) active() bool { return s.anchor != s.caret }

// extendTo moves the caret and keeps the anchor.
func (s selection) extendTo(i int) selection { return selection{anchor: s.anchor, caret: i} }

func (s selection) clamp(n int) selection {
	return selection{anchor: clamp(s.anchor, n), caret: clamp(s.caret, n)}
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
