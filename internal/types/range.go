// internal/types/range.go
package types

import "fmt"

// Range is a cursor or selection in document units.
// Index is the 0-based start; Length is the number of selected units
// (0 for a caret).
type Range struct {
	Index  int `json:"index"`
	Length int `json:"length"`
}

// Caret returns a zero-length range at index.
func Caret(index int) Range {
	return Range{Index: index}
}

// Valid reports whether both index and length are non-negative.
func (r Range) Valid() bool {
	return r.Index >= 0 && r.Length >= 0
}

// End returns the index just past the selection.
func (r Range) End() int {
	return r.Index + r.Length
}

func (r Range) String() string {
	return fmt.Sprintf("{index:%d length:%d}", r.Index, r.Length)
}
