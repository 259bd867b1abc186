package delta

import (
	"errors"
	"fmt"
)

// ErrApply reports a delta that retains or deletes past the end of the
// document it is applied to.
var ErrApply = errors.New("delta does not fit document")

// Walk visits the operations of d against a document of docLen units.
// retain and del receive the document offset the op starts at; insert
// receives the offset in the new document. Units left after the last op are
// retained implicitly and are not reported.
func (d Delta) Walk(docLen int, retain func(at, n int, attrs Attributes), insert func(at int, op Op), del func(at, n int)) error {
	if err := d.Validate(); err != nil {
		return err
	}
	src, dst := 0, 0
	for i, op := range d.ops {
		switch op.kind {
		case OpRetain:
			if src+op.length > docLen {
				return fmt.Errorf("%w: op %d retains %d at %d of %d", ErrApply, i, op.length, src, docLen)
			}
			if retain != nil {
				retain(src, op.length, op.attrs)
			}
			src += op.length
			dst += op.length
		case OpInsert:
			if insert != nil {
				insert(dst, op)
			}
			dst += op.Len()
		case OpDelete:
			if src+op.length > docLen {
				return fmt.Errorf("%w: op %d deletes %d at %d of %d", ErrApply, i, op.length, src, docLen)
			}
			if del != nil {
				del(src, op.length)
			}
			src += op.length
		}
	}
	return nil
}

// ApplyText applies d to plain text and returns the new text. Embeds become
// EmbedRune and formatting is dropped.
func (d Delta) ApplyText(text string) (string, error) {
	doc := []rune(text)
	out := make([]rune, 0, len(doc))
	src := 0
	err := d.Walk(len(doc),
		func(at, n int, _ Attributes) {
			out = append(out, doc[at:at+n]...)
			src = at + n
		},
		func(_ int, op Op) {
			out = append(out, []rune(op.Content())...)
		},
		func(at, n int) {
			src = at + n
		},
	)
	if err != nil {
		return "", err
	}
	out = append(out, doc[src:]...)
	return string(out), nil
}
