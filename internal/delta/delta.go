// Package delta models a document mutation as an ordered list of retain,
// insert and delete operations, in the shape used by Quill-style rich-text
// editors.
//
// The operation kind is fixed when an Op is constructed. Deltas and Ops are
// values: every constructor deep-copies its inputs and every accessor
// returns a deep copy, so a Delta handed to a sink can not change
// afterwards. Nested values other than maps and slices of the JSON shapes
// are shared.
package delta

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMalformedOp reports an operation that is not exactly one of
// retain, insert or delete, or that carries a negative length.
var ErrMalformedOp = errors.New("malformed delta operation")

// EmbedRune stands in for an embedded object when a delta is rendered as
// plain text. An embed always has length 1.
const EmbedRune = '\uFFFC'

// OpKind identifies the variant of an Op.
type OpKind int

const (
	OpInvalid OpKind = iota
	OpRetain
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpRetain:
		return "retain"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "invalid"
	}
}

// Attributes is a formatting diff attached to a retain or insert.
type Attributes map[string]any

func (a Attributes) clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	return Attributes(cloneMap(a))
}

// cloneMap copies m together with the maps and slices nested in it, the
// shapes JSON decoding produces.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case Attributes:
		return Attributes(cloneMap(v))
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Op is a single delta operation.
type Op struct {
	kind   OpKind
	length int            // retain and delete
	text   string         // text insert
	embed  map[string]any // embed insert
	attrs  Attributes
}

// Retain keeps n units, optionally applying a formatting diff.
func Retain(n int, attrs Attributes) Op {
	return Op{kind: OpRetain, length: n, attrs: attrs.clone()}
}

// Insert inserts text.
func Insert(text string, attrs Attributes) Op {
	return Op{kind: OpInsert, text: text, attrs: attrs.clone()}
}

// InsertEmbed inserts an embedded object such as {"image": "..."}.
func InsertEmbed(embed map[string]any, attrs Attributes) Op {
	return Op{kind: OpInsert, embed: cloneMap(embed), attrs: attrs.clone()}
}

// Delete removes n units.
func Delete(n int) Op {
	return Op{kind: OpDelete, length: n}
}

func (o Op) Kind() OpKind { return o.kind }

// IsEmbed reports whether the op inserts an embedded object.
func (o Op) IsEmbed() bool { return o.kind == OpInsert && o.embed != nil }

// Text returns the inserted text; empty for embeds and non-inserts.
func (o Op) Text() string { return o.text }

// Embed returns a copy of the embedded object, or nil.
func (o Op) Embed() map[string]any {
	if o.embed == nil {
		return nil
	}
	return cloneMap(o.embed)
}

// Attributes returns a copy of the formatting diff.
func (o Op) Attributes() Attributes { return o.attrs.clone() }

// Len is the number of document units the op covers. Text is measured in
// code points and an embed counts as one unit.
func (o Op) Len() int {
	switch o.kind {
	case OpInsert:
		if o.embed != nil {
			return 1
		}
		return utf8.RuneCountInString(o.text)
	case OpRetain, OpDelete:
		return o.length
	}
	return 0
}

// Content returns the inserted units as plain text, with EmbedRune for an
// embed.
func (o Op) Content() string {
	if o.IsEmbed() {
		return string(EmbedRune)
	}
	return o.text
}

func (o Op) validate() error {
	switch o.kind {
	case OpRetain, OpDelete:
		if o.length < 0 {
			return fmt.Errorf("%w: %s with negative length %d", ErrMalformedOp, o.kind, o.length)
		}
	case OpInsert:
	default:
		return fmt.Errorf("%w: no operation kind", ErrMalformedOp)
	}
	return nil
}

func (o Op) String() string {
	switch o.kind {
	case OpInsert:
		if o.embed != nil {
			return fmt.Sprintf("insert(embed %v)", o.embed)
		}
		return fmt.Sprintf("insert(%q)", o.text)
	case OpRetain, OpDelete:
		return fmt.Sprintf("%s(%d)", o.kind, o.length)
	}
	return "invalid"
}

// Delta is an immutable ordered list of operations.
type Delta struct {
	ops []Op
}

// New builds a Delta from ops.
func New(ops ...Op) Delta {
	if len(ops) == 0 {
		return Delta{}
	}
	cp := make([]Op, len(ops))
	copy(cp, ops)
	return Delta{ops: cp}
}

// FromText returns the document delta for text.
func FromText(text string) Delta {
	if text == "" {
		return Delta{}
	}
	return New(Insert(text, nil))
}

func (d Delta) with(op Op) Delta {
	ops := make([]Op, len(d.ops), len(d.ops)+1)
	copy(ops, d.ops)
	return Delta{ops: append(ops, op)}
}

// Retain returns a copy of d with a retain appended.
func (d Delta) Retain(n int, attrs Attributes) Delta { return d.with(Retain(n, attrs)) }

// Insert returns a copy of d with a text insert appended.
func (d Delta) Insert(text string, attrs Attributes) Delta { return d.with(Insert(text, attrs)) }

// InsertEmbed returns a copy of d with an embed insert appended.
func (d Delta) InsertEmbed(embed map[string]any, attrs Attributes) Delta {
	return d.with(InsertEmbed(embed, attrs))
}

// Delete returns a copy of d with a delete appended.
func (d Delta) Delete(n int) Delta { return d.with(Delete(n)) }

// Ops returns a copy of the operations.
func (d Delta) Ops() []Op {
	if len(d.ops) == 0 {
		return nil
	}
	cp := make([]Op, len(d.ops))
	copy(cp, d.ops)
	return cp
}

// Len is the number of operations.
func (d Delta) Len() int { return len(d.ops) }

// Empty reports whether the delta has no operations.
func (d Delta) Empty() bool { return len(d.ops) == 0 }

// Has reports whether any operation is of kind k.
func (d Delta) Has(k OpKind) bool {
	for _, op := range d.ops {
		if op.kind == k {
			return true
		}
	}
	return false
}

// Inserts returns the insert operations in order.
func (d Delta) Inserts() []Op {
	var out []Op
	for _, op := range d.ops {
		if op.kind == OpInsert {
			out = append(out, op)
		}
	}
	return out
}

// Text concatenates the content of every insert. For a document delta
// (inserts only) this is the document text.
func (d Delta) Text() string {
	var n int
	for _, op := range d.ops {
		if op.kind == OpInsert {
			n += len(op.Content())
		}
	}
	buf := make([]byte, 0, n)
	for _, op := range d.ops {
		if op.kind == OpInsert {
			buf = append(buf, op.Content()...)
		}
	}
	return string(buf)
}

// Validate checks every operation.
func (d Delta) Validate() error {
	for i, op := range d.ops {
		if err := op.validate(); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}

// Equal reports whether two deltas have the same operations. Attribute
// values are compared with fmt formatting, which is enough for the scalar
// values formatting diffs carry.
func (d Delta) Equal(other Delta) bool {
	if len(d.ops) != len(other.ops) {
		return false
	}
	for i := range d.ops {
		a, b := d.ops[i], other.ops[i]
		if a.kind != b.kind || a.length != b.length || a.text != b.text || a.IsEmbed() != b.IsEmbed() {
			return false
		}
		if fmt.Sprint(a.embed) != fmt.Sprint(b.embed) || fmt.Sprint(a.attrs) != fmt.Sprint(b.attrs) {
			return false
		}
	}
	return true
}

func (d Delta) String() string {
	return fmt.Sprint(d.ops)
}
