// internal/event/event.go
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/types"
)

// Kind identifies the kind of editing event.
type Kind int

const (
	KindSkip Kind = iota // recognised but inert change (formatting only)

	KindTextInsert
	KindTextDelete

	KindCursorForward
	KindCursorBackward
	KindCursorSelect
	KindCursorDeselect // caret placed where it already was

	KindSuggestionRequest
)

var kindNames = map[Kind]string{
	KindSkip:              "skip",
	KindTextInsert:        "text-insert",
	KindTextDelete:        "text-delete",
	KindCursorForward:     "cursor-forward",
	KindCursorBackward:    "cursor-backward",
	KindCursorSelect:      "cursor-select",
	KindCursorDeselect:    "cursor-deselect",
	KindSuggestionRequest: "suggestion-get",
}

// String returns the wire name used in event logs.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindSkip, fmt.Errorf("unknown event name %q", name)
}

// Inert reports whether downstream triggers should ignore the kind.
func (k Kind) Inert() bool {
	return k == KindSkip || k == KindCursorDeselect
}

// IsText reports whether the kind comes from a content mutation.
func (k Kind) IsText() bool {
	return k == KindTextInsert || k == KindTextDelete || k == KindSkip
}

// IsCursor reports whether the kind comes from a selection change.
func (k Kind) IsCursor() bool {
	switch k {
	case KindCursorForward, KindCursorBackward, KindCursorSelect, KindCursorDeselect:
		return true
	}
	return false
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("cannot encode event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Record is one classified editing event. At most one of Delta and Range is
// set: Delta for content mutations, Range for selection changes, neither
// for a suggestion request.
type Record struct {
	kind      Kind
	actor     provenance.Actor
	timestamp time.Time
	delta     *delta.Delta
	cursor    *types.Range
}

// NewTextRecord records a content mutation.
func NewTextRecord(kind Kind, actor provenance.Actor, at time.Time, d delta.Delta) Record {
	d = delta.New(d.Ops()...)
	return Record{kind: kind, actor: actor, timestamp: at, delta: &d}
}

// NewCursorRecord records a selection change.
func NewCursorRecord(kind Kind, actor provenance.Actor, at time.Time, r types.Range) Record {
	return Record{kind: kind, actor: actor, timestamp: at, cursor: &r}
}

// NewSuggestionRecord records a request for a generated suggestion.
func NewSuggestionRecord(actor provenance.Actor, at time.Time) Record {
	return Record{kind: KindSuggestionRequest, actor: actor, timestamp: at}
}

// Kind returns the classified event kind.
func (r Record) Kind() Kind { return r.kind }

// Actor returns who caused the event.
func (r Record) Actor() provenance.Actor { return r.actor }

// Timestamp returns when the event was recorded.
func (r Record) Timestamp() time.Time { return r.timestamp }

// Delta returns the mutation and true for content records.
func (r Record) Delta() (delta.Delta, bool) {
	if r.delta == nil {
		return delta.Delta{}, false
	}
	return *r.delta, true
}

// Range returns the cursor range and true for selection records.
func (r Record) Range() (types.Range, bool) {
	if r.cursor == nil {
		return types.Range{}, false
	}
	return *r.cursor, true
}

// Equal compares two records field by field.
func (r Record) Equal(o Record) bool {
	if r.kind != o.kind || r.actor != o.actor || !r.timestamp.Equal(o.timestamp) {
		return false
	}
	if (r.delta == nil) != (o.delta == nil) || (r.cursor == nil) != (o.cursor == nil) {
		return false
	}
	if r.delta != nil && !r.delta.Equal(*o.delta) {
		return false
	}
	return r.cursor == nil || *r.cursor == *o.cursor
}

func (r Record) String() string {
	switch {
	case r.delta != nil:
		return fmt.Sprintf("%s/%s %v", r.kind, r.actor.Tag(), *r.delta)
	case r.cursor != nil:
		return fmt.Sprintf("%s/%s %v", r.kind, r.actor.Tag(), *r.cursor)
	}
	return fmt.Sprintf("%s/%s", r.kind, r.actor.Tag())
}

// wireRecord is the serialized shape of a Record.
type wireRecord struct {
	Name      Kind             `json:"eventName"`
	Source    provenance.Actor `json:"eventSource"`
	Timestamp int64            `json:"eventTimestamp"`
	TextDelta *delta.Delta     `json:"textDelta,omitempty"`
	Range     *types.Range     `json:"cursorRange,omitempty"`
}

// MarshalJSON encodes the record; the timestamp is Unix milliseconds.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Name:      r.kind,
		Source:    r.actor,
		Timestamp: r.timestamp.UnixMilli(),
		TextDelta: r.delta,
		Range:     r.cursor,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.TextDelta != nil && w.Range != nil {
		return fmt.Errorf("event %s carries both textDelta and cursorRange", w.Name)
	}
	*r = Record{
		kind:      w.Name,
		actor:     w.Source,
		timestamp: time.UnixMilli(w.Timestamp),
		delta:     w.TextDelta,
		cursor:    w.Range,
	}
	return nil
}
