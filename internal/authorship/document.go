// Package authorship rebuilds a document from logged text records and keeps
// track of which actor wrote each unit of it.
package authorship

import (
	"fmt"
	"strings"

	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/provenance"
)

// Mask characters, one per document unit.
const (
	MaskHuman        = '_'
	MaskProgrammatic = '*'
	MaskUnknown      = '.'
)

type unit struct {
	r     rune
	actor provenance.Actor
}

// Document is plain text with an author per unit. The zero value is an
// empty document.
type Document struct {
	units []unit
}

// NewDocument starts from initial text whose author is unknown.
func NewDocument(initial string) *Document {
	d := &Document{}
	for _, r := range initial {
		d.units = append(d.units, unit{r: r, actor: provenance.Internal})
	}
	return d
}

// Replay builds a document from records in log order, starting empty.
// Records without a delta are skipped.
func Replay(records []event.Record) (*Document, error) {
	return ReplayFrom("", records)
}

// ReplayFrom is Replay starting from the text the session opened with.
// That text has no known author.
func ReplayFrom(initial string, records []event.Record) (*Document, error) {
	d := NewDocument(initial)
	for i, r := range records {
		if err := d.ApplyRecord(r); err != nil {
			return d, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return d, nil
}

// ApplyRecord applies the delta of a text record, attributing inserts to
// the record's actor. Cursor and suggestion records leave the document
// unchanged.
func (d *Document) ApplyRecord(r event.Record) error {
	dl, ok := r.Delta()
	if !ok {
		return nil
	}
	return d.Apply(dl, r.Actor())
}

// Apply applies dl with inserts written by actor. On error the document is
// left unchanged.
func (d *Document) Apply(dl delta.Delta, actor provenance.Actor) error {
	out := make([]unit, 0, len(d.units))
	src := 0
	err := dl.Walk(len(d.units),
		func(at, n int, _ delta.Attributes) {
			out = append(out, d.units[at:at+n]...)
			src = at + n
		},
		func(_ int, op delta.Op) {
			for _, r := range op.Content() {
				out = append(out, unit{r: r, actor: actor})
			}
		},
		func(at, n int) {
			src = at + n
		},
	)
	if err != nil {
		return err
	}
	d.units = append(out, d.units[src:]...)
	return nil
}

// Len returns the number of units.
func (d *Document) Len() int { return len(d.units) }

// Text returns the document text.
func (d *Document) Text() string {
	var b strings.Builder
	for _, u := range d.units {
		b.WriteRune(u.r)
	}
	return b.String()
}

// Mask returns one character per unit: MaskHuman, MaskProgrammatic or
// MaskUnknown.
func (d *Document) Mask() string {
	var b strings.Builder
	for _, u := range d.units {
		switch u.actor {
		case provenance.Human:
			b.WriteRune(MaskHuman)
		case provenance.Programmatic:
			b.WriteRune(MaskProgrammatic)
		default:
			b.WriteRune(MaskUnknown)
		}
	}
	return b.String()
}

// Share returns the fraction of units written by actor, 0 for an empty
// document.
func (d *Document) Share(actor provenance.Actor) float64 {
	if len(d.units) == 0 {
		return 0
	}
	n := 0
	for _, u := range d.units {
		if u.actor == actor {
			n++
		}
	}
	return float64(n) / float64(len(d.units))
}
