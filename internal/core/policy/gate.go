// Package policy decides which incoming edits may change the document.
package policy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/provenance"
)

// Mode is the operating mode of a Gate.
type Mode int

const (
	// Unrestricted admits everything; the gate only logs.
	Unrestricted Mode = iota
	// MachineOnly admits programmatic edits, human deletions and human
	// whitespace insertions.
	MachineOnly
)

func (m Mode) String() string {
	switch m {
	case MachineOnly:
		return "machine-only"
	default:
		return "unrestricted"
	}
}

// ParseMode reads a mode name as written in configuration.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unrestricted":
		return Unrestricted, nil
	case "machine-only", "machine_only", "machineonly":
		return MachineOnly, nil
	}
	return Unrestricted, fmt.Errorf("unknown mode %q (want unrestricted or machine-only)", name)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Decision is the outcome of Admit.
type Decision int

const (
	// Accept lets the change stand and records it.
	Accept Decision = iota
	// Reject drops the change silently. Nothing is recorded and nothing
	// needs restoring.
	Reject
	// RejectAndRevert drops the change and requires the caller to restore
	// the pre-mutation document with internal provenance.
	RejectAndRevert
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case RejectAndRevert:
		return "reject-and-revert"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Gate enforces the edit policy of one editor. The zero value is an
// unrestricted gate.
type Gate struct {
	mode Mode
}

// NewGate creates a gate in mode.
func NewGate(mode Mode) *Gate {
	return &Gate{mode: mode}
}

// Mode returns the operating mode.
func (g *Gate) Mode() Mode { return g.mode }

// SetMode switches the operating mode.
func (g *Gate) SetMode(mode Mode) {
	logger.InfoTagf("policy", "Edit policy mode %v -> %v", g.mode, mode)
	g.mode = mode
}

// Admit decides whether a classified mutation may stand.
func (g *Gate) Admit(actor provenance.Actor, kind event.Kind, d delta.Delta) Decision {
	if g.mode == Unrestricted {
		return Accept
	}

	switch {
	case actor == provenance.Programmatic:
		return Accept
	case actor == provenance.Human && kind == event.KindTextDelete:
		// Human deletions always pass in machine-only mode.
		return Accept
	case actor == provenance.Human && kind == event.KindTextInsert:
		if WhitespaceOnly(d) {
			return Accept
		}
		logger.DebugTagf("policy", "Human insertion rejected in %v mode", g.mode)
		return RejectAndRevert
	default:
		logger.DebugTagf("policy", "Ignoring %v from %v in %v mode", kind, actor, g.mode)
		return Reject
	}
}

// WhitespaceOnly reports whether every inserted unit of d is whitespace.
// Units are grapheme clusters, so a space carrying a combining mark is not
// whitespace. Embeds never are. A delta without inserts is vacuously
// whitespace-only.
func WhitespaceOnly(d delta.Delta) bool {
	for _, op := range d.Inserts() {
		if op.IsEmbed() {
			return false
		}
		gr := uniseg.NewGraphemes(op.Text())
		for gr.Next() {
			for _, r := range gr.Runes() {
				if !isSpace(r) {
					return false
				}
			}
		}
	}
	return true
}

// isSpace matches the whitespace set browsers trim: Unicode White_Space
// plus the byte order mark U+FEFF, minus NEL U+0085.
func isSpace(r rune) bool {
	switch r {
	case '\uFEFF':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}
