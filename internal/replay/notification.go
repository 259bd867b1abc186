// Package replay records the notifications an editing surface sends and
// plays them back into a fresh session.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/types"
)

// Type is the kind of notification.
type Type string

const (
	TypeMutation   Type = "mutation"
	TypeSelection  Type = "selection"
	TypeSuggestion Type = "suggestion"
)

// Notification is one line of a script. Mutations carry Delta and
// OldDelta, selections Range and OldRange; a selection without Range is a
// focus loss. Timestamp is Unix milliseconds.
type Notification struct {
	Type      Type              `json:"type"`
	Source    provenance.Source `json:"source,omitempty"`
	Delta     *delta.Delta      `json:"delta,omitempty"`
	OldDelta  *delta.Delta      `json:"oldDelta,omitempty"`
	Range     *types.Range      `json:"range,omitempty"`
	OldRange  *types.Range      `json:"oldRange,omitempty"`
	Timestamp int64             `json:"ts"`
}

// Read decodes a JSONL script. Blank lines are skipped.
func Read(r io.Reader) ([]Notification, error) {
	var notes []Notification
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		n, err := Parse(raw)
		if err != nil {
			return notes, fmt.Errorf("line %d: %w", line, err)
		}
		notes = append(notes, n)
	}
	if err := scanner.Err(); err != nil {
		return notes, fmt.Errorf("read script: %w", err)
	}
	return notes, nil
}

// Parse decodes one script line.
func Parse(raw []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, err
	}
	switch n.Type {
	case TypeMutation, TypeSelection, TypeSuggestion:
		return n, nil
	}
	return Notification{}, fmt.Errorf("unknown notification type %q", n.Type)
}

// Write encodes notes as JSONL.
func Write(w io.Writer, notes []Notification) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, n := range notes {
		if err := enc.Encode(n); err != nil {
			return fmt.Errorf("notification %d: %w", i, err)
		}
	}
	return bw.Flush()
}
