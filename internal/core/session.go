// internal/core/session.go
package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bethropolis/provtrace/internal/core/change"
	"github.com/bethropolis/provtrace/internal/core/cursor"
	"github.com/bethropolis/provtrace/internal/core/policy"
	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/types"
)

// Reverter restores the document to a previous state. Implementations must
// apply the restore with provenance.SourceSilent so it does not come back
// through the gate, and must finish before Revert returns.
type Reverter interface {
	Revert(previous delta.Delta) error
}

// Suggester starts fetching a generated suggestion. The fetch itself happens
// outside this package.
type Suggester interface {
	RequestSuggestion()
}

// ReverterFunc adapts a function to a Reverter.
type ReverterFunc func(previous delta.Delta) error

func (f ReverterFunc) Revert(previous delta.Delta) error { return f(previous) }

// SuggesterFunc adapts a function to a Suggester.
type SuggesterFunc func()

func (f SuggesterFunc) RequestSuggestion() { f() }

// Session is the provenance context of one editor instance. It owns the
// cursor state and the edit policy of that editor and writes classified
// records to its sink.
//
// A Session handles one notification at a time and is not safe for
// concurrent use. Editors running side by side need a Session each.
type Session struct {
	id        string
	sink      event.Sink
	tracker   *cursor.Tracker
	gate      *policy.Gate
	reverter  Reverter
	suggester Suggester
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithMode sets the edit policy mode.
func WithMode(mode policy.Mode) Option {
	return func(s *Session) { s.gate = policy.NewGate(mode) }
}

// WithReverter sets who restores the document after a rejected edit.
func WithReverter(r Reverter) Option {
	return func(s *Session) { s.reverter = r }
}

// WithSuggester sets who fetches suggestions.
func WithSuggester(sg Suggester) Option {
	return func(s *Session) { s.suggester = sg }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID sets the session identifier instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithInitialCursor places the caret before the first selection event.
func WithInitialCursor(index int) Option {
	return func(s *Session) { s.tracker.Reset(index) }
}

// NewSession creates a session writing to sink. Without options the gate is
// unrestricted, the caret starts at 0 and rejected edits are not reverted.
func NewSession(sink event.Sink, opts ...Option) *Session {
	s := &Session{
		sink:    sink,
		tracker: cursor.NewTracker(0),
		gate:    policy.NewGate(policy.Unrestricted),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	logger.InfoTagf("session", "Session %s started in %v mode", s.id, s.gate.Mode())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the edit policy mode.
func (s *Session) Mode() policy.Mode { return s.gate.Mode() }

// SetMode switches the edit policy mode.
func (s *Session) SetMode(mode policy.Mode) { s.gate.SetMode(mode) }

// CursorIndex returns the last recorded caret index.
func (s *Session) CursorIndex() int { return s.tracker.PreviousIndex() }

// OnMutation handles a content change notification. d is the change,
// previous the whole document before it, and tag the raw source.
//
// Internal changes are ignored. Accepted changes are recorded. A change the
// gate rejects with RejectAndRevert is not recorded and previous is handed
// to the Reverter before OnMutation returns. The returned error reports a
// sink or revert failure; the decision is valid either way.
func (s *Session) OnMutation(d delta.Delta, previous delta.Delta, tag provenance.Source) (policy.Decision, error) {
	actor := s.resolve(tag)
	if actor == provenance.Internal {
		return policy.Reject, nil
	}

	kind := change.Classify(d)
	decision := s.gate.Admit(actor, kind, d)
	switch decision {
	case policy.Accept:
		return decision, s.append(event.NewTextRecord(kind, actor, s.now(), d))
	case policy.RejectAndRevert:
		if s.reverter == nil {
			logger.WarnTagf("session", "Session %s: rejected %v but no reverter is set", s.id, kind)
			return decision, nil
		}
		if err := s.reverter.Revert(previous); err != nil {
			logger.Errorf("Session %s: revert failed: %v", s.id, err)
			return decision, fmt.Errorf("revert rejected %v: %w", kind, err)
		}
		logger.DebugTagf("session", "Session %s: reverted rejected %v", s.id, kind)
	}
	return decision, nil
}

// OnSelectionChange handles a selection notification. A nil r means focus
// left the editor and is ignored, as are internal selections; neither
// updates the cursor state. A malformed r returns an error wrapping
// cursor.ErrMalformedSelection and records nothing. previous is not used:
// surfaces report it unreliably, so the session compares against its own
// cursor state.
func (s *Session) OnSelectionChange(r *types.Range, previous *types.Range, tag provenance.Source) error {
	if r == nil {
		return nil
	}
	actor := s.resolve(tag)
	if actor == provenance.Internal {
		return nil
	}

	kind, err := s.tracker.Classify(*r)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.id, err)
	}
	return s.append(event.NewCursorRecord(kind, actor, s.now(), *r))
}

// NotifySuggestionTrigger records a human request for a suggestion and then
// asks the Suggester to fetch one.
func (s *Session) NotifySuggestionTrigger() error {
	err := s.append(event.NewSuggestionRecord(provenance.Human, s.now()))
	if s.suggester != nil {
		s.suggester.RequestSuggestion()
	}
	return err
}

func (s *Session) resolve(tag provenance.Source) provenance.Actor {
	if !provenance.Known(tag) {
		logger.WarnTagf("session", "Session %s: unrecognised source %q treated as internal", s.id, tag)
	}
	return provenance.Resolve(tag)
}

func (s *Session) append(r event.Record) error {
	if err := s.sink.Append(r); err != nil {
		logger.Errorf("Session %s: failed to record %v: %v", s.id, r.Kind(), err)
		return fmt.Errorf("record %v: %w", r.Kind(), err)
	}
	return nil
}
