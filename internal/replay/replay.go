// internal/replay/replay.go
package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/bethropolis/provtrace/internal/core"
	"github.com/bethropolis/provtrace/internal/core/cursor"
	"github.com/bethropolis/provtrace/internal/core/policy"
	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/surface"
	"github.com/bethropolis/provtrace/internal/types"
)

// Result summarises a replay.
type Result struct {
	SessionID string
	Processed int
	Rejected  int // human edits the gate dropped, reverted or not
	Malformed int // selections rejected as malformed
	Errors    []error
}

// Err joins the collected errors.
func (r Result) Err() error { return errors.Join(r.Errors...) }

// Player feeds notifications one at a time into a session whose clock
// follows the notification timestamps.
type Player struct {
	session *core.Session
	now     time.Time
	res     Result

	initial string
	seeded  bool
}

// NewPlayer creates a fresh session writing to sink.
func NewPlayer(sink event.Sink, opts ...core.Option) *Player {
	p := &Player{}
	opts = append(opts, core.WithClock(func() time.Time { return p.now }))
	p.session = core.NewSession(sink, opts...)
	p.res.SessionID = p.session.ID()
	return p
}

// Session returns the session being fed.
func (p *Player) Session() *core.Session { return p.session }

// Play delivers n. A failure is also collected in the result.
func (p *Player) Play(n Notification) error {
	p.now = time.UnixMilli(n.Timestamp)
	if !p.seeded && n.Type == TypeMutation && n.OldDelta != nil {
		p.initial, p.seeded = n.OldDelta.Text(), true
	}
	i := p.res.Processed
	p.res.Processed++
	err := play(p.session, n, &p.res)
	if err == nil {
		return nil
	}
	if errors.Is(err, cursor.ErrMalformedSelection) {
		p.res.Malformed++
	}
	err = fmt.Errorf("notification %d: %w", i, err)
	p.res.Errors = append(p.res.Errors, err)
	return err
}

// Initial returns the document before the first mutation played so far,
// or "" before any.
func (p *Player) Initial() string { return p.initial }

// Result returns the summary so far.
func (p *Player) Result() Result {
	res := p.res
	res.Errors = append([]error(nil), p.res.Errors...)
	return res
}

// Run plays notes into a fresh session writing to sink. The same script
// always produces the same records. Failing notifications are collected in
// the result and playback continues.
func Run(sink event.Sink, notes []Notification, opts ...core.Option) Result {
	p := NewPlayer(sink, opts...)
	for _, n := range notes {
		_ = p.Play(n)
	}
	res := p.Result()
	logger.InfoTagf("replay", "Replayed %d notifications into session %s (%d rejected, %d errors)",
		res.Processed, res.SessionID, res.Rejected, len(res.Errors))
	return res
}

// InitialText returns the document the script starts from: the previous
// contents of its first mutation, or "" when that is not given.
func InitialText(notes []Notification) string {
	for _, n := range notes {
		if n.Type != TypeMutation {
			continue
		}
		if n.OldDelta == nil {
			return ""
		}
		return n.OldDelta.Text()
	}
	return ""
}

func play(s *core.Session, n Notification, res *Result) error {
	switch n.Type {
	case TypeMutation:
		if n.Delta == nil {
			return errors.New("mutation without delta")
		}
		previous := delta.New()
		if n.OldDelta != nil {
			previous = *n.OldDelta
		}
		decision, err := s.OnMutation(*n.Delta, previous, n.Source)
		if decision != policy.Accept && provenance.Resolve(n.Source) != provenance.Internal {
			res.Rejected++
		}
		return err
	case TypeSelection:
		return s.OnSelectionChange(n.Range, n.OldRange, n.Source)
	case TypeSuggestion:
		return s.NotifySuggestionTrigger()
	}
	return fmt.Errorf("unknown notification type %q", n.Type)
}

// Recorder sits between a surface and its listener and keeps every
// notification it forwards.
type Recorder struct {
	next  surface.Listener
	clock func() time.Time
	last  time.Time
	notes []Notification
}

// NewRecorder forwards to next. clock stamps each notification; nil means
// time.Now.
func NewRecorder(next surface.Listener, clock func() time.Time) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{next: next, clock: clock}
}

// SetNext replaces the listener notifications are forwarded to.
func (r *Recorder) SetNext(next surface.Listener) { r.next = next }

// Now returns the timestamp of the notification being forwarded. Passing
// it to core.WithClock gives the live session the timestamps a replay of
// the recording will use.
func (r *Recorder) Now() time.Time { return r.last }

// Notifications returns what was recorded so far.
func (r *Recorder) Notifications() []Notification {
	return append([]Notification(nil), r.notes...)
}

func (r *Recorder) stamp(n Notification) {
	r.last = time.UnixMilli(r.clock().UnixMilli())
	n.Timestamp = r.last.UnixMilli()
	r.notes = append(r.notes, n)
}

func (r *Recorder) OnMutation(d delta.Delta, previous delta.Delta, tag provenance.Source) (policy.Decision, error) {
	r.stamp(Notification{Type: TypeMutation, Source: tag, Delta: &d, OldDelta: &previous})
	if r.next == nil {
		return policy.Accept, nil
	}
	return r.next.OnMutation(d, previous, tag)
}

func (r *Recorder) OnSelectionChange(rng *types.Range, previous *types.Range, tag provenance.Source) error {
	n := Notification{Type: TypeSelection, Source: tag}
	if rng != nil {
		cp := *rng
		n.Range = &cp
	}
	if previous != nil {
		cp := *previous
		n.OldRange = &cp
	}
	r.stamp(n)
	if r.next == nil {
		return nil
	}
	return r.next.OnSelectionChange(rng, previous, tag)
}

func (r *Recorder) NotifySuggestionTrigger() error {
	r.stamp(Notification{Type: TypeSuggestion, Source: provenance.SourceUser})
	if r.next == nil {
		return nil
	}
	return r.next.NotifySuggestionTrigger()
}

var _ surface.Listener = (*Recorder)(nil)
