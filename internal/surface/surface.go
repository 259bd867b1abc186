// Package surface is a plain-text editing surface that reports its changes
// the way a rich-text editor does: a content delta with the document before
// the change, and the selection before and after.
package surface

import (
	"fmt"
	"unicode/utf8"

	"github.com/bethropolis/provtrace/internal/buffer"
	"github.com/bethropolis/provtrace/internal/core/policy"
	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/types"
)

// Listener receives the notifications of a Surface. core.Session
// implements it.
type Listener interface {
	OnMutation(d delta.Delta, previous delta.Delta, tag provenance.Source) (policy.Decision, error)
	OnSelectionChange(r *types.Range, previous *types.Range, tag provenance.Source) error
	NotifySuggestionTrigger() error
}

// Surface holds the document text and selection. Every command applies its
// change first and then notifies the listener synchronously.
type Surface struct {
	buf      buffer.Buffer
	sel      selection
	listener Listener
	clip     Clipboard

	// selection before the mutation being reported, restored on revert
	before  selection
	focused bool

	hist      *history
	replaying bool
}

// Option configures a Surface.
type Option func(*Surface)

// WithText sets the initial document. The caret starts at its end.
func WithText(text string) Option {
	return func(s *Surface) {
		s.buf.SetText(text)
		s.sel = caretAt(s.buf.Len())
	}
}

// WithBuffer uses buf as the document store.
func WithBuffer(buf buffer.Buffer) Option {
	return func(s *Surface) {
		s.buf = buf
		s.sel = caretAt(buf.Len())
	}
}

// WithHistory bounds the undo stack to max changes.
func WithHistory(max int) Option {
	return func(s *Surface) { s.hist = newHistory(max) }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(s *Surface) { s.clip = c }
}

// New creates a focused surface. listener may be nil and set later with
// SetListener.
func New(listener Listener, opts ...Option) *Surface {
	s := &Surface{
		buf:      buffer.NewRuneBuffer(""),
		listener: listener,
		clip:     NewSystemClipboard(),
		focused:  true,
		hist:     newHistory(DefaultMaxHistory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetListener replaces the listener.
func (s *Surface) SetListener(l Listener) { s.listener = l }

// Text returns the document.
func (s *Surface) Text() string { return s.buf.Text() }

// Len returns the document length in units.
func (s *Surface) Len() int { return s.buf.Len() }

// Buffer returns the document store.
func (s *Surface) Buffer() buffer.Buffer { return s.buf }

// Selection returns the current selection.
func (s *Surface) Selection() types.Range { return s.sel.Range() }

// Caret returns the moving end of the selection.
func (s *Surface) Caret() int { return s.sel.caret }

// Focused reports whether the surface has focus.
func (s *Surface) Focused() bool { return s.focused }

// --- Human commands ---

// TypeText inserts text at the caret, replacing the selection.
func (s *Surface) TypeText(text string) error {
	if text == "" {
		return nil
	}
	r := s.sel.Range()
	return s.edit(r.Index, r.Length, text, r.Index+utf8.RuneCountInString(text), provenance.SourceUser)
}

// Backspace deletes the selection, or the unit before the caret.
func (s *Surface) Backspace() error {
	if s.sel.active() {
		return s.deleteSelection(provenance.SourceUser)
	}
	if s.sel.caret == 0 {
		return nil
	}
	at := s.sel.caret - 1
	return s.edit(at, 1, "", at, provenance.SourceUser)
}

// DeleteForward deletes the selection, or the unit after the caret.
func (s *Surface) DeleteForward() error {
	if s.sel.active() {
		return s.deleteSelection(provenance.SourceUser)
	}
	if s.sel.caret >= s.buf.Len() {
		return nil
	}
	return s.edit(s.sel.caret, 1, "", s.sel.caret, provenance.SourceUser)
}

// MoveCursor moves the caret by offset units. With extend the anchor stays
// put and the selection grows or shrinks. Without it, an active selection
// collapses.
func (s *Surface) MoveCursor(offset int, extend bool) error {
	return s.MoveTo(s.sel.caret+offset, extend)
}

// MoveTo moves the caret to index, clamped to the document.
func (s *Surface) MoveTo(index int, extend bool) error {
	index = clamp(index, s.buf.Len())
	next := caretAt(index)
	if extend {
		next = s.sel.extendTo(index)
	}
	return s.moveSelection(next, provenance.SourceUser)
}

// Select selects length units from index.
func (s *Surface) Select(index, length int) error {
	return s.moveSelection(selection{anchor: index, caret: index + length}.clamp(s.buf.Len()), provenance.SourceUser)
}

// Copy puts the selected text on the clipboard. It reports whether anything
// was selected.
func (s *Surface) Copy() (bool, error) {
	if !s.sel.active() {
		return false, nil
	}
	r := s.sel.Range()
	if err := s.clip.WriteAll(s.buf.Slice(r.Index, r.End())); err != nil {
		return false, fmt.Errorf("copy selection: %w", err)
	}
	logger.DebugTagf("surface", "Copied %d units", r.Length)
	return true, nil
}

// Paste types the clipboard content. An empty clipboard does nothing.
func (s *Surface) Paste() (bool, error) {
	text, err := s.clip.ReadAll()
	if err != nil {
		return false, fmt.Errorf("read clipboard: %w", err)
	}
	if text == "" {
		return false, nil
	}
	logger.DebugTagf("surface", "Pasting %d bytes", len(text))
	return true, s.TypeText(text)
}

// Tab is the suggestion trigger key. It does not change the document.
func (s *Surface) Tab() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.NotifySuggestionTrigger()
}

// Blur removes focus. The listener sees a selection change without a range.
func (s *Surface) Blur() error {
	if !s.focused {
		return nil
	}
	s.focused = false
	if s.listener == nil {
		return nil
	}
	prev := s.sel.Range()
	return s.listener.OnSelectionChange(nil, &prev, provenance.SourceUser)
}

// Focus gives focus back and reports the current selection.
func (s *Surface) Focus() error {
	if s.focused {
		return nil
	}
	s.focused = true
	if s.listener == nil {
		return nil
	}
	r := s.sel.Range()
	return s.listener.OnSelectionChange(&r, nil, provenance.SourceUser)
}

// Undo reverts the last accepted edit as a human change. It reports whether
// there was anything to undo and whether the listener let it through.
func (s *Surface) Undo() (bool, error) {
	c, ok := s.hist.undo()
	if !ok {
		logger.DebugTagf("history", "Nothing to undo")
		return false, nil
	}
	return s.step(c.index, utf8.RuneCountInString(c.inserted), c.deleted, c.before, true)
}

// Redo reapplies the last undone edit as a human change.
func (s *Surface) Redo() (bool, error) {
	c, ok := s.hist.redo()
	if !ok {
		logger.DebugTagf("history", "Nothing to redo")
		return false, nil
	}
	return s.step(c.index, utf8.RuneCountInString(c.deleted), c.inserted, c.after, false)
}

func (s *Surface) step(index, n int, text string, sel selection, undo bool) (bool, error) {
	s.replaying = true
	dec, err := s.apply(index, n, text, sel.caret, provenance.SourceUser)
	s.replaying = false
	if err != nil || dec != policy.Accept {
		s.hist.unstep(undo)
		return false, err
	}
	return true, s.moveSelection(sel.clamp(s.buf.Len()), provenance.SourceUser)
}

// ClearHistory empties the undo stack.
func (s *Surface) ClearHistory() { s.hist.clear() }

// --- API commands ---

// InsertText inserts text at index on behalf of a program. The caret keeps
// its place relative to the surrounding text.
func (s *Surface) InsertText(index int, text string) error {
	if text == "" {
		return nil
	}
	index = clamp(index, s.buf.Len())
	caret := s.sel.caret
	if caret >= index {
		caret += utf8.RuneCountInString(text)
	}
	return s.edit(index, 0, text, caret, provenance.SourceAPI)
}

// DeleteText deletes n units at index on behalf of a program.
func (s *Surface) DeleteText(index, n int) error {
	index = clamp(index, s.buf.Len())
	n = clamp(n, s.buf.Len()-index)
	if n == 0 {
		return nil
	}
	caret := s.sel.caret
	switch {
	case caret >= index+n:
		caret -= n
	case caret > index:
		caret = index
	}
	return s.edit(index, n, "", caret, provenance.SourceAPI)
}

// SetText replaces the whole document on behalf of a program and puts the
// caret at the end.
func (s *Surface) SetText(text string) error {
	return s.edit(0, s.buf.Len(), text, utf8.RuneCountInString(text), provenance.SourceAPI)
}

// AppendText adds text at the end of the document on behalf of a program.
func (s *Surface) AppendText(text string) error {
	return s.InsertText(s.buf.Len(), text)
}

// SetCursor places the caret on behalf of a program.
func (s *Surface) SetCursor(index int) error {
	return s.moveSelection(caretAt(clamp(index, s.buf.Len())), provenance.SourceAPI)
}

// --- Internal commands ---

// Restore puts back a document captured before a rejected change, together
// with the selection the surface had then. Both notifications carry the
// silent tag so the listener ignores them.
func (s *Surface) Restore(previous delta.Delta) error {
	text, err := previous.ApplyText("")
	if err != nil {
		return fmt.Errorf("restore document: %w", err)
	}
	logger.DebugTagf("surface", "Restoring %d units", utf8.RuneCountInString(text))
	if err := s.edit(0, s.buf.Len(), text, s.before.caret, provenance.SourceSilent); err != nil {
		return err
	}
	return s.moveSelection(s.before.clamp(s.buf.Len()), provenance.SourceSilent)
}

// Revert implements core.Reverter.
func (s *Surface) Revert(previous delta.Delta) error { return s.Restore(previous) }

func (s *Surface) deleteSelection(tag provenance.Source) error {
	r := s.sel.Range()
	return s.edit(r.Index, r.Length, "", r.Index, tag)
}

func (s *Surface) edit(index, n int, text string, caret int, tag provenance.Source) error {
	_, err := s.apply(index, n, text, caret, tag)
	return err
}

// apply replaces n units at index with text, moves the caret to caret and
// reports the content change and then the selection change. Accepted edits
// that are not silent go on the undo stack.
func (s *Surface) apply(index, n int, text string, caret int, tag provenance.Source) (policy.Decision, error) {
	if n == 0 && text == "" {
		return policy.Accept, nil
	}
	old := s.buf.Text()
	prevSel := s.sel

	deleted, err := s.buf.Delete(index, n)
	if err != nil {
		return policy.Accept, err
	}
	if err := s.buf.Insert(index, text); err != nil {
		return policy.Accept, err
	}
	s.sel = caretAt(clamp(caret, s.buf.Len()))
	c := change{index: index, inserted: text, deleted: deleted, before: prevSel, after: s.sel}

	d := delta.New()
	if index > 0 {
		d = d.Retain(index, nil)
	}
	if text != "" {
		d = d.Insert(text, nil)
	}
	if n > 0 {
		d = d.Delete(n)
	}

	if s.listener == nil {
		s.remember(c, tag)
		return policy.Accept, nil
	}
	if tag != provenance.SourceSilent {
		s.before = prevSel
	}
	dec, err := s.listener.OnMutation(d, delta.FromText(old), tag)
	if dec == policy.Accept {
		s.remember(c, tag)
	}
	if err != nil {
		return dec, err
	}
	// A revert during OnMutation already put the old selection back.
	if s.sel == prevSel || !s.focused {
		return dec, nil
	}
	r, prev := s.sel.Range(), prevSel.Range()
	return dec, s.listener.OnSelectionChange(&r, &prev, tag)
}

func (s *Surface) remember(c change, tag provenance.Source) {
	if s.replaying || tag == provenance.SourceSilent {
		return
	}
	s.hist.record(c)
}

func (s *Surface) moveSelection(next selection, tag provenance.Source) error {
	prev := s.sel
	s.sel = next
	if s.listener == nil || !s.focused || next == prev {
		return nil
	}
	r, p := next.Range(), prev.Range()
	return s.listener.OnSelectionChange(&r, &p, tag)
}
