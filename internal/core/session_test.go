package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/provtrace/internal/core/cursor"
	"github.com/bethropolis/provtrace/internal/core/policy"
	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/types"
)

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *event.MemorySink) {
	t.Helper()
	sink := &event.MemorySink{}
	opts = append([]Option{WithClock(fixedClock()), WithID("test")}, opts...)
	return NewSession(sink, opts...), sink
}

func rng(index, length int) *types.Range {
	return &types.Range{Index: index, Length: length}
}

func TestNewSessionGeneratesID(t *testing.T) {
	a := NewSession(&event.MemorySink{})
	b := NewSession(&event.MemorySink{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, policy.Unrestricted, a.Mode())
}

func TestUnrestrictedMutations(t *testing.T) {
	s, sink := newTestSession(t)
	doc := delta.FromText("abc")

	tests := []struct {
		d    delta.Delta
		tag  provenance.Source
		kind event.Kind
	}{
		{delta.New().Retain(3, nil).Insert("d", nil), provenance.SourceUser, event.KindTextInsert},
		{delta.New().Retain(1, nil).Delete(1), provenance.SourceAPI, event.KindTextDelete},
		{delta.New().Retain(2, delta.Attributes{"bold": true}), provenance.SourceUser, event.KindSkip},
		{delta.New(), provenance.SourceUser, event.KindSkip},
	}
	for _, tt := range tests {
		decision, err := s.OnMutation(tt.d, doc, tt.tag)
		require.NoError(t, err)
		assert.Equal(t, policy.Accept, decision)
	}

	recs := sink.Records()
	require.Len(t, recs, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.kind, recs[i].Kind())
		assert.Equal(t, provenance.Resolve(tt.tag), recs[i].Actor())
		d, ok := recs[i].Delta()
		assert.True(t, ok)
		assert.True(t, tt.d.Equal(d))
		_, hasRange := recs[i].Range()
		assert.False(t, hasRange)
	}
}

func TestInternalAndUnknownSourcesAreNotRecorded(t *testing.T) {
	reverted := false
	s, sink := newTestSession(t,
		WithMode(policy.MachineOnly),
		WithReverter(ReverterFunc(func(delta.Delta) error { reverted = true; return nil })))

	for _, tag := range []provenance.Source{provenance.SourceSilent, "", "robot"} {
		decision, err := s.OnMutation(delta.FromText("hello"), delta.New(), tag)
		require.NoError(t, err)
		assert.Equal(t, policy.Reject, decision)
		require.NoError(t, s.OnSelectionChange(rng(4, 0), nil, tag))
	}
	assert.Zero(t, sink.Len())
	assert.False(t, reverted)
	assert.Equal(t, 0, s.CursorIndex())
}

func TestMachineOnlyMutations(t *testing.T) {
	var reverts []delta.Delta
	s, sink := newTestSession(t,
		WithMode(policy.MachineOnly),
		WithReverter(ReverterFunc(func(prev delta.Delta) error {
			reverts = append(reverts, prev)
			return nil
		})))
	prev := delta.FromText("draft")

	tests := []struct {
		name     string
		d        delta.Delta
		tag      provenance.Source
		decision policy.Decision
	}{
		{"human whitespace", delta.New().Retain(5, nil).Insert("   ", nil), provenance.SourceUser, policy.Accept},
		{"human word", delta.New().Retain(5, nil).Insert("hello", nil), provenance.SourceUser, policy.RejectAndRevert},
		{"human delete", delta.New().Delete(2), provenance.SourceUser, policy.Accept},
		{"human format", delta.New().Retain(5, delta.Attributes{"italic": true}), provenance.SourceUser, policy.Reject},
		{"api insert", delta.New().Insert("machine text", nil), provenance.SourceAPI, policy.Accept},
		{"api delete", delta.New().Delete(1), provenance.SourceAPI, policy.Accept},
	}
	for _, tt := range tests {
		decision, err := s.OnMutation(tt.d, prev, tt.tag)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.decision, decision, tt.name)
	}

	assert.Equal(t,
		[]event.Kind{event.KindTextInsert, event.KindTextDelete, event.KindTextInsert, event.KindTextDelete},
		sink.Kinds())
	require.Len(t, reverts, 1)
	assert.Equal(t, "draft", reverts[0].Text())
}

func TestRevertFailureIsReportedAndLaterEventsStillRecorded(t *testing.T) {
	boom := errors.New("surface gone")
	s, sink := newTestSession(t,
		WithMode(policy.MachineOnly),
		WithReverter(ReverterFunc(func(delta.Delta) error { return boom })))

	decision, err := s.OnMutation(delta.FromText("x"), delta.New(), provenance.SourceUser)
	assert.Equal(t, policy.RejectAndRevert, decision)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, sink.Len())

	_, err = s.OnMutation(delta.FromText("y"), delta.New(), provenance.SourceAPI)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.Len())
}

func TestRejectWithoutReverter(t *testing.T) {
	s, sink := newTestSession(t, WithMode(policy.MachineOnly))
	decision, err := s.OnMutation(delta.FromText("x"), delta.New(), provenance.SourceUser)
	require.NoError(t, err)
	assert.Equal(t, policy.RejectAndRevert, decision)
	assert.Zero(t, sink.Len())
}

func TestSelectionChanges(t *testing.T) {
	s, sink := newTestSession(t, WithInitialCursor(5))

	require.NoError(t, s.OnSelectionChange(rng(8, 0), nil, provenance.SourceUser))
	assert.Equal(t, 8, s.CursorIndex())
	require.NoError(t, s.OnSelectionChange(rng(3, 4), rng(8, 0), provenance.SourceUser))
	assert.Equal(t, 3, s.CursorIndex())
	require.NoError(t, s.OnSelectionChange(rng(3, 0), nil, provenance.SourceAPI))
	assert.Equal(t, 3, s.CursorIndex())
	require.NoError(t, s.OnSelectionChange(rng(1, 0), nil, provenance.SourceUser))

	assert.Equal(t, []event.Kind{
		event.KindCursorForward,
		event.KindCursorSelect,
		event.KindCursorDeselect,
		event.KindCursorBackward,
	}, sink.Kinds())

	recs := sink.Records()
	assert.Equal(t, provenance.Programmatic, recs[2].Actor())
	r, ok := recs[1].Range()
	require.True(t, ok)
	assert.Equal(t, types.Range{Index: 3, Length: 4}, r)
	_, hasDelta := recs[1].Delta()
	assert.False(t, hasDelta)
}

func TestSelectionFocusLost(t *testing.T) {
	s, sink := newTestSession(t, WithInitialCursor(2))
	require.NoError(t, s.OnSelectionChange(nil, rng(2, 0), provenance.SourceUser))
	assert.Zero(t, sink.Len())
	assert.Equal(t, 2, s.CursorIndex())
}

func TestMalformedSelection(t *testing.T) {
	s, sink := newTestSession(t, WithInitialCursor(6))

	err := s.OnSelectionChange(rng(-1, 0), nil, provenance.SourceUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cursor.ErrMalformedSelection))
	assert.Zero(t, sink.Len())
	assert.Equal(t, 6, s.CursorIndex())

	// Later notifications are unaffected.
	require.NoError(t, s.OnSelectionChange(rng(7, 0), nil, provenance.SourceUser))
	assert.Equal(t, []event.Kind{event.KindCursorForward}, sink.Kinds())
}

func TestSuggestionTrigger(t *testing.T) {
	var order []string
	sink := event.SinkFunc(func(r event.Record) error {
		order = append(order, "log:"+r.Kind().String())
		assert.Equal(t, provenance.Human, r.Actor())
		return nil
	})
	s := NewSession(sink, WithSuggester(SuggesterFunc(func() { order = append(order, "fetch") })))

	require.NoError(t, s.NotifySuggestionTrigger())
	assert.Equal(t, []string{"log:suggestion-get", "fetch"}, order)
}

func TestSinkErrorsDoNotBlockLaterEvents(t *testing.T) {
	fail := true
	mem := &event.MemorySink{}
	sink := event.SinkFunc(func(r event.Record) error {
		if fail {
			fail = false
			return errors.New("transient")
		}
		return mem.Append(r)
	})
	s := NewSession(sink)

	_, err := s.OnMutation(delta.FromText("a"), delta.New(), provenance.SourceUser)
	assert.Error(t, err)
	_, err = s.OnMutation(delta.FromText("b"), delta.New(), provenance.SourceUser)
	assert.NoError(t, err)
	assert.Equal(t, 1, mem.Len())
}

type notification struct {
	d   *delta.Delta
	r   *types.Range
	tag provenance.Source
}

func runNotifications(t *testing.T, mode policy.Mode, notes []notification) []event.Record {
	t.Helper()
	s, sink := newTestSession(t, WithMode(mode), WithReverter(ReverterFunc(func(delta.Delta) error { return nil })))
	for _, n := range notes {
		if n.d != nil {
			_, err := s.OnMutation(*n.d, delta.New(), n.tag)
			require.NoError(t, err)
			continue
		}
		_ = s.OnSelectionChange(n.r, nil, n.tag)
	}
	return sink.Records()
}

func TestReplayIsDeterministicAndOrdered(t *testing.T) {
	ins := delta.FromText("hi")
	del := delta.New().Delete(1)
	sp := delta.FromText(" ")
	notes := []notification{
		{d: &ins, tag: provenance.SourceUser},
		{r: rng(2, 0), tag: provenance.SourceUser},
		{d: &sp, tag: provenance.SourceUser},
		{r: rng(-1, 0), tag: provenance.SourceUser},
		{d: &del, tag: provenance.SourceUser},
		{r: nil, tag: provenance.SourceUser},
		{d: &ins, tag: provenance.SourceAPI},
		{r: rng(0, 2), tag: provenance.SourceAPI},
		{d: &ins, tag: provenance.SourceSilent},
	}

	for _, mode := range []policy.Mode{policy.Unrestricted, policy.MachineOnly} {
		first := runNotifications(t, mode, notes)
		second := runNotifications(t, mode, notes)
		assert.LessOrEqual(t, len(first), len(notes))
		require.Len(t, second, len(first))
		for i := range first {
			assert.True(t, first[i].Equal(second[i]), "%v record %d: %v != %v", mode, i, first[i], second[i])
			if i > 0 {
				assert.True(t, first[i].Timestamp().After(first[i-1].Timestamp()))
			}
		}
	}

	machine := runNotifications(t, policy.MachineOnly, notes)
	kinds := make([]event.Kind, len(machine))
	for i, r := range machine {
		kinds[i] = r.Kind()
	}
	assert.Equal(t, []event.Kind{
		event.KindCursorForward,
		event.KindTextInsert,
		event.KindTextDelete,
		event.KindTextInsert,
		event.KindCursorSelect,
	}, kinds)
}
