package replay

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/provtrace/internal/core"
	"github.com/bethropolis/provtrace/internal/core/cursor"
	"github.com/bethropolis/provtrace/internal/core/policy"
	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/surface"
	"github.com/bethropolis/provtrace/internal/types"
)

const script = `{"type":"mutation","source":"user","delta":{"ops":[{"retain":2},{"insert":"a"}]},"oldDelta":{"ops":[{"insert":"xy"}]},"ts":1000}
{"type":"selection","source":"user","range":{"index":3,"length":0},"oldRange":null,"ts":1001}

{"type":"selection","source":"user","range":{"index":-1,"length":0},"ts":1002}
{"type":"suggestion","ts":1003}
{"type":"mutation","source":"silent","delta":{"ops":[{"delete":1}]},"ts":1004}
{"type":"mutation","source":"api","delta":{"ops":[{"delete":1}]},"ts":1005}
`

func TestReadScript(t *testing.T) {
	notes, err := Read(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, notes, 6)

	assert.Equal(t, TypeMutation, notes[0].Type)
	assert.Equal(t, provenance.SourceUser, notes[0].Source)
	require.NotNil(t, notes[0].Delta)
	assert.True(t, delta.New().Retain(2, nil).Insert("a", nil).Equal(*notes[0].Delta))
	require.NotNil(t, notes[0].OldDelta)
	assert.Equal(t, "xy", notes[0].OldDelta.Text())

	assert.Equal(t, &types.Range{Index: 3}, notes[1].Range)
	assert.Nil(t, notes[1].OldRange)
	assert.Equal(t, int64(1003), notes[3].Timestamp)
}

func TestReadRejectsBadLines(t *testing.T) {
	_, err := Read(strings.NewReader(`{"type":"mutation","ts":1}` + "\n" + `{"type":"typing","ts":2}`))
	assert.ErrorContains(t, err, "line 2")

	_, err = Read(strings.NewReader(`{"type":"mutation","delta":{"ops":[{"retain":-1}]}}`))
	assert.ErrorIs(t, err, delta.ErrMalformedOp)
}

func TestWriteRoundTrip(t *testing.T) {
	notes, err := Read(strings.NewReader(script))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, notes))
	again, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, len(notes), len(again))
	for i := range notes {
		assert.Equal(t, notes[i].Type, again[i].Type)
		assert.Equal(t, notes[i].Timestamp, again[i].Timestamp)
		assert.Equal(t, notes[i].Range, again[i].Range)
	}
}

func TestRunCollectsErrorsAndContinues(t *testing.T) {
	notes, err := Read(strings.NewReader(script))
	require.NoError(t, err)

	mem := &event.MemorySink{}
	res := Run(mem, notes, core.WithID("replay"))

	assert.Equal(t, "replay", res.SessionID)
	assert.Equal(t, 6, res.Processed)
	assert.Equal(t, 1, res.Malformed)
	assert.Zero(t, res.Rejected)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Err(), cursor.ErrMalformedSelection)

	assert.Equal(t, []event.Kind{
		event.KindTextInsert,
		event.KindCursorForward,
		event.KindSuggestionRequest,
		event.KindTextDelete,
	}, mem.Kinds())
	recs := mem.Records()
	assert.Equal(t, time.UnixMilli(1000), recs[0].Timestamp())
	assert.Equal(t, time.UnixMilli(1005), recs[3].Timestamp())
	assert.Equal(t, provenance.Programmatic, recs[3].Actor())
}

func stepClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(250 * time.Millisecond)
		return t
	}
}

func TestRecordedSessionReplaysIdentically(t *testing.T) {
	rec := NewRecorder(nil, stepClock())
	surf := surface.New(rec, surface.WithText("draft"), surface.WithClipboard(&surface.MemoryClipboard{}))
	live := &event.MemorySink{}
	sess := core.NewSession(live,
		core.WithMode(policy.MachineOnly),
		core.WithReverter(surf),
		core.WithClock(rec.Now),
		core.WithInitialCursor(5))
	rec.SetNext(sess)

	require.NoError(t, surf.TypeText("x"))
	require.NoError(t, surf.TypeText(" "))
	require.NoError(t, surf.Backspace())
	require.NoError(t, surf.AppendText(" more"))
	require.NoError(t, surf.MoveTo(0, false))
	require.NoError(t, surf.Select(0, 5))
	require.NoError(t, surf.Tab())
	require.NoError(t, surf.Blur())
	require.NoError(t, surf.Focus())
	assert.Equal(t, "draft more", surf.Text())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rec.Notifications()))
	notes, err := Read(&buf)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		replayed := &event.MemorySink{}
		res := Run(replayed, notes, core.WithMode(policy.MachineOnly), core.WithInitialCursor(5))
		require.NoError(t, res.Err())
		assert.Equal(t, 1, res.Rejected)

		want, got := live.Records(), replayed.Records()
		require.Len(t, got, len(want))
		for j := range want {
			assert.True(t, want[j].Equal(got[j]), "record %d: %v != %v", j, want[j], got[j])
		}
	}
}

func TestInitialText(t *testing.T) {
	notes, err := Read(strings.NewReader(script))
	require.NoError(t, err)
	assert.Equal(t, "xy", InitialText(notes))
	assert.Empty(t, InitialText(notes[1:4]))
	assert.Empty(t, InitialText(notes[4:]))

	p := NewPlayer(&event.MemorySink{})
	assert.Empty(t, p.Initial())
	for _, n := range notes {
		_ = p.Play(n)
	}
	assert.Equal(t, "xy", p.Initial())
}
