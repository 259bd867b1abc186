package follow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/provtrace/internal/core"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/replay"
)

const (
	typed  = `{"type":"mutation","source":"user","delta":{"ops":[{"insert":"hi"}]},"ts":1}` + "\n"
	caret  = `{"type":"selection","source":"user","range":{"index":2,"length":0},"ts":2}` + "\n"
	trig   = `{"type":"suggestion","ts":3}` + "\n"
	broken = `{"type":"mutation",` + "\n"
)

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func start(t *testing.T, path string) (*Follower, *replay.Player, *event.MemorySink, func()) {
	t.Helper()
	mem := &event.MemorySink{}
	player := replay.NewPlayer(mem, core.WithID("follow"))
	f := New(path, player)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case <-f.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("follower stopped early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("follower not ready")
	}
	stop := func() {
		cancel()
		require.NoError(t, <-done)
	}
	return f, player, mem, stop
}

func TestFollowPlaysExistingAndAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	appendTo(t, path, typed)

	f, player, mem, stop := start(t, path)
	assert.Equal(t, []event.Kind{event.KindTextInsert}, mem.Kinds())

	// half a line waits for its newline
	appendTo(t, path, caret[:10])
	appendTo(t, path, caret[10:]+broken+trig)

	assert.Eventually(t, func() bool { return mem.Len() == 3 }, 5*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, []event.Kind{
		event.KindTextInsert,
		event.KindCursorForward,
		event.KindSuggestionRequest,
	}, mem.Kinds())
	assert.Equal(t, 1, f.Skipped())
	res := player.Result()
	assert.Equal(t, "follow", res.SessionID)
	assert.Equal(t, 3, res.Processed)
	assert.NoError(t, res.Err())
}

func TestFollowWaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.jsonl")
	_, _, mem, stop := start(t, path)
	defer stop()

	assert.Zero(t, mem.Len())
	appendTo(t, path, typed)
	assert.Eventually(t, func() bool { return mem.Len() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestFollowMissingDirectory(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "no", "such", "notes.jsonl"), replay.NewPlayer(&event.MemorySink{}))
	assert.Error(t, f.Run(context.Background()))
}

func TestFollowRereadsShrunkFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	appendTo(t, path, typed+caret)

	f, player, mem, stop := start(t, path)
	require.Equal(t, 2, mem.Len())

	// an editor bridge that starts a new script rewrites the file
	require.NoError(t, os.WriteFile(path, []byte(trig), 0o644))

	assert.Eventually(t, func() bool { return mem.Len() == 3 }, 5*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, []event.Kind{
		event.KindTextInsert,
		event.KindCursorForward,
		event.KindSuggestionRequest,
	}, mem.Kinds())
	assert.Zero(t, f.Skipped())
	assert.Equal(t, 3, player.Result().Processed)
}
