// Package follow tails a notification script that an editor bridge keeps
// appending to and plays each new line into a session.
package follow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/replay"
)

// Follower plays the complete lines of a growing file. A trailing line
// without a newline waits for the rest of it.
type Follower struct {
	path    string
	player  *replay.Player
	offset  int64
	partial []byte
	line    int
	skipped int
	ready   chan struct{}
}

// New creates a follower of path feeding player.
func New(path string, player *replay.Player) *Follower {
	return &Follower{path: path, player: player, ready: make(chan struct{})}
}

// Ready is closed once the watch is in place and the existing content has
// been played.
func (f *Follower) Ready() <-chan struct{} { return f.ready }

// Skipped returns the number of lines that were not valid notifications.
func (f *Follower) Skipped() int { return f.skipped }

// Run plays what the file already holds and then every line appended to it
// until ctx is done. The file does not need to exist yet.
func (f *Follower) Run(ctx context.Context) error {
	abs, err := filepath.Abs(f.path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory so the file may be created or replaced.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	if err := f.drain(); err != nil {
		return err
	}
	close(f.ready)
	logger.InfoTagf("follow", "Following %s", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.drain(); err != nil {
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnTagf("follow", "Watch error: %v", err)
		}
	}
}

// drain plays the lines written since the last call.
func (f *Follower) drain() error {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < f.offset {
		logger.WarnTagf("follow", "%s shrank, reading from the start", f.path)
		f.offset, f.partial, f.line = 0, nil, 0
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	f.offset += int64(len(data))

	data = append(f.partial, data...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		f.playLine(data[:i])
		data = data[i+1:]
	}
	f.partial = append([]byte(nil), data...)
	return nil
}

func (f *Follower) playLine(raw []byte) {
	f.line++
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	n, err := replay.Parse(raw)
	if err != nil {
		f.skipped++
		logger.WarnTagf("follow", "Line %d skipped: %v", f.line, err)
		return
	}
	if err := f.player.Play(n); err != nil {
		logger.WarnTagf("follow", "Line %d: %v", f.line, err)
	}
}
