// internal/surface/clipboard.go
package surface

import (
	"sync"

	"github.com/atotto/clipboard"

	"github.com/bethropolis/provtrace/internal/logger"
)

// Clipboard is where Copy writes and Paste reads.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// MemoryClipboard is a process-local clipboard.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) ReadAll() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *MemoryClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

// SystemClipboard uses the OS clipboard and falls back to an internal one
// when the OS clipboard is unavailable (no display, no xclip).
type SystemClipboard struct {
	fallback MemoryClipboard
}

// NewSystemClipboard creates a clipboard backed by the OS.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (c *SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return c.fallback.ReadAll()
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		logger.DebugTagf("surface", "System clipboard read failed, using internal clipboard: %v", err)
		return c.fallback.ReadAll()
	}
	return text, nil
}

// WriteAll writes to both clipboards so a later fallback read still sees
// the latest copy.
func (c *SystemClipboard) WriteAll(text string) error {
	_ = c.fallback.WriteAll(text)
	if clipboard.Unsupported {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		logger.DebugTagf("surface", "System clipboard write failed, kept internal copy: %v", err)
	}
	return nil
}
