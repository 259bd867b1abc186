// internal/buffer/rune_buffer.go
package buffer

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// RuneBuffer stores the document as a slice of code points.
type RuneBuffer struct {
	runes    []rune
	filePath string
	modified bool
}

// NewRuneBuffer creates a buffer holding text.
func NewRuneBuffer(text string) *RuneBuffer {
	return &RuneBuffer{runes: []rune(text)}
}

// Load reads a file into the buffer, replacing its content. A missing file
// gives an empty buffer bound to that path.
func (rb *RuneBuffer) Load(filePath string) error {
	rb.modified = false

	content, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			rb.runes = nil
			rb.filePath = filePath
			return nil
		}
		return fmt.Errorf("failed to open file '%s': %w", filePath, err)
	}
	if !utf8.Valid(content) {
		return fmt.Errorf("file '%s' is not valid UTF-8", filePath)
	}
	rb.runes = []rune(string(content))
	rb.filePath = filePath
	return nil
}

// Save writes the buffer to filePath, or to the path it was loaded from
// when filePath is empty.
func (rb *RuneBuffer) Save(filePath string) error {
	path := rb.filePath
	if filePath != "" {
		path = filePath
	}
	if path == "" {
		return errors.New("no file path specified for saving")
	}
	if err := os.WriteFile(path, []byte(rb.Text()), 0644); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", path, err)
	}
	rb.filePath = path
	rb.modified = false
	return nil
}

func (rb *RuneBuffer) Text() string { return string(rb.runes) }

func (rb *RuneBuffer) Len() int { return len(rb.runes) }

// Slice returns the text between two offsets, clamped to the buffer.
func (rb *RuneBuffer) Slice(start, end int) string {
	start, end = rb.clamp(start), rb.clamp(end)
	if start > end {
		start, end = end, start
	}
	return string(rb.runes[start:end])
}

// SetText replaces the whole content.
func (rb *RuneBuffer) SetText(text string) {
	rb.runes = []rune(text)
	rb.modified = true
}

// Insert inserts text before index.
func (rb *RuneBuffer) Insert(index int, text string) error {
	if index < 0 || index > len(rb.runes) {
		return fmt.Errorf("insert offset %d out of bounds (0-%d)", index, len(rb.runes))
	}
	if text == "" {
		return nil
	}
	ins := []rune(text)
	out := make([]rune, 0, len(rb.runes)+len(ins))
	out = append(out, rb.runes[:index]...)
	out = append(out, ins...)
	rb.runes = append(out, rb.runes[index:]...)
	rb.modified = true
	return nil
}

// Delete removes n units starting at index and returns them.
func (rb *RuneBuffer) Delete(index, n int) (string, error) {
	if index < 0 || n < 0 || index+n > len(rb.runes) {
		return "", fmt.Errorf("delete range %d+%d out of bounds (0-%d)", index, n, len(rb.runes))
	}
	if n == 0 {
		return "", nil
	}
	removed := string(rb.runes[index : index+n])
	rb.runes = append(rb.runes[:index:index], rb.runes[index+n:]...)
	rb.modified = true
	return removed, nil
}

func (rb *RuneBuffer) FilePath() string { return rb.filePath }

// IsModified reports unsaved changes.
func (rb *RuneBuffer) IsModified() bool { return rb.modified }

func (rb *RuneBuffer) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(rb.runes) {
		return len(rb.runes)
	}
	return i
}

var _ Buffer = (*RuneBuffer)(nil)
