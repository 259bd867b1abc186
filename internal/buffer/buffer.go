// internal/buffer/buffer.go
package buffer

// Buffer holds the plain text of a document. Offsets are in code points.
type Buffer interface {
	Load(filePath string) error
	Save(filePath string) error
	Text() string
	Len() int
	Slice(start, end int) string
	SetText(text string)
	Insert(index int, text string) error
	Delete(index, n int) (string, error)
	FilePath() string
	IsModified() bool
}
