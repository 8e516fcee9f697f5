// Package source provides the source texts consumed by the analysis engine:
// file-backed and in-memory units, a content cache, and a directory collector.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// Content errors.
var (
	ErrInvalidEncoding = errors.New("source is not valid UTF-8")
	ErrBinary          = errors.New("source looks binary")
)

// binarySniffLength is how many leading bytes are scanned for a NUL byte.
const binarySniffLength = 8000

// Text is one identifiable unit of source content. Content is read lazily
// and may fail per unit; ID is the identity used for attribution and caching,
// so distinct contents must not share an ID.
type Text interface {
	ID() string
	Content() (string, error)
}

// File is a path-backed source. The file is read on every Content call.
type File struct {
	path string
}

// NewFile creates a file-backed source for path.
func NewFile(path string) File {
	return File{path: path}
}

// ID returns the file path.
func (f File) ID() string {
	return f.path
}

// Content reads the file and checks that it is UTF-8 text.
func (f File) Content() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}

	if bytes.IndexByte(data[:min(len(data), binarySniffLength)], 0) >= 0 {
		return "", fmt.Errorf("%s: %w", f.path, ErrBinary)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", f.path, ErrInvalidEncoding)
	}

	return string(data), nil
}

// Buffer is an in-memory source.
type Buffer struct {
	name string
	text string
}

// NewBuffer creates an in-memory source identified by name.
func NewBuffer(name, text string) Buffer {
	return Buffer{name: name, text: text}
}

// ID returns the buffer name.
func (b Buffer) ID() string {
	return b.name
}

// Content returns the buffered text.
func (b Buffer) Content() (string, error) {
	return b.text, nil
}
