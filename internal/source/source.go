// Package source reads script text, preferring in-memory editor buffers over
// the copy persisted on disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
)

// ErrNotFound is returned when neither an open buffer nor a readable file
// exists for a path.
var ErrNotFound = errors.New("source not found")

// Reader returns the current text of a file.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Buffers exposes the documents a host currently has open.
type Buffers interface {
	Buffer(path string) (string, bool)
}

// Overlay is an immutable set of open buffers keyed by cleaned absolute path.
type Overlay map[string]string

// Buffer returns the open text for path, if any.
func (o Overlay) Buffer(path string) (string, bool) {
	text, ok := o[Key(path)]
	return text, ok
}

// Key normalizes a path for overlay lookups.
func Key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// Relative returns path as a slash path relative to root when it lies
// beneath root, and as a slash absolute path otherwise.
func Relative(root, path string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && filepath.IsLocal(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// FileReader reads open buffers verbatim and falls back to disk.
type FileReader struct {
	buffers Buffers
	maxSize int64
}

// NewReader creates a FileReader. buffers may be nil. maxSize <= 0 disables
// the size limit for files read from disk.
func NewReader(buffers Buffers, maxSize int64) *FileReader {
	return &FileReader{buffers: buffers, maxSize: maxSize}
}

// Read implements Reader.
func (r *FileReader) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.buffers != nil {
		if text, ok := r.buffers.Buffer(path); ok {
			return text, nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w: %v", path, ErrNotFound, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w: is a directory", path, ErrNotFound)
	}
	if r.maxSize > 0 && info.Size() > r.maxSize {
		return "", fmt.Errorf("%s: %w: exceeds %d bytes", path, ErrNotFound, r.maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", path, ErrNotFound, err)
	}
	return Decode(data)
}

// Decode converts persisted bytes to text: a UTF-8 byte order mark is
// dropped and invalid sequences become U+FFFD.
func Decode(data []byte) (string, error) {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w", err)
	}
	return string(out), nil
}
