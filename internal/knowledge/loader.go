// Package knowledge loads the static document every answer is grounded on.
package knowledge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidEncoding is wrapped by LoadError when the file is not UTF-8 text.
var ErrInvalidEncoding = errors.New("document is not valid UTF-8")

// Document is the knowledge text shared read-only by a session.
type Document struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Content  string    `json:"-"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Empty reports whether the document carries no usable text.
func (d Document) Empty() bool {
	return strings.TrimSpace(d.Content) == ""
}

// LoadError reports a document that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load knowledge document %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the whole file at path in one pass.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &LoadError{Path: path, Err: err}
	}

	if !utf8.Valid(data) {
		return Document{}, &LoadError{Path: path, Err: ErrInvalidEncoding}
	}

	return Document{
		Path:     path,
		Name:     filepath.Base(path),
		Content:  string(data),
		LoadedAt: time.Now().UTC(),
	}, nil
}
