// Package sink is where generated files end up. Every backend supports
// overwriting writes for classes and pages, and appending writes for the
// documentation index.
package sink

import (
	"context"
	"path"
	"strings"

	"github.com/koustreak/dbgen/internal/errs"
)

// Sink accepts path+content pairs. Paths are slash separated and relative
// to the sink's root.
type Sink interface {
	// Write replaces the content at p, creating parent directories.
	Write(ctx context.Context, p string, content []byte) error

	// Append adds content to the end of p, creating it if needed.
	Append(ctx context.Context, p string, content []byte) error
}

// Reader reads back what a Sink wrote.
type Reader interface {
	Read(ctx context.Context, p string) ([]byte, error)

	// List returns every stored path, sorted.
	List(ctx context.Context) ([]string, error)
}

// Store is a Sink that can be read back.
type Store interface {
	Sink
	Reader
}

// Clean normalizes p to a relative slash path that cannot escape the root.
func Clean(p string) (string, error) {
	c := strings.TrimPrefix(path.Clean("/"+p), "/")
	if c == "" {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid path %q", p)
	}
	return c, nil
}

// ContentType guesses the MIME type of a generated file from its extension.
func ContentType(p string) string {
	switch path.Ext(p) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".cs":
		return "text/x-csharp; charset=utf-8"
	case ".go":
		return "text/x-go; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func writeFailure(op, p string, err error) *errs.Error {
	return errs.Wrap(errs.ErrKindSinkWriteFailure, op+" "+p, err)
}
