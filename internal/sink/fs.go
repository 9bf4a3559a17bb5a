package sink

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/koustreak/dbgen/internal/errs"
)

// FS writes under a directory on the local filesystem.
type FS struct {
	Root string
}

// NewFS returns an FS rooted at root.
func NewFS(root string) *FS {
	return &FS{Root: root}
}

func (s *FS) Write(_ context.Context, p string, content []byte) error {
	full, err := s.path(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return writeFailure("create directory for", p, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return writeFailure("write", p, err)
	}
	return nil
}

func (s *FS) Append(_ context.Context, p string, content []byte) error {
	full, err := s.path(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return writeFailure("create directory for", p, err)
	}
	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return writeFailure("open", p, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return writeFailure("append", p, err)
	}
	if err := f.Close(); err != nil {
		return writeFailure("close", p, err)
	}
	return nil
}

func (s *FS) Read(_ context.Context, p string) ([]byte, error) {
	full, err := s.path(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrKindNotFound, "no file at "+p, err)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read "+p, err)
	}
	return b, nil
}

func (s *FS) List(_ context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.Root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, full)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "list "+s.Root, err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *FS) path(p string) (string, error) {
	c, err := Clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(c)), nil
}
