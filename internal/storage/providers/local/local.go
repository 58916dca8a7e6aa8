// Package local stores books as plain files in a library directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrlokans/readsync/internal/storage"
)

// Store implements storage.Backend on the local filesystem.
type Store struct {
	dir string
}

// New creates the library directory if needed.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve library dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

func (s *Store) Name() string { return "local" }

// Dir returns the absolute library directory.
func (s *Store) Dir() string { return s.dir }

// Place renames the scratch file into the library. When the scratch
// directory is on another device the file is copied and the scratch removed.
func (s *Store) Place(ctx context.Context, scratchPath, key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, key)

	if err := os.Rename(scratchPath, dst); err == nil {
		return dst, nil
	}

	if err := copyInto(ctx, scratchPath, dst); err != nil {
		return "", err
	}
	if err := os.Remove(scratchPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("remove scratch file: %w", err)
	}
	return dst, nil
}

// copyInto writes src to a temp file next to dst and renames it into place,
// so a partially copied book is never visible under its final name.
func copyInto(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open scratch file: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".place-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: in}); err != nil {
		tmp.Close()
		return fmt.Errorf("copy book: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync book: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename book: %w", err)
	}
	return nil
}

func (s *Store) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, location)
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) Stat(_ context.Context, location string) (*storage.ObjectInfo, error) {
	fi, err := os.Stat(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, location)
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", storage.ErrNotExist, location)
	}
	return &storage.ObjectInfo{Location: location, Size: fi.Size()}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
