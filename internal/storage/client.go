package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotExist is returned by Open and Stat when the stored object is gone.
var ErrNotExist = errors.New("stored object does not exist")

// ObjectInfo describes a stored book object.
type ObjectInfo struct {
	Location string
	Size     int64
}

// Backend is the durable home of ingested book files. Locations returned by
// Place are opaque to callers and are recorded in the catalog as-is.
type Backend interface {
	// Name identifies the backend in logs and audit reports.
	Name() string

	// Place moves a fully verified scratch file to its permanent home under
	// key. On success the scratch file no longer exists.
	Place(ctx context.Context, scratchPath, key string) (location string, err error)

	// Open streams the object stored at location.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Stat returns metadata without reading the content.
	Stat(ctx context.Context, location string) (*ObjectInfo, error)
}

// ValidateKey rejects keys that would escape the backend's namespace.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
