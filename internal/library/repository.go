// Package library is the content-addressed book store. Books are identified
// by the (sha256, size) of their bytes: identical content is stored once and
// every upload is verified against its claimed digest before it is cataloged.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/readsync/internal/database/catalog"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
	"github.com/mrlokans/readsync/internal/storage"
	"github.com/mrlokans/readsync/internal/utils"
)

// ErrCorrupt is returned by Open when the stored object no longer matches
// its catalog row.
var ErrCorrupt = errors.New("stored book does not match catalog")

// Catalog is the relational index of stored books.
type Catalog interface {
	LookupByContent(sha256 string, size int64) (string, bool, error)
	Insert(book *entities.Book) error
	GetByFileID(fileID string) (*entities.Book, error)
	Each(batchSize int, fn func(entities.Book) error) error
}

// Upload describes one ingestion request. Open is called at most once and
// only when the content is not already stored; a nil Open means the client
// sent no file payload.
type Upload struct {
	SHA256   string
	Size     int64
	FileName string
	Open     func() (io.ReadCloser, error)
}

type Options struct {
	// ScratchDir receives uploads while they are verified. Defaults to the
	// OS temp dir.
	ScratchDir string
	// MaxFileSize is the upload cap in bytes; 0 disables it.
	MaxFileSize int64
	Now         func() int64
	NewID       func() string
}

// Repository implements ingestion, dedup, download lookup and audit.
type Repository struct {
	catalog    Catalog
	backend    storage.Backend
	scratchDir string
	maxSize    int64
	now        func() int64
	newID      func() string
}

func NewRepository(cat Catalog, backend storage.Backend, opts Options) (*Repository, error) {
	if opts.ScratchDir == "" {
		opts.ScratchDir = os.TempDir()
	}
	if err := os.MkdirAll(opts.ScratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Repository{
		catalog:    cat,
		backend:    backend,
		scratchDir: opts.ScratchDir,
		maxSize:    opts.MaxFileSize,
		now:        opts.Now,
		newID:      opts.NewID,
	}, nil
}

// Backend returns the placement backend.
func (r *Repository) Backend() storage.Backend { return r.backend }

// MaxFileSize returns the upload cap in bytes.
func (r *Repository) MaxFileSize() int64 { return r.maxSize }

// NormalizeContentKey validates a claimed (sha256, size) pair and returns the
// lower-cased digest.
func NormalizeContentKey(sha string, size int64) (string, error) {
	sha = strings.ToLower(strings.TrimSpace(sha))
	if len(sha) != sha256.Size*2 {
		return "", errs.Invalid("sha256 must be 64 hex characters")
	}
	if _, err := hex.DecodeString(sha); err != nil {
		return "", errs.Invalid("sha256 must be 64 hex characters")
	}
	if size <= 0 {
		return "", errs.Invalid("size must be positive")
	}
	return sha, nil
}

// ResolveByContent returns the file id already storing this content.
func (r *Repository) ResolveByContent(sha string, size int64) (string, bool, error) {
	sha, err := NormalizeContentKey(sha, size)
	if err != nil {
		return "", false, err
	}
	return r.catalog.LookupByContent(sha, size)
}

// Ingest stores the upload unless identical content is already cataloged.
// The cap and the dedup lookup both run before the payload is touched.
func (r *Repository) Ingest(ctx context.Context, up Upload) (*entities.Book, error) {
	sha, err := NormalizeContentKey(up.SHA256, up.Size)
	if err != nil {
		return nil, err
	}
	if r.maxSize > 0 && up.Size > r.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte cap", errs.ErrTooLarge, up.Size, r.maxSize)
	}

	if book, ok, err := r.existing(sha, up.Size); err != nil || ok {
		return book, err
	}

	if up.Open == nil {
		return nil, errs.Invalid("missing file")
	}

	scratchPath, err := r.receive(ctx, up, sha)
	if err != nil {
		return nil, err
	}
	// Place consumes the scratch file on success; this only fires on failure.
	defer os.Remove(scratchPath)

	fileID := r.newID()
	location, err := r.backend.Place(ctx, scratchPath, fileID+utils.BookExtension(up.FileName))
	if err != nil {
		return nil, errs.Storage("place book", err)
	}

	book := &entities.Book{
		FileID:    fileID,
		SHA256:    sha,
		FileSize:  up.Size,
		Location:  location,
		FileName:  utils.SanitizeFilename(up.FileName),
		UpdatedAt: r.now(),
	}
	err = r.catalog.Insert(book)
	if errors.Is(err, catalog.ErrDuplicateContent) {
		log.Printf("[LIBRARY] concurrent upload of %s/%d won, leaving unreferenced %s", sha, up.Size, location)
		winner, ok, err := r.existing(sha, up.Size)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.Storage("resolve ingest winner", fmt.Errorf("no catalog row for %s/%d", sha, up.Size))
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[LIBRARY] stored %s (%d bytes) as %s", book.DisplayName(), book.FileSize, fileID)
	return book, nil
}

func (r *Repository) existing(sha string, size int64) (*entities.Book, bool, error) {
	id, ok, err := r.catalog.LookupByContent(sha, size)
	if err != nil || !ok {
		return nil, false, err
	}
	book, err := r.catalog.GetByFileID(id)
	if err != nil {
		return nil, false, err
	}
	return book, true, nil
}

// receive streams the upload into a scratch file while hashing it. At most
// Size+1 bytes are read so an oversized stream is detected without buffering
// all of it.
func (r *Repository) receive(ctx context.Context, up Upload, sha string) (string, error) {
	src, err := up.Open()
	if err != nil {
		return "", errs.Invalid("unreadable file: " + err.Error())
	}
	defer src.Close()

	scratch, err := os.CreateTemp(r.scratchDir, "upload-*")
	if err != nil {
		return "", errs.Storage("create scratch file", err)
	}
	scratchPath := scratch.Name()

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(scratch, h), io.LimitReader(&ctxReader{ctx: ctx, r: src}, up.Size+1))
	closeErr := scratch.Close()

	fail := func(err error) (string, error) {
		os.Remove(scratchPath)
		return "", err
	}

	switch {
	case copyErr != nil && ctx.Err() != nil:
		return fail(ctx.Err())
	case copyErr != nil:
		return fail(errs.Storage("receive upload", copyErr))
	case closeErr != nil:
		return fail(errs.Storage("close scratch file", closeErr))
	}

	if n != up.Size {
		return fail(fmt.Errorf("%w: received %d bytes, expected %d", errs.ErrSizeMismatch, n, up.Size))
	}
	if actual := hex.EncodeToString(h.Sum(nil)); actual != sha {
		return fail(fmt.Errorf("%w: received %s, expected %s", errs.ErrChecksumMismatch, actual, sha))
	}
	return scratchPath, nil
}

// FetchForDownload returns the catalog row for fileID or errs.ErrNotFound.
func (r *Repository) FetchForDownload(fileID string) (*entities.Book, error) {
	if fileID == "" {
		return nil, errs.Invalid("missing fileId")
	}
	return r.catalog.GetByFileID(fileID)
}

// Open streams a cataloged book after checking the stored size against the
// catalog. A missing object is errs.ErrNotFound; a size difference is
// ErrCorrupt.
func (r *Repository) Open(ctx context.Context, book *entities.Book) (io.ReadCloser, error) {
	info, err := r.backend.Stat(ctx, book.Location)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, fmt.Errorf("%w: file for %s", errs.ErrNotFound, book.FileID)
		}
		return nil, errs.Storage("stat book", err)
	}
	if info.Size != book.FileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, catalog says %d", ErrCorrupt, book.FileID, info.Size, book.FileSize)
	}

	rc, err := r.backend.Open(ctx, book.Location)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, fmt.Errorf("%w: file for %s", errs.ErrNotFound, book.FileID)
		}
		return nil, errs.Storage("open book", err)
	}
	return rc, nil
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
