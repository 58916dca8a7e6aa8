// Package catalog provides database operations for the content-addressed book
// catalog.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	fileID, ok, err := repo.LookupByContent(sha, size)
package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// ErrDuplicateContent is returned by Insert when another row already owns the
// same (sha256, filesize) pair.
var ErrDuplicateContent = errors.New("book content already cataloged")

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LookupByContent returns the file id cataloged for the given content.
func (r *Repository) LookupByContent(sha256 string, size int64) (string, bool, error) {
	var ids []string
	err := r.db.Model(&entities.Book{}).
		Where("sha256 = ? AND filesize = ?", sha256, size).
		Limit(1).
		Pluck("file_id", &ids).Error
	if err != nil {
		return "", false, errs.Storage("lookup by content", err)
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

// Insert adds a catalog row. The uniqueness constraint on (sha256, filesize)
// decides concurrent ingestions: losers get ErrDuplicateContent.
func (r *Repository) Insert(book *entities.Book) error {
	if err := r.db.Create(book).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateContent
		}
		return errs.Storage("insert book", err)
	}
	return nil
}

// GetByFileID returns the catalog row for fileID or errs.ErrNotFound.
func (r *Repository) GetByFileID(fileID string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("file_id = ?", fileID).First(&book).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errs.ErrNotFound
		}
		return nil, errs.Storage("get book", err)
	}
	return &book, nil
}

// Exists reports whether fileID is cataloged.
func (r *Repository) Exists(fileID string) (bool, error) {
	var n int64
	if err := r.db.Model(&entities.Book{}).Where("file_id = ?", fileID).Count(&n).Error; err != nil {
		return false, errs.Storage("book exists", err)
	}
	return n > 0, nil
}

// Each calls fn for every cataloged book in file id order, loading batchSize
// rows at a time. Iteration stops at the first error returned by fn.
func (r *Repository) Each(batchSize int, fn func(entities.Book) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	var batch []entities.Book
	var fnErr error
	res := r.db.Order("file_id ASC").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		for _, b := range batch {
			if fnErr = fn(b); fnErr != nil {
				return fnErr
			}
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	return errs.Storage("iterate books", res.Error)
}

// Count returns the number of cataloged books.
func (r *Repository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&entities.Book{}).Count(&n).Error; err != nil {
		return 0, errs.Storage("count books", err)
	}
	return n, nil
}
