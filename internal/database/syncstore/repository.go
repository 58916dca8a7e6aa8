// Package syncstore provides tombstoned CRUD over the four per-user record
// kinds (book state, bookmarks, highlights, notes).
//
// The store never decides whether a write should happen; callers consult
// conflict.Resolve first. Each Upsert and SoftDelete is a single statement,
// so concurrent writers cannot interleave inside one row, but the
// read-decide-write sequence around it is not transactional.
//
// # Usage
//
//	repo := syncstore.NewRepository(db)
//	state, err := repo.GetState(entities.KindBookmark, key)
//	ts, err := repo.Upsert(&entities.Bookmark{...}, true, now)
package syncstore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// cascadeKinds are tombstoned together with a deleted book state. Notes are
// deliberately absent; see DESIGN.md.
var cascadeKinds = []entities.Kind{entities.KindBookmark, entities.KindHighlight}

// Repository handles all synchronized-row database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sync store repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type stateRow struct {
	UpdatedAt int64
	DeletedAt *int64
}

// GetState returns the server-side view of key. A key that was never written
// is reported as the zero RowState, not as an error.
func (r *Repository) GetState(kind entities.Kind, key entities.Key) (entities.RowState, error) {
	var rows []stateRow
	err := r.db.Table(kind.TableName()).
		Select("updated_at, deleted_at").
		Scopes(database.KeyScope(kind, key)).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return entities.RowState{}, errs.Storage("get state", err)
	}
	if len(rows) == 0 {
		return entities.RowState{}, nil
	}

	row := rows[0]
	if row.DeletedAt != nil {
		return entities.RowState{Deleted: true, UpdatedAt: row.UpdatedAt, DeletedAt: *row.DeletedAt}, nil
	}
	return entities.RowState{Exists: true, UpdatedAt: row.UpdatedAt}, nil
}

// Upsert inserts rec or replaces the payload of the existing row, stamping it
// with ts. The tombstone of an existing row is cleared only when resurrect is
// true. The referenced book must already be cataloged.
func (r *Repository) Upsert(rec entities.Record, resurrect bool, ts int64) (int64, error) {
	kind := rec.Kind()
	key := rec.RecordKey()

	if err := r.requireBook(key.FileID); err != nil {
		return 0, err
	}

	rec.Stamp(ts)

	conflictCols := []clause.Column{{Name: "username"}, {Name: "file_id"}}
	if kind.ItemScoped() {
		conflictCols = append(conflictCols, clause.Column{Name: "id"})
	}
	updateCols := append(rec.PayloadColumns(), "updated_at")
	if resurrect {
		updateCols = append(updateCols, "deleted_at")
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   conflictCols,
		DoUpdates: clause.AssignmentColumns(updateCols),
	}).Create(rec).Error
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, errs.ErrUnknownReference
		}
		return 0, errs.Storage("upsert "+string(kind), err)
	}
	return ts, nil
}

// SoftDelete tombstones key at ts. It does not check the current state;
// callers skip the call for rows that are already tombstoned.
func (r *Repository) SoftDelete(kind entities.Kind, key entities.Key, ts int64) error {
	err := r.db.Table(kind.TableName()).
		Scopes(database.KeyScope(kind, key)).
		Updates(map[string]any{"deleted_at": ts, "updated_at": ts}).Error
	return errs.Storage("soft delete "+string(kind), err)
}

// CascadeSoftDelete tombstones every bookmark and highlight of the book at ts.
func (r *Repository) CascadeSoftDelete(username, fileID string, ts int64) error {
	for _, kind := range cascadeKinds {
		err := r.db.Table(kind.TableName()).
			Where("username = ? AND file_id = ?", username, fileID).
			Updates(map[string]any{"deleted_at": ts, "updated_at": ts}).Error
		if err != nil {
			return errs.Storage("cascade soft delete "+string(kind), err)
		}
	}
	return nil
}

// DeleteBookState tombstones a book state and cascades to its annotations in
// one transaction.
func (r *Repository) DeleteBookState(username, fileID string, ts int64) error {
	return r.Transaction(func(tx *Repository) error {
		key := entities.Key{Username: username, FileID: fileID}
		if err := tx.SoftDelete(entities.KindBookState, key, ts); err != nil {
			return err
		}
		return tx.CascadeSoftDelete(username, fileID, ts)
	})
}

// List returns every row of kind for one book, tombstones included, ordered
// by item id.
func (r *Repository) List(kind entities.Kind, username, fileID string) ([]entities.Record, error) {
	q := r.db.Where("username = ? AND file_id = ?", username, fileID)
	if kind.ItemScoped() {
		q = q.Order("id ASC")
	}
	rows, err := database.FindRecords(q, kind)
	if err != nil {
		return nil, errs.Storage("list "+string(kind), err)
	}
	return rows, nil
}

// Transaction runs fn with a repository bound to a single transaction.
func (r *Repository) Transaction(fn func(tx *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) requireBook(fileID string) error {
	var n int64
	if err := r.db.Model(&entities.Book{}).Where("file_id = ?", fileID).Count(&n).Error; err != nil {
		return errs.Storage("lookup book", err)
	}
	if n == 0 {
		return errs.ErrUnknownReference
	}
	return nil
}
