// Package changefeed provides the cursor-paged incremental export of the
// synchronized tables.
//
// A page holds the rows whose effective timestamp (deleted_at if set, else
// updated_at) is at or after the cursor, ordered by (timestamp, file_id, id).
// One extra row is fetched to detect truncation. When the page is truncated
// the next cursor is the timestamp of that extra row, so rows sharing a
// boundary timestamp are re-delivered instead of skipped. Consumers must
// apply rows as idempotent upserts keyed by the record's own key.
//
// # Usage
//
//	feed := changefeed.NewRepository(db)
//	since := int64(0)
//	for {
//		page, err := feed.ListSince(entities.KindBookmark, "alice", since, 100)
//		...
//		if !page.Truncated {
//			break
//		}
//		since = page.NextSince
//	}
package changefeed

import (
	"gorm.io/gorm"

	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

const effectiveTS = "COALESCE(deleted_at, updated_at)"

// Page is one slice of the feed.
type Page struct {
	Rows      []entities.Record
	NextSince int64
	// Truncated is true when more rows matched than were returned.
	Truncated bool
}

// Repository reads the change feed.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new change feed repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ClampLimit bounds a requested page size to [1, MaxLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ListSince returns up to limit rows of kind for username whose effective
// timestamp is >= since. Tombstoned rows are included.
func (r *Repository) ListSince(kind entities.Kind, username string, since int64, limit int) (Page, error) {
	limit = ClampLimit(limit)

	q := r.db.Where("username = ? AND "+effectiveTS+" >= ?", username, since).
		Order(effectiveTS + " ASC").
		Order("file_id ASC")
	if kind.ItemScoped() {
		q = q.Order("id ASC")
	}
	q = q.Limit(limit + 1)

	rows, err := database.FindRecords(q, kind)
	if err != nil {
		return Page{}, errs.Storage("list since "+string(kind), err)
	}

	page := Page{NextSince: NextCursor(since, rows, limit)}
	if len(rows) > limit {
		page.Truncated = true
		rows = rows[:limit]
	}
	page.Rows = rows
	return page, nil
}

// NextCursor computes the cursor that follows a scan of up to limit+1 rows
// started at since.
func NextCursor(since int64, scanned []entities.Record, limit int) int64 {
	switch {
	case len(scanned) > limit:
		return scanned[limit].EffectiveTimestamp()
	case len(scanned) > 0:
		return scanned[len(scanned)-1].EffectiveTimestamp()
	}
	return since
}
