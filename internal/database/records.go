package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/readsync/internal/entities"
)

// FindRecords executes q against the table of kind and returns the rows as
// entities.Record values. q carries the filters, ordering and limit.
func FindRecords(q *gorm.DB, kind entities.Kind) ([]entities.Record, error) {
	switch kind {
	case entities.KindBookState:
		return findAs[entities.UserBookState](q)
	case entities.KindBookmark:
		return findAs[entities.Bookmark](q)
	case entities.KindHighlight:
		return findAs[entities.Highlight](q)
	case entities.KindNote:
		return findAs[entities.Note](q)
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

func findAs[T any, PT interface {
	*T
	entities.Record
}](q *gorm.DB) ([]entities.Record, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Record, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

// KeyScope restricts a query to the row addressed by key.
func KeyScope(kind entities.Kind, key entities.Key) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("username = ? AND file_id = ?", key.Username, key.FileID)
		if kind.ItemScoped() {
			db = db.Where("id = ?", key.ItemID)
		}
		return db
	}
}
