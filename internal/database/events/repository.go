// Package events stores the account activity log.
package events

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an event, stamping CreatedAt when it is unset.
func (r *Repository) LogEvent(event *entities.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := r.db.Create(event).Error; err != nil {
		return errs.Storage("log event", err)
	}
	return nil
}

// Recent returns the newest events of a user, most recent first. A zero or
// negative limit uses DefaultLimit.
func (r *Repository) Recent(username string, limit int) ([]entities.Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var events []entities.Event
	err := r.db.Where("username = ?", username).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errs.Storage("list events", err)
	}
	return events, nil
}

// DeleteOlderThan removes events created before cutoff and returns how many
// were removed.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.Event{})
	if result.Error != nil {
		return 0, errs.Storage("prune events", result.Error)
	}
	return result.RowsAffected, nil
}
