// Package activity records account activity (logins, uploads) in the
// background so request handlers never wait on the write.
package activity

import (
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/readsync/internal/entities"
)

// Store persists and queries events.
type Store interface {
	LogEvent(event *entities.Event) error
	Recent(username string, limit int) ([]entities.Event, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Log provides high-level activity logging.
type Log struct {
	store Store
	now   func() time.Time
	wg    sync.WaitGroup
}

func NewLog(store Store) *Log {
	return &Log{store: store, now: time.Now}
}

// Record saves an event synchronously.
func (l *Log) Record(event *entities.Event) error {
	return l.store.LogEvent(event)
}

// RecordAsync saves an event in the background. Failures are logged.
func (l *Log) RecordAsync(event *entities.Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = l.now()
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.store.LogEvent(event); err != nil {
			log.Printf("Failed to record activity event: %v", err)
		}
	}()
}

// Wait blocks until every pending RecordAsync write has finished.
func (l *Log) Wait() {
	l.wg.Wait()
}

// LogLogin records a login attempt. An empty failure means success;
// otherwise it names the reason, e.g. "invalid_credentials".
func (l *Log) LogLogin(username, ip, userAgent, failure string) {
	event := &entities.Event{
		Username:  truncate(username, 64),
		Type:      entities.EventAuth,
		Action:    "login",
		IPAddress: ip,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.EventSuccess,
	}
	if failure != "" {
		event.Status = entities.EventFailed
		event.Detail = failure
	}
	l.RecordAsync(event)
}

// LogUpload records a book upload and its outcome.
func (l *Log) LogUpload(username, fileID string, err error) {
	event := &entities.Event{
		Username: username,
		Type:     entities.EventLibrary,
		Action:   "upload",
		Status:   entities.EventSuccess,
	}
	if err != nil {
		event.Status = entities.EventFailed
		event.Detail = truncate(err.Error(), 500)
	} else {
		event.Detail = truncate(fileID, 500)
	}
	l.RecordAsync(event)
}

// Recent returns the newest events of a user.
func (l *Log) Recent(username string, limit int) ([]entities.Event, error) {
	return l.store.Recent(username, limit)
}

// Prune removes events older than retention.
func (l *Log) Prune(retention time.Duration) (int64, error) {
	return l.store.DeleteOlderThan(l.now().Add(-retention))
}

// truncate caps s at maxLen bytes, cutting on a rune boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
