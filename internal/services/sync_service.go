package services

import (
	"time"

	"github.com/mrlokans/readsync/internal/conflict"
	"github.com/mrlokans/readsync/internal/database/changefeed"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

// SyncService runs the read-decide-write cycle for synchronized rows:
// read the server state, consult the conflict policy, then write.
//
// The cycle is not transactional. Two concurrent writers of the same key may
// both pass the conflict check and the later physical write wins.
type SyncService struct {
	store SyncStore
	feed  ChangeFeed
	now   Clock
}

// NewSyncService wires the service. A nil clock uses wall time.
func NewSyncService(store SyncStore, feed ChangeFeed, now Clock) *SyncService {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &SyncService{store: store, feed: feed, now: now}
}

func validateKey(kind entities.Kind, key entities.Key) error {
	if key.Username == "" {
		return errs.ErrUnauthorised
	}
	if !kind.Valid() {
		return errs.Invalid("unknown table")
	}
	if key.FileID == "" {
		return errs.Invalid("no fileId")
	}
	return nil
}

// Check reports the server state of key.
func (s *SyncService) Check(kind entities.Kind, key entities.Key) (entities.RowState, error) {
	if err := validateKey(kind, key); err != nil {
		return entities.RowState{}, err
	}
	return s.store.GetState(kind, key)
}

// Update writes rec unless the server holds a newer version and force is
// false. The row is stamped with the server clock, which is returned.
// Accepted writes always clear a tombstone.
func (s *SyncService) Update(rec entities.Record, clientTimestamp int64, force bool) (int64, error) {
	kind, key := rec.Kind(), rec.RecordKey()
	if err := validateKey(kind, key); err != nil {
		return 0, err
	}

	state, err := s.store.GetState(kind, key)
	if err != nil {
		return 0, err
	}

	decision := conflict.Resolve(clientTimestamp, force, state)
	if !decision.Accept {
		return 0, decision.Err()
	}

	return s.store.Upsert(rec, decision.Resurrect, s.now())
}

// Delete tombstones key and returns the deletion time. Deleting a tombstone
// returns its original deletion time without writing. Deleting a book state
// also tombstones the book's bookmarks and highlights.
func (s *SyncService) Delete(kind entities.Kind, key entities.Key) (int64, error) {
	if err := validateKey(kind, key); err != nil {
		return 0, err
	}

	state, err := s.store.GetState(kind, key)
	if err != nil {
		return 0, err
	}
	switch {
	case state.Deleted:
		return state.DeletedAt, nil
	case !state.Exists:
		return 0, errs.ErrNotFound
	}

	ts := s.now()
	if kind == entities.KindBookState {
		err = s.store.DeleteBookState(key.Username, key.FileID, ts)
	} else {
		err = s.store.SoftDelete(kind, key, ts)
	}
	if err != nil {
		return 0, err
	}
	return ts, nil
}

// Get returns every row of kind for one book, tombstones included.
func (s *SyncService) Get(kind entities.Kind, username, fileID string) ([]entities.Record, error) {
	if err := validateKey(kind, entities.Key{Username: username, FileID: fileID}); err != nil {
		return nil, err
	}
	return s.store.List(kind, username, fileID)
}

// ListSince returns one page of the change feed. The limit is clamped to
// [1, changefeed.MaxLimit]; zero selects the default.
func (s *SyncService) ListSince(kind entities.Kind, username string, since int64, limit int) (changefeed.Page, error) {
	if username == "" {
		return changefeed.Page{}, errs.ErrUnauthorised
	}
	if !kind.Valid() {
		return changefeed.Page{}, errs.Invalid("unknown table")
	}
	if since < 0 {
		return changefeed.Page{}, errs.Invalid("since must not be negative")
	}
	if limit == 0 {
		limit = changefeed.DefaultLimit
	}
	return s.feed.ListSince(kind, username, since, changefeed.ClampLimit(limit))
}
