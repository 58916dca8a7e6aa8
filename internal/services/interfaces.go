package services

import (
	"github.com/mrlokans/readsync/internal/database/changefeed"
	"github.com/mrlokans/readsync/internal/entities"
)

// SyncStore is tombstoned storage for the synchronized record kinds.
type SyncStore interface {
	GetState(kind entities.Kind, key entities.Key) (entities.RowState, error)
	Upsert(rec entities.Record, resurrect bool, ts int64) (int64, error)
	SoftDelete(kind entities.Kind, key entities.Key, ts int64) error
	DeleteBookState(username, fileID string, ts int64) error
	List(kind entities.Kind, username, fileID string) ([]entities.Record, error)
}

// ChangeFeed pages through rows changed at or after a cursor.
type ChangeFeed interface {
	ListSince(kind entities.Kind, username string, since int64, limit int) (changefeed.Page, error)
}

// Clock returns the current server time in epoch milliseconds.
type Clock func() int64
