// Package database provides the relational store for the sync server.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── errors.go        # SQLite constraint classification
//	├── records.go       # Kind-dispatched row loading shared by the readers
//	├── syncstore/       # Tombstoned CRUD over the four per-user kinds
//	├── changefeed/      # Cursor-paged incremental export
//	├── catalog/         # Content-addressed book catalog
//	├── users/           # Reader accounts
//	└── events/          # Account activity log
//
// # Schema
//
//	users            (username PK, pwd_hash, created_at)
//	books            (file_id PK, sha256, filesize, location, filename, updated_at,
//	                  UNIQUE(sha256, filesize))
//	user_books       (username, file_id, progress, updated_at, deleted_at)
//	user_bookmarks   (username, file_id, id, locator, label, updated_at, deleted_at)
//	user_highlights  (username, file_id, id, selection, label, colour, updated_at, deleted_at)
//	user_notes       (username, file_id, id, locator, content, updated_at, deleted_at)
//	events           (id PK, username, event_type, action, detail, ip_address,
//	                  user_agent, status, created_at)
//
// Every per-user table references users ON DELETE CASCADE and books ON DELETE
// RESTRICT. Rows are never physically removed by this code: a delete sets
// deleted_at (a tombstone) so offline devices still observe it.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./readsync.db")
//
//	store := syncstore.NewRepository(db.DB)
//	feed := changefeed.NewRepository(db.DB)
//	books := catalog.NewRepository(db.DB)
//
//	state, err := store.GetState(entities.KindBookState, key)
//	page, err := feed.ListSince(entities.KindHighlight, "alice", 0, 100)
//
// # Adding a New Kind
//
//  1. Add the entity and its Record methods in internal/entities
//  2. Register it in entities.ParseKind, Kind.TableName and FindRecords
//  3. Add it to the AutoMigrate list in NewDatabase
package database
