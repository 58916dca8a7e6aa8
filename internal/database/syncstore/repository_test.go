package syncstore

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/errs"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "sync.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.DB.Create(&entities.User{Username: "alice", PasswordHash: "x"}).Error)
	require.NoError(t, db.DB.Create(&entities.Book{
		FileID: "B1", SHA256: strings.Repeat("a", 64), FileSize: 10, Location: "/lib/B1", UpdatedAt: 1,
	}).Error)

	return NewRepository(db.DB)
}

func bookKey() entities.Key {
	return entities.Key{Username: "alice", FileID: "B1"}
}

func TestRepository_GetState_NeverSeen(t *testing.T) {
	repo := setupTestDB(t)

	state, err := repo.GetState(entities.KindBookState, bookKey())

	require.NoError(t, err)
	assert.Equal(t, entities.RowState{}, state)
}

func TestRepository_UpsertAndTombstoneLifecycle(t *testing.T) {
	repo := setupTestDB(t)

	ts, err := repo.Upsert(&entities.UserBookState{Username: "alice", FileID: "B1", Progress: "p1"}, true, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ts)

	state, err := repo.GetState(entities.KindBookState, bookKey())
	require.NoError(t, err)
	assert.Equal(t, entities.RowState{Exists: true, UpdatedAt: 100}, state)

	require.NoError(t, repo.SoftDelete(entities.KindBookState, bookKey(), 150))

	state, err = repo.GetState(entities.KindBookState, bookKey())
	require.NoError(t, err)
	assert.Equal(t, entities.RowState{Deleted: true, UpdatedAt: 150, DeletedAt: 150}, state)
	assert.Equal(t, int64(150), state.EffectiveTimestamp())

	_, err = repo.Upsert(&entities.UserBookState{Username: "alice", FileID: "B1", Progress: "p2"}, true, 200)
	require.NoError(t, err)

	state, err = repo.GetState(entities.KindBookState, bookKey())
	require.NoError(t, err)
	assert.Equal(t, entities.RowState{Exists: true, UpdatedAt: 200}, state)

	rows, err := repo.List(entities.KindBookState, "alice", "B1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", rows[0].(*entities.UserBookState).Progress)
}

func TestRepository_UpsertWithoutResurrectKeepsTombstone(t *testing.T) {
	repo := setupTestDB(t)
	key := entities.Key{Username: "alice", FileID: "B1", ItemID: 1}

	_, err := repo.Upsert(&entities.Bookmark{Username: "alice", FileID: "B1", ID: 1, Locator: "l1"}, true, 10)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(entities.KindBookmark, key, 20))

	_, err = repo.Upsert(&entities.Bookmark{Username: "alice", FileID: "B1", ID: 1, Locator: "l2"}, false, 30)
	require.NoError(t, err)

	state, err := repo.GetState(entities.KindBookmark, key)
	require.NoError(t, err)
	assert.True(t, state.Deleted)
	assert.Equal(t, int64(20), state.DeletedAt)
	assert.Equal(t, int64(30), state.UpdatedAt)
}

func TestRepository_Upsert_UnknownBook(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Upsert(&entities.Highlight{Username: "alice", FileID: "missing", ID: 1}, true, 10)

	assert.ErrorIs(t, err, errs.ErrUnknownReference)
}

func TestRepository_ItemsAreIndependent(t *testing.T) {
	repo := setupTestDB(t)

	for id := int64(1); id <= 3; id++ {
		_, err := repo.Upsert(&entities.Highlight{Username: "alice", FileID: "B1", ID: id, Selection: "s", Colour: "yellow"}, true, 10*id)
		require.NoError(t, err)
	}
	require.NoError(t, repo.SoftDelete(entities.KindHighlight, entities.Key{Username: "alice", FileID: "B1", ItemID: 2}, 99))

	rows, err := repo.List(entities.KindHighlight, "alice", "B1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var ids []int64
	for _, r := range rows {
		ids = append(ids, r.RecordKey().ItemID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Nil(t, rows[0].(*entities.Highlight).DeletedAt)
	require.NotNil(t, rows[1].(*entities.Highlight).DeletedAt)
	assert.Equal(t, int64(99), *rows[1].(*entities.Highlight).DeletedAt)
}

func TestRepository_DeleteBookState_CascadesExceptNotes(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Upsert(&entities.UserBookState{Username: "alice", FileID: "B1"}, true, 10)
	require.NoError(t, err)
	_, err = repo.Upsert(&entities.Bookmark{Username: "alice", FileID: "B1", ID: 1}, true, 11)
	require.NoError(t, err)
	_, err = repo.Upsert(&entities.Highlight{Username: "alice", FileID: "B1", ID: 1}, true, 12)
	require.NoError(t, err)
	_, err = repo.Upsert(&entities.Note{Username: "alice", FileID: "B1", ID: 1, Content: "keep"}, true, 13)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBookState("alice", "B1", 500))

	item := entities.Key{Username: "alice", FileID: "B1", ItemID: 1}
	for _, kind := range []entities.Kind{entities.KindBookmark, entities.KindHighlight} {
		state, err := repo.GetState(kind, item)
		require.NoError(t, err)
		assert.True(t, state.Deleted, kind)
		assert.Equal(t, int64(500), state.DeletedAt, kind)
	}

	state, err := repo.GetState(entities.KindBookState, bookKey())
	require.NoError(t, err)
	assert.Equal(t, int64(500), state.DeletedAt)

	state, err = repo.GetState(entities.KindNote, item)
	require.NoError(t, err)
	assert.True(t, state.Exists, "notes are not cascaded")
	assert.Equal(t, int64(13), state.UpdatedAt)
}
