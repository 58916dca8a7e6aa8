package catalog

import (
	"errors"
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
	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "catalog.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func book(id string, c string, size int64) *entities.Book {
	return &entities.Book{
		FileID: id, SHA256: strings.Repeat(c, 64), FileSize: size, Location: "/lib/" + id, FileName: id + ".epub", UpdatedAt: 1,
	}
}

func TestRepository_InsertAndLookup(t *testing.T) {
	repo := setupTestDB(t)

	_, ok, err := repo.LookupByContent(strings.Repeat("a", 64), 10)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Insert(book("B1", "a", 10)))

	id, ok, err := repo.LookupByContent(strings.Repeat("a", 64), 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "B1", id)

	_, ok, err = repo.LookupByContent(strings.Repeat("a", 64), 11)
	require.NoError(t, err)
	assert.False(t, ok, "size is part of the content key")

	exists, err := repo.Exists("B1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_InsertDuplicateContent(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Insert(book("B1", "a", 10)))

	err := repo.Insert(book("B2", "a", 10))

	assert.ErrorIs(t, err, ErrDuplicateContent)
	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRepository_GetByFileID(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Insert(book("B1", "b", 42)))

	got, err := repo.GetByFileID("B1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.FileSize)
	assert.Equal(t, "/lib/B1", got.Location)
	assert.Equal(t, "B1.epub", got.DisplayName())

	_, err = repo.GetByFileID("missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepository_Each(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Insert(book("B2", "b", 1)))
	require.NoError(t, repo.Insert(book("B1", "a", 1)))
	require.NoError(t, repo.Insert(book("B3", "c", 1)))

	var ids []string
	require.NoError(t, repo.Each(2, func(b entities.Book) error {
		ids = append(ids, b.FileID)
		return nil
	}))
	assert.Equal(t, []string{"B1", "B2", "B3"}, ids)

	stop := errors.New("stop")
	err := repo.Each(2, func(b entities.Book) error { return stop })
	assert.ErrorIs(t, err, stop)
}
