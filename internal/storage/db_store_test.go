package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cnap-oss/mybots/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDBStore(t *testing.T) (*storage.DBStore, *storage.Repository) {
	t.Helper()

	db, err := storage.Open(storage.Config{
		DSN:      filepath.Join(t.TempDir(), "meow.db"),
		LogLevel: gormlogger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	t.Cleanup(func() {
		require.NoError(t, storage.Close(db))
	})

	repo, err := storage.NewRepository(db)
	require.NoError(t, err)
	return storage.NewDBStore(repo), repo
}

func TestNewRepository_NilDB(t *testing.T) {
	_, err := storage.NewRepository(nil)
	assert.Error(t, err)
}

func TestDBStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDBStore(t)

	_, ok, err := s.Get(ctx, "u", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "u", 1, "r1"))
	require.NoError(t, s.Set(ctx, "u", 2, "r2"))
	require.NoError(t, s.Save(ctx))

	roleID, ok, err := s.Get(ctx, "u", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r1", roleID)

	// 같은 슬롯에 다시 쓰면 갱신
	require.NoError(t, s.Set(ctx, "u", 1, "r1b"))
	slots, err := s.Slots(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "r1b", 2: "r2"}, slots)

	require.NoError(t, s.Delete(ctx, "u", 1))
	require.NoError(t, s.Delete(ctx, "u", 2))
	slots, err = s.Slots(ctx, "u")
	require.NoError(t, err)
	assert.Nil(t, slots)
}

func TestDBStore_Snapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestDBStore(t)

	require.NoError(t, s.Set(ctx, "a", 1, "ra1"))
	require.NoError(t, s.Set(ctx, "a", 4, "ra4"))
	require.NoError(t, s.Set(ctx, "b", 1, "rb1"))

	doc, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Document{
		"a": {1: "ra1", 4: "ra4"},
		"b": {1: "rb1"},
	}, doc)
}

func TestRepository_ImportDocument(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestDBStore(t)

	require.NoError(t, s.Set(ctx, "a", 1, "old"))

	n, err := repo.ImportDocument(ctx, storage.Document{
		"a": {1: "new", 2: "ra2"},
		"b": {3: "rb3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	doc, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Document{
		"a": {1: "new", 2: "ra2"},
		"b": {3: "rb3"},
	}, doc)
}

func TestRepository_ImportDocumentRollsBackOnInvalidSlot(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestDBStore(t)

	_, err := repo.ImportDocument(ctx, storage.Document{"a": {0: "bad"}})
	assert.ErrorIs(t, err, storage.ErrInvalidSlot)

	doc, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestRepository_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestDBStore(t)

	assert.ErrorIs(t, repo.UpsertRoleSlot(ctx, "", 1, "r"), storage.ErrEmptyUserID)
	assert.ErrorIs(t, repo.UpsertRoleSlot(ctx, "u", -1, "r"), storage.ErrInvalidSlot)
	_, err := repo.ListRoleSlotsByUser(ctx, "")
	assert.ErrorIs(t, err, storage.ErrEmptyUserID)
}
