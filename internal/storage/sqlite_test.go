package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "storefront.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RunMigrations("migrations"))
	return store
}

func TestSQLiteStore_SetGet(t *testing.T) {
	sut := setupSQLite(t)

	require.NoError(t, sut.Set("cart", `[{"product_id":1}]`))

	value, err := sut.Get("cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"product_id":1}]`, value)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	sut := setupSQLite(t)

	require.NoError(t, sut.Set("token", "a.b.c"))
	require.NoError(t, sut.Set("token", "x.y.z"))

	value, err := sut.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "x.y.z", value)
}

func TestSQLiteStore_GetMissingKey(t *testing.T) {
	sut := setupSQLite(t)

	_, err := sut.Get("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSQLiteStore_Delete(t *testing.T) {
	sut := setupSQLite(t)

	require.NoError(t, sut.Set("wishlist", "[]"))
	require.NoError(t, sut.Delete("wishlist"))

	_, err := sut.Get("wishlist")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSQLiteStore_DeleteMissingKeyIsNoop(t *testing.T) {
	sut := setupSQLite(t)
	assert.NoError(t, sut.Delete("nope"))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storefront.db")

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.RunMigrations("migrations"))
	require.NoError(t, first.Set("cart", "[1,2,3]"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.RunMigrations("migrations"))

	value, errGet := second.Get("cart")
	require.NoError(t, errGet)
	assert.Equal(t, "[1,2,3]", value)
}

func TestMemoryStore(t *testing.T) {
	sut := NewMemoryStore()

	_, err := sut.Get("cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, sut.Set("cart", "[]"))
	value, errGet := sut.Get("cart")
	require.NoError(t, errGet)
	assert.Equal(t, "[]", value)

	require.NoError(t, sut.Delete("cart"))
	_, errMissing := sut.Get("cart")
	assert.ErrorIs(t, errMissing, ErrKeyNotFound)
}
