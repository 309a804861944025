package media_test

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postfeed/media"
)

func newTestStore(t *testing.T) (*media.Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := media.NewStore(dir, nil)
	require.NoError(t, err)
	return store, dir
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestAcceptStoresFile(t *testing.T) {
	store, dir := newTestStore(t)

	asset, err := store.Accept(strings.NewReader("png bytes"), "image/png", "valid.png")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, "valid.png", asset.OriginalName)
	assert.Equal(t, int64(9), asset.SizeBytes)
	assert.True(t, strings.HasSuffix(asset.StorageKey, "-valid.png"))

	// uuid prefix keeps keys collision resistant
	require.Greater(t, len(asset.StorageKey), 36)
	_, err = uuid.Parse(asset.StorageKey[:36])
	assert.NoError(t, err)

	data, err := os.ReadFile(store.Path(asset.StorageKey))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
	assert.Equal(t, 1, dirEntries(t, dir))
}

func TestAcceptGeneratesUniqueKeys(t *testing.T) {
	store, _ := newTestStore(t)

	first, err := store.Accept(strings.NewReader("a"), "image/jpeg", "same.jpg")
	require.NoError(t, err)
	second, err := store.Accept(strings.NewReader("b"), "image/jpeg", "same.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first.StorageKey, second.StorageKey)
}

func TestAcceptRejectsDisallowedType(t *testing.T) {
	store, dir := newTestStore(t)

	asset, err := store.Accept(strings.NewReader("%PDF-1.7"), "application/pdf", "doc.pdf")

	// a rejection is a silent "no file accepted" signal, not a fault
	assert.NoError(t, err)
	assert.Nil(t, asset)
	assert.Equal(t, 0, dirEntries(t, dir))
}

func TestAcceptNormalizesMimeType(t *testing.T) {
	store, _ := newTestStore(t)

	asset, err := store.Accept(strings.NewReader("jpg"), "IMAGE/JPEG; charset=binary", "photo.JPG")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "image/jpeg", asset.MimeType)
}

func TestAcceptSanitizesOriginalName(t *testing.T) {
	store, dir := newTestStore(t)

	asset, err := store.Accept(strings.NewReader("x"), "image/png", "../../etc/passwd")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.NotContains(t, asset.StorageKey, "/")
	assert.NotContains(t, asset.StorageKey, "..")
	assert.True(t, strings.HasSuffix(asset.StorageKey, "-passwd"))
	assert.Equal(t, 1, dirEntries(t, dir))

	t.Run("windows style path", func(t *testing.T) {
		asset, err := store.Accept(strings.NewReader("x"), "image/png", `C:\evil\shot.png`)
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.True(t, strings.HasSuffix(asset.StorageKey, "-shot.png"))
	})

	t.Run("name with nothing left keeps a placeholder", func(t *testing.T) {
		asset, err := store.Accept(strings.NewReader("x"), "image/png", "!!!")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.True(t, strings.HasSuffix(asset.StorageKey, "-upload"))
	})
}

func TestReleaseIsIdempotent(t *testing.T) {
	store, dir := newTestStore(t)

	asset, err := store.Accept(strings.NewReader("x"), "image/png", "gone.png")
	require.NoError(t, err)

	store.Release(asset.StorageKey)
	assert.Equal(t, 0, dirEntries(t, dir))

	// releasing the same key again, or a key that never existed,
	// swallows "not found" as success
	store.Release(asset.StorageKey)
	store.Release("never-stored.png")
	store.Release("")
	assert.Equal(t, 0, dirEntries(t, dir))
}
