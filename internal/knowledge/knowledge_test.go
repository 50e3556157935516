package knowledge

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadReadsWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resort.md")
	writeFile(t, path, "# Resort A\nopen, $100/night\n")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "# Resort A\nopen, $100/night\n", doc.Content)
	assert.Equal(t, "resort.md", doc.Name)
	assert.False(t, doc.Empty())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.md"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadRejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.md")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	writeFile(t, path, " \n\t")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.True(t, doc.Empty())
}

func TestStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resort.md")
	writeFile(t, path, "v1")

	store, err := NewStore(path, nil, nil)
	require.NoError(t, err)

	writeFile(t, path, "v2")
	require.NoError(t, store.Reload())

	doc, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "v2", doc.Content)

	require.NoError(t, os.Remove(path))
	assert.Error(t, store.Reload())

	_, err = store.Current()
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestStoreReloadKeepsPreviousOnDecodeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resort.md")
	writeFile(t, path, "good")

	store, err := NewStore(path, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte{0xff}, 0o644))
	assert.ErrorIs(t, store.Reload(), ErrInvalidEncoding)

	doc, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "good", doc.Content)
}

func TestNewStoreFailsWithoutFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope.md"), nil, nil)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestStoreWatchPicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resort.md")
	writeFile(t, path, "before")

	store, err := NewStore(path, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "after")

	assert.Eventually(t, func() bool {
		doc, err := store.Current()
		return err == nil && doc.Content == "after"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
