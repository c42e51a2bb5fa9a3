package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernopendata/coldstorage/internal/backend"
	"github.com/cernopendata/coldstorage/internal/backend/localcopy"
	"github.com/cernopendata/coldstorage/internal/catalog"
)

func TestArchiveSubmitsToBoundBackend(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hot", "f")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	router := NewRouter([]Location{{
		HotPrefix:  "file://host" + filepath.Join(dir, "hot"),
		ColdPrefix: "file://host" + filepath.Join(dir, "cold"),
		Backend:    "cp",
	}})
	registry := backend.NewRegistry()
	registry.Register(localcopy.New())

	file := &catalog.File{ID: "f1", URI: "file://host" + src}
	entry, err := router.Archive(registry, file)
	require.NoError(t, err)
	assert.Equal(t, "cp", entry.Method)
	assert.NotEmpty(t, entry.MethodID)

	_, err = os.Stat(filepath.Join(dir, "cold", "f"))
	assert.NoError(t, err)
}

func TestArchiveErrorsWithoutMatchingLocation(t *testing.T) {
	router := NewRouter(nil)
	registry := backend.NewRegistry()
	file := &catalog.File{URI: "file://host/nowhere/f"}
	_, err := router.Archive(registry, file)
	assert.Error(t, err)
}

func TestClearHotIsIdempotentOnMissingFile(t *testing.T) {
	router := NewRouter(nil)
	err := router.ClearHot("file://host/tmp/does-not-exist-xyz")
	assert.NoError(t, err)
}

func TestClearHotRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	router := NewRouter(nil)
	require.NoError(t, router.ClearHot("file://host"+path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestVerifyFileDetectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cold", "f")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))

	router := NewRouter([]Location{{
		HotPrefix:  "file://host" + filepath.Join(dir, "hot"),
		ColdPrefix: "file://host" + filepath.Join(dir, "cold"),
		Backend:    "cp",
	}})
	registry := backend.NewRegistry()
	registry.Register(localcopy.New())

	ok, reason, err := router.VerifyFile(registry, catalog.ActionArchive, "file://host"+path, 999, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "different size", reason)
}

func TestVerifyFileReportsMissing(t *testing.T) {
	dir := t.TempDir()
	router := NewRouter([]Location{{
		HotPrefix:  "file://host" + filepath.Join(dir, "hot"),
		ColdPrefix: "file://host" + filepath.Join(dir, "cold"),
		Backend:    "cp",
	}})
	registry := backend.NewRegistry()
	registry.Register(localcopy.New())

	ok, reason, err := router.VerifyFile(registry, catalog.ActionArchive, "file://host"+filepath.Join(dir, "cold", "missing"), 5, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "File does not exist", reason)
}
