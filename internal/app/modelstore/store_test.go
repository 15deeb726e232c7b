package modelstore

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "audioscribe/internal/app/errors"
)

// modelZip builds an archive containing <name>/am/final.mdl, the shape Vosk
// model archives ship in.
func modelZip(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(name + "/am/final.mdl")
	require.NoError(t, err)
	_, err = w.Write([]byte("model weights"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testStore(t *testing.T, url string) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	catalog := NewCatalog([]Descriptor{
		{Language: "en", Size: SizeSmall, Name: "test-model-en-small", URL: url},
	})
	store := NewStore(root, catalog)
	store.progress = false
	return store, root
}

func TestStore_Resolve_DownloadsAndExtracts(t *testing.T) {
	archive := modelZip(t, "test-model-en-small")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	store, root := testStore(t, server.URL+"/test-model-en-small.zip")

	handle, err := store.Resolve(context.Background(), "en", "small")
	require.NoError(t, err)

	assert.Equal(t, "test-model-en-small", handle.Name)
	assert.Equal(t, filepath.Join(root, "test-model-en-small"), handle.Dir)

	content, err := os.ReadFile(filepath.Join(handle.Dir, "am", "final.mdl"))
	require.NoError(t, err)
	assert.Equal(t, "model weights", string(content))
}

func TestStore_Resolve_CachedModelSkipsDownload(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(modelZip(t, "test-model-en-small"))
	}))
	defer server.Close()

	store, _ := testStore(t, server.URL+"/m.zip")
	ctx := context.Background()

	_, err := store.Resolve(ctx, "en", "small")
	require.NoError(t, err)
	_, err = store.Resolve(ctx, "en", "small")
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
}

func TestStore_Resolve_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	store, _ := testStore(t, server.URL+"/m.zip")

	_, err := store.Resolve(context.Background(), "en", "small")

	assert.ErrorIs(t, err, apperrors.ErrModelDownloadFailed)
}

func TestStore_Resolve_ArchiveMissingModelDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(modelZip(t, "some-other-dir"))
	}))
	defer server.Close()

	store, _ := testStore(t, server.URL+"/m.zip")

	_, err := store.Resolve(context.Background(), "en", "small")

	assert.ErrorIs(t, err, apperrors.ErrModelDownloadFailed)
}

func TestStore_Resolve_UnknownLanguageUsesFallback(t *testing.T) {
	archive := modelZip(t, "test-model-en-small")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	store, _ := testStore(t, server.URL+"/m.zip")

	handle, err := store.Resolve(context.Background(), "JA", "SMALL")
	require.NoError(t, err)
	assert.Equal(t, "en", handle.Language)
}
