package modelstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "audioscribe/internal/app/errors"
)

func TestCatalog_Lookup_FallbackPolicy(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name     string
		language string
		size     string
		wantName string
	}{
		{
			name:     "exact_pair",
			language: "en",
			size:     "medium",
			wantName: "vosk-model-en-us-0.22",
		},
		{
			name:     "exact_pair_non_english",
			language: "ru",
			size:     "small",
			wantName: "vosk-model-small-ru-0.22",
		},
		{
			name:     "unknown_language_falls_back_to_english_same_size",
			language: "ja",
			size:     "medium",
			wantName: "vosk-model-en-us-0.22",
		},
		{
			name:     "missing_pair_falls_back_to_english_even_if_language_has_other_sizes",
			language: "de",
			size:     "medium",
			wantName: "vosk-model-en-us-0.22",
		},
		{
			name:     "unknown_size_falls_back_to_smallest_english",
			language: "ja",
			size:     "gigantic",
			wantName: "vosk-model-small-en-us-0.15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := catalog.Lookup(tt.language, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, desc.Name)
		})
	}
}

func TestCatalog_Lookup_NoFallbackEntries(t *testing.T) {
	// A table with no English entries at all cannot satisfy the fallback.
	catalog := NewCatalog([]Descriptor{
		{Language: "ru", Size: SizeSmall, Name: "ru-small", URL: "http://example/ru.zip"},
	})

	_, err := catalog.Lookup("ja", "small")

	assert.ErrorIs(t, err, apperrors.ErrNoModelAvailable)
}

func TestCatalog_Lookup_SmallestPrefersSmall(t *testing.T) {
	catalog := NewCatalog([]Descriptor{
		{Language: "en", Size: SizeLarge, Name: "en-large", URL: "u"},
		{Language: "en", Size: SizeSmall, Name: "en-small", URL: "u"},
	})

	desc, err := catalog.Lookup("en", "medium")
	require.NoError(t, err)
	assert.Equal(t, "en-small", desc.Name)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	content := `models:
  - language: en
    size: small
    name: custom-en-small
    url: https://models.example.com/custom-en-small.zip
  - language: pt
    size: small
    name: custom-pt-small
    url: https://models.example.com/custom-pt-small.zip
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	desc, err := catalog.Lookup("pt", "small")
	require.NoError(t, err)
	assert.Equal(t, "custom-pt-small", desc.Name)

	// The loaded table replaces the built-in one.
	desc, err = catalog.Lookup("ru", "small")
	require.NoError(t, err)
	assert.Equal(t, "custom-en-small", desc.Name)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("models: []"), 0o644))
	_, err := LoadCatalog(empty)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
