package modelstore

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "audioscribe/internal/app/errors"
)

// Size classes in ascending order of model footprint.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// fallbackLanguage is tried when a (language, size) pair has no entry.
const fallbackLanguage = "en"

// Descriptor names a downloadable model archive.
type Descriptor struct {
	Language string `yaml:"language"`
	Size     string `yaml:"size"`
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
}

type key struct {
	language string
	size     string
}

// Catalog is the (language, size) -> model table with the two-level fallback
// policy: an absent pair falls back to English at the requested size, then to
// the smallest size available for that language.
type Catalog struct {
	entries map[key]Descriptor
}

// DefaultCatalog returns the built-in Vosk model table.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Descriptor{
		{Language: "en", Size: SizeSmall, Name: "vosk-model-small-en-us-0.15", URL: "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip"},
		{Language: "en", Size: SizeMedium, Name: "vosk-model-en-us-0.22", URL: "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22.zip"},
		{Language: "en", Size: SizeLarge, Name: "vosk-model-en-us-0.22-lgraph", URL: "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22-lgraph.zip"},
		{Language: "ru", Size: SizeSmall, Name: "vosk-model-small-ru-0.22", URL: "https://alphacephei.com/vosk/models/vosk-model-small-ru-0.22.zip"},
		{Language: "ru", Size: SizeMedium, Name: "vosk-model-ru-0.42", URL: "https://alphacephei.com/vosk/models/vosk-model-ru-0.42.zip"},
		{Language: "de", Size: SizeSmall, Name: "vosk-model-small-de-0.15", URL: "https://alphacephei.com/vosk/models/vosk-model-small-de-0.15.zip"},
		{Language: "de", Size: SizeLarge, Name: "vosk-model-de-0.21", URL: "https://alphacephei.com/vosk/models/vosk-model-de-0.21.zip"},
		{Language: "fr", Size: SizeSmall, Name: "vosk-model-small-fr-0.22", URL: "https://alphacephei.com/vosk/models/vosk-model-small-fr-0.22.zip"},
		{Language: "fr", Size: SizeLarge, Name: "vosk-model-fr-0.22", URL: "https://alphacephei.com/vosk/models/vosk-model-fr-0.22.zip"},
		{Language: "es", Size: SizeSmall, Name: "vosk-model-small-es-0.42", URL: "https://alphacephei.com/vosk/models/vosk-model-small-es-0.42.zip"},
		{Language: "es", Size: SizeLarge, Name: "vosk-model-es-0.42", URL: "https://alphacephei.com/vosk/models/vosk-model-es-0.42.zip"},
	})
}

func NewCatalog(descriptors []Descriptor) *Catalog {
	entries := make(map[key]Descriptor, len(descriptors))
	for _, d := range descriptors {
		entries[key{language: d.Language, size: d.Size}] = d
	}
	return &Catalog{entries: entries}
}

// LoadCatalog reads a model table from a YAML file, replacing the built-in
// table entirely.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model table %s: %w", path, err)
	}

	var file struct {
		Models []Descriptor `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model table %s: %w", path, err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("model table %s lists no models", path)
	}
	return NewCatalog(file.Models), nil
}

// Lookup resolves a (language, size) pair through the fallback policy.
func (c *Catalog) Lookup(language, size string) (Descriptor, error) {
	if d, ok := c.entries[key{language: language, size: size}]; ok {
		return d, nil
	}

	// Exact pair absent: retry against the fallback language.
	if d, ok := c.entries[key{language: fallbackLanguage, size: size}]; ok {
		return d, nil
	}

	// Requested size absent for the fallback language too: take its smallest
	// available size.
	sizes := c.sizesFor(fallbackLanguage)
	if len(sizes) == 0 {
		return Descriptor{}, apperrors.Wrap(apperrors.ErrNoModelAvailable,
			fmt.Errorf("no models for language %q", fallbackLanguage))
	}
	return c.entries[key{language: fallbackLanguage, size: sizes[0]}], nil
}

// Descriptors lists the table sorted by language, then size.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.entries))
	for _, d := range c.entries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Language != out[j].Language {
			return out[i].Language < out[j].Language
		}
		return sizeRank(out[i].Size) < sizeRank(out[j].Size)
	})
	return out
}

func (c *Catalog) sizesFor(language string) []string {
	var sizes []string
	for k := range c.entries {
		if k.language == language {
			sizes = append(sizes, k.size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizeRank(sizes[i]) < sizeRank(sizes[j]) })
	return sizes
}

func sizeRank(size string) int {
	switch size {
	case SizeSmall:
		return 0
	case SizeMedium:
		return 1
	case SizeLarge:
		return 2
	default:
		return 3
	}
}
