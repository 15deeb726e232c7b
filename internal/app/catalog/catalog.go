package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"audioscribe/internal/app/model"
)

// Catalog assigns unique on-disk identities to uploaded files. It exclusively
// owns the bytes under the upload directory; records it returns are immutable.
type Catalog struct {
	uploadDir string
}

func New(uploadDir string) *Catalog {
	return &Catalog{uploadDir: uploadDir}
}

// Save persists uploaded content under a fresh UUID, keeping the original
// extension so the worker can tell whether conversion is needed.
func (c *Catalog) Save(content []byte, filename string) (model.FileRecord, error) {
	if err := os.MkdirAll(c.uploadDir, os.ModePerm); err != nil {
		return model.FileRecord{}, fmt.Errorf("create upload dir: %w", err)
	}

	fileID := uuid.New().String()
	path := filepath.Join(c.uploadDir, fileID+filepath.Ext(filename))

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return model.FileRecord{}, fmt.Errorf("save upload %s: %w", filename, err)
	}

	return model.FileRecord{
		FileID:           fileID,
		OriginalFilename: filename,
		StoragePath:      path,
		SizeBytes:        uint64(len(content)),
	}, nil
}

// Dir returns the upload directory.
func (c *Catalog) Dir() string {
	return c.uploadDir
}
