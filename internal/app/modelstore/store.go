package modelstore

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	apperrors "audioscribe/internal/app/errors"
)

// ModelHandle is an opaque reference to a resolved model directory.
type ModelHandle struct {
	Name     string
	Dir      string
	Language string
	Size     string
}

// Store resolves (language, size) pairs to model directories, downloading and
// extracting archives on first use. Resolved models are cached on disk under
// the store's root, keyed by archive name.
type Store struct {
	root     string
	catalog  *Catalog
	client   *http.Client
	progress bool
}

func NewStore(root string, catalog *Catalog) *Store {
	return &Store{
		root:     root,
		catalog:  catalog,
		client:   http.DefaultClient,
		progress: true,
	}
}

// Resolve returns a handle to the model for the given language and size,
// applying the catalog's fallback policy and fetching the archive if the
// model is not on disk yet.
func (s *Store) Resolve(ctx context.Context, language, size string) (ModelHandle, error) {
	language = strings.ToLower(language)
	size = strings.ToLower(size)

	desc, err := s.catalog.Lookup(language, size)
	if err != nil {
		return ModelHandle{}, err
	}

	handle := ModelHandle{
		Name:     desc.Name,
		Dir:      filepath.Join(s.root, desc.Name),
		Language: desc.Language,
		Size:     desc.Size,
	}

	if _, err := os.Stat(handle.Dir); err == nil {
		return handle, nil
	}

	if err := s.download(ctx, desc); err != nil {
		return ModelHandle{}, apperrors.Wrap(apperrors.ErrModelDownloadFailed, err)
	}

	if _, err := os.Stat(handle.Dir); err != nil {
		return ModelHandle{}, apperrors.Wrap(apperrors.ErrModelDownloadFailed,
			fmt.Errorf("archive %s did not contain %s", desc.URL, desc.Name))
	}
	return handle, nil
}

func (s *Store) download(ctx context.Context, desc Descriptor) error {
	if err := os.MkdirAll(s.root, os.ModePerm); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", desc.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %s", desc.URL, resp.Status)
	}

	archive, err := os.CreateTemp("", desc.Name+"-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	body := resp.Body
	if s.progress {
		p := mpb.New(mpb.WithWidth(60))
		bar := p.AddBar(resp.ContentLength,
			mpb.PrependDecorators(decor.Name(desc.Name+" ")),
			mpb.AppendDecorators(decor.CountersKibiByte("% .1f / % .1f")),
		)
		proxy := bar.ProxyReader(resp.Body)
		defer proxy.Close()
		defer p.Wait()
		body = proxy
	}

	if _, err := io.Copy(archive, body); err != nil {
		return fmt.Errorf("download %s: %w", desc.URL, err)
	}

	return unzip(archive.Name(), s.root)
}

func unzip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
