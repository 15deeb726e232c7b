package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "audioscribe/internal/app/errors"
	"audioscribe/internal/app/model"
)

// Writer persists transcription outputs under a single directory, one
// <fileID>.json and <fileID>.vtt pair per job. File names derive from the
// globally unique file identity, so concurrent workers never collide.
type Writer struct {
	dir string
}

func NewWriter(transcriptionDir string) *Writer {
	return &Writer{dir: transcriptionDir}
}

// WriteJSON writes the structured transcription result and returns its path.
func (w *Writer) WriteJSON(fileID string, out model.TranscriptionOutput) (string, error) {
	if err := os.MkdirAll(w.dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create transcription dir: %w", err)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcription: %w", err)
	}

	path := filepath.Join(w.dir, fileID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteVTT writes the subtitle rendition and returns its path.
func (w *Writer) WriteVTT(fileID string, out model.TranscriptionOutput) (string, error) {
	if err := os.MkdirAll(w.dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create transcription dir: %w", err)
	}

	path := filepath.Join(w.dir, fileID+".vtt")
	if err := os.WriteFile(path, []byte(RenderVTT(out)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ExtractText reads a previously written JSON result and returns its plain
// transcript. Older results may lack the top-level text field, in which case
// the segment texts are joined; anything else is malformed.
func ExtractText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", jsonPath, err)
	}

	var raw struct {
		Text     *string `json:"text"`
		Segments []struct {
			Text string `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", apperrors.Wrap(apperrors.ErrMalformedOutput, err)
	}

	if raw.Text != nil {
		return *raw.Text, nil
	}
	if raw.Segments != nil {
		texts := make([]string, 0, len(raw.Segments))
		for _, s := range raw.Segments {
			texts = append(texts, s.Text)
		}
		return strings.TrimSpace(strings.Join(texts, " ")), nil
	}
	return "", apperrors.Wrap(apperrors.ErrMalformedOutput, fmt.Errorf("no text or segments in %s", jsonPath))
}
