package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"audioscribe/internal/api/v1/dto"
	"audioscribe/internal/app/catalog"
	apperrors "audioscribe/internal/app/errors"
	"audioscribe/internal/app/metrics"
	"audioscribe/internal/app/model"
	"audioscribe/internal/app/queue"
)

// AcceptedExtensions is the upload whitelist. Anything else is rejected
// before a byte hits the queue.
var AcceptedExtensions = []string{".mp3", ".wav", ".mp4", ".m4a", ".aac", ".flac"}

// TranscriptionService is the business layer behind the transcription
// endpoints.
type TranscriptionService interface {
	Submit(ctx context.Context, filename string, content []byte) (dto.UploadResponse, error)
	GetJob(ctx context.Context, jobID string) (*dto.JobResponse, error)
	ListJobs(ctx context.Context, limit int) (dto.JobListResponse, error)
}

type transcriptionService struct {
	catalog *catalog.Catalog
	queue   queue.JobQueue
}

func NewTranscriptionService(cat *catalog.Catalog, q queue.JobQueue) TranscriptionService {
	return &transcriptionService{catalog: cat, queue: q}
}

// Submit validates, stores and enqueues an upload. The returned response
// carries the job ID the client polls for the result.
func (s *transcriptionService) Submit(ctx context.Context, filename string, content []byte) (dto.UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !lo.Contains(AcceptedExtensions, ext) {
		metrics.UploadsRejected.Inc()
		return dto.UploadResponse{}, apperrors.Wrap(apperrors.ErrUnsupportedFileType,
			fmt.Errorf("%q is not accepted, use one of: %s", ext, strings.Join(AcceptedExtensions, ", ")))
	}

	file, err := s.catalog.Save(content, filename)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	jobID, err := s.queue.Enqueue(ctx, file)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	metrics.UploadsAccepted.Inc()
	return dto.UploadResponse{
		Message:  "transcription job accepted",
		JobID:    jobID,
		FileID:   file.FileID,
		Filename: file.OriginalFilename,
		Status:   string(model.StatusQueued),
	}, nil
}

// GetJob returns the job's current state, or nil when the ID is unknown.
func (s *transcriptionService) GetJob(ctx context.Context, jobID string) (*dto.JobResponse, error) {
	result, err := s.queue.GetResult(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	resp := dto.JobFromResult(*result)
	return &resp, nil
}

// ListJobs reports the pending queue, truncating the ID list at limit.
func (s *transcriptionService) ListJobs(ctx context.Context, limit int) (dto.JobListResponse, error) {
	count, err := s.queue.Count(ctx)
	if err != nil {
		return dto.JobListResponse{}, err
	}
	ids, err := s.queue.JobIDs(ctx)
	if err != nil {
		return dto.JobListResponse{}, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return dto.JobListResponse{Count: count, JobIDs: ids}, nil
}
