package repository

import (
	"audioscribe/internal/app/model"
)

// TranscriptionDAO records terminal job outcomes for later introspection.
// The durable job state the API serves lives in the queue backend; this store
// is the processing history a single worker host accumulates.
type TranscriptionDAO interface {
	Close() error

	// RecordJob inserts one terminal outcome.
	RecordJob(result model.JobResult, audioDuration float64) error

	// GetRecent returns the newest n history rows.
	GetRecent(n int) ([]model.Transcription, error)

	// CheckIfFileProcessed returns the row id of a successful run for the
	// given file identity, or an error if none exists.
	CheckIfFileProcessed(fileID string) (int, error)
}
