package model

import "time"

// Transcription is one row of the job history kept in sqlite. It records the
// terminal outcome of a job for introspection and export; the durable job
// state itself lives in the queue backend.
type Transcription struct {
	ID            int
	JobID         string
	FileID        string
	FileName      string
	Status        string
	AudioDuration float64
	Transcription string
	ErrorMessage  string
	ProcessedAt   time.Time
}
