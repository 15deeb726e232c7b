package model

// JobStatus is the lifecycle state of a transcription job. A job is created
// as StatusQueued and is moved exactly once, by the worker, to one of the
// terminal states.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusTranscribed JobStatus = "transcribed"
	StatusError       JobStatus = "error"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == StatusTranscribed || s == StatusError
}

// FileRecord describes an uploaded file saved to disk. It is created once by
// the catalog and never mutated afterwards.
type FileRecord struct {
	FileID           string `json:"file_id"`
	OriginalFilename string `json:"original_filename"`
	StoragePath      string `json:"path"`
	SizeBytes        uint64 `json:"size"`
}

// JobSpec is the unit of work placed on the queue. JobID is minted by the
// queue at enqueue time; exactly one JobSpec exists per accepted upload.
type JobSpec struct {
	JobID string     `json:"job_id"`
	File  FileRecord `json:"file"`
}

// JobResult is the durable state of a job. The worker mutates Status exactly
// once, from queued to a terminal state, filling either the transcript and
// output paths or the error message.
type JobResult struct {
	JobID        string               `json:"job_id"`
	File         FileRecord           `json:"file"`
	Status       JobStatus            `json:"status"`
	Transcript   *TranscriptionOutput `json:"transcript,omitempty"`
	JSONPath     string               `json:"json_path,omitempty"`
	VTTPath      string               `json:"vtt_path,omitempty"`
	ErrorMessage string               `json:"error,omitempty"`
}
