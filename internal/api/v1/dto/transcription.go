package dto

import (
	"audioscribe/internal/app/model"
)

// UploadResponse acknowledges an accepted upload. The job itself finishes
// later; poll the job endpoint with the returned job_id.
type UploadResponse struct {
	Message  string `json:"message"`
	JobID    string `json:"job_id"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// JobResponse is the current state of one job. Transcript, JSONPath and
// VTTPath are set once the job is transcribed; Error once it has failed.
type JobResponse struct {
	JobID      string                     `json:"job_id"`
	FileID     string                     `json:"file_id"`
	Filename   string                     `json:"filename"`
	Status     string                     `json:"status"`
	Transcript *model.TranscriptionOutput `json:"transcript,omitempty"`
	JSONPath   string                     `json:"json_path,omitempty"`
	VTTPath    string                     `json:"vtt_path,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

// JobListResponse summarizes the pending queue.
type JobListResponse struct {
	Count  int64    `json:"count"`
	JobIDs []string `json:"job_ids"`
}

// ListJobsQuery caps how many pending IDs the list endpoint returns.
type ListJobsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// JobFromResult maps a queue result to its API shape.
func JobFromResult(result model.JobResult) JobResponse {
	return JobResponse{
		JobID:      result.JobID,
		FileID:     result.File.FileID,
		Filename:   result.File.OriginalFilename,
		Status:     string(result.Status),
		Transcript: result.Transcript,
		JSONPath:   result.JSONPath,
		VTTPath:    result.VTTPath,
		Error:      result.ErrorMessage,
	}
}
