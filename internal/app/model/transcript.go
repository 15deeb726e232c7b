package model

// Word is a single recognized word with timing in seconds from the start of
// the audio. The adapter guarantees Start is non-decreasing across a result.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a contiguous run of words grouped by the pause heuristic.
// IDs are zero-based and contiguous in emission order; Start <= End and
// segments never overlap.
type Segment struct {
	ID    uint32  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionOutput is the complete result for one audio file. Text is the
// space-joined concatenation of the segment texts in order.
type TranscriptionOutput struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}
