package api

import "audioscribe/internal/app/model"

// Recognizer is one streaming recognition pass over a single audio file. The
// adapter feeds it bounded PCM chunks; whenever AcceptWaveform reports a
// completed utterance the words so far are read with Result, and FinalResult
// flushes whatever remains after the last chunk.
type Recognizer interface {
	// AcceptWaveform consumes one chunk of 16-bit little-endian PCM and
	// reports whether a complete utterance is ready to be read.
	AcceptWaveform(data []byte) (bool, error)

	// Result returns the words of the completed utterance.
	Result() ([]model.Word, error)

	// FinalResult returns the words of the trailing partial utterance.
	FinalResult() ([]model.Word, error)

	// Close releases engine resources for this pass.
	Close() error
}

// SpeechEngine creates recognition passes against a resolved model directory.
type SpeechEngine interface {
	NewRecognizer(modelDir string, sampleRate int) (Recognizer, error)
}
