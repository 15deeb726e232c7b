package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioscribe/internal/app/api"
	apperrors "audioscribe/internal/app/errors"
	"audioscribe/internal/app/model"
)

// fakeEngine scripts a recognition pass: every utteranceEvery-th chunk
// completes an utterance and pops the next word batch.
type fakeEngine struct {
	batches        [][]model.Word
	final          []model.Word
	utteranceEvery int
	acceptErr      error
	newRecErr      error

	lastSampleRate int
	chunks         int
	closed         bool
}

func (e *fakeEngine) NewRecognizer(modelDir string, sampleRate int) (api.Recognizer, error) {
	if e.newRecErr != nil {
		return nil, e.newRecErr
	}
	e.lastSampleRate = sampleRate
	return &fakeRecognizer{engine: e}, nil
}

type fakeRecognizer struct {
	engine *fakeEngine
}

func (r *fakeRecognizer) AcceptWaveform(data []byte) (bool, error) {
	if r.engine.acceptErr != nil {
		return false, r.engine.acceptErr
	}
	r.engine.chunks++
	every := r.engine.utteranceEvery
	if every == 0 {
		every = 1
	}
	return len(r.engine.batches) > 0 && r.engine.chunks%every == 0, nil
}

func (r *fakeRecognizer) Result() ([]model.Word, error) {
	if len(r.engine.batches) == 0 {
		return nil, nil
	}
	batch := r.engine.batches[0]
	r.engine.batches = r.engine.batches[1:]
	return batch, nil
}

func (r *fakeRecognizer) FinalResult() ([]model.Word, error) {
	return r.engine.final, nil
}

func (r *fakeRecognizer) Close() error {
	r.engine.closed = true
	return nil
}

// writeWav writes a mono PCM WAV with the given number of frames of silence.
func writeWav(t *testing.T, dir string, sampleRate, bitDepth, channels, frames int) string {
	t.Helper()
	path := filepath.Join(dir, "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Data:   make([]int, frames*channels),
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestTranscribe_CollectsUtterancesAndFinal(t *testing.T) {
	engine := &fakeEngine{
		batches: [][]model.Word{
			{{Text: "hi", Start: 0.0, End: 0.4}, {Text: "there", Start: 0.5, End: 0.9}},
		},
		final:          []model.Word{{Text: "friend", Start: 1.5, End: 2.0}},
		utteranceEvery: 1,
	}
	adapter := NewAdapter(engine)
	path := writeWav(t, t.TempDir(), 16000, 16, 1, 16000)

	words, err := adapter.Transcribe(context.Background(), path, "models/en-small")
	require.NoError(t, err)

	assert.Equal(t, []model.Word{
		{Text: "hi", Start: 0.0, End: 0.4},
		{Text: "there", Start: 0.5, End: 0.9},
		{Text: "friend", Start: 1.5, End: 2.0},
	}, words)
	assert.Equal(t, 16000, engine.lastSampleRate, "sample rate comes from the WAV header")
	assert.True(t, engine.closed)
	assert.GreaterOrEqual(t, engine.chunks, 2, "16000 frames stream as bounded chunks")
}

func TestTranscribe_SortsOutOfOrderUtterances(t *testing.T) {
	// Engine reports the later utterance first; the adapter must stitch.
	engine := &fakeEngine{
		batches: [][]model.Word{
			{{Text: "world", Start: 2.0, End: 2.5}},
			{{Text: "hello", Start: 0.0, End: 0.5}},
		},
		utteranceEvery: 1,
	}
	adapter := NewAdapter(engine)
	path := writeWav(t, t.TempDir(), 16000, 16, 1, 16000)

	words, err := adapter.Transcribe(context.Background(), path, "m")
	require.NoError(t, err)

	require.Len(t, words, 2)
	assert.True(t, sort.SliceIsSorted(words, func(i, j int) bool {
		return words[i].Start < words[j].Start
	}))
	assert.Equal(t, "hello", words[0].Text)
}

func TestTranscribe_RejectsNonMono(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{})
	path := writeWav(t, t.TempDir(), 16000, 16, 2, 1000)

	_, err := adapter.Transcribe(context.Background(), path, "m")

	assert.ErrorIs(t, err, apperrors.ErrInvalidAudioFormat)
}

func TestTranscribe_RejectsNon16Bit(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{})
	path := writeWav(t, t.TempDir(), 16000, 8, 1, 1000)

	_, err := adapter.Transcribe(context.Background(), path, "m")

	assert.ErrorIs(t, err, apperrors.ErrInvalidAudioFormat)
}

func TestTranscribe_RejectsNonWav(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{})
	dir := t.TempDir()
	path := filepath.Join(dir, "not.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o644))

	_, err := adapter.Transcribe(context.Background(), path, "m")

	assert.ErrorIs(t, err, apperrors.ErrInvalidAudioFormat)
}

func TestTranscribe_EngineFailure(t *testing.T) {
	engine := &fakeEngine{acceptErr: errors.New("engine exploded")}
	adapter := NewAdapter(engine)
	path := writeWav(t, t.TempDir(), 16000, 16, 1, 1000)

	_, err := adapter.Transcribe(context.Background(), path, "m")

	assert.ErrorIs(t, err, apperrors.ErrTranscriptionFailed)
	assert.Contains(t, err.Error(), "engine exploded")
}

func TestTranscribe_CancelledContext(t *testing.T) {
	adapter := NewAdapter(&fakeEngine{})
	path := writeWav(t, t.TempDir(), 16000, 16, 1, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Transcribe(ctx, path, "m")

	assert.ErrorIs(t, err, context.Canceled)
}
