package transcribe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"audioscribe/internal/app/api"
	apperrors "audioscribe/internal/app/errors"
	"audioscribe/internal/app/model"
)

// chunkFrames is how many PCM frames are fed to the engine per call.
const chunkFrames = 8000

// Adapter drives a speech engine over a normalized audio file and returns a
// flat, time-ordered word list.
type Adapter struct {
	engine api.SpeechEngine
}

func NewAdapter(engine api.SpeechEngine) *Adapter {
	return &Adapter{engine: engine}
}

// Transcribe streams the WAV file at wavPath through a recognition pass
// against the model in modelDir. The input must be mono 16-bit PCM; the
// sample rate is taken from the file header. Words come back sorted by start
// time even if the engine reported utterances out of global order.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string, modelDir string) ([]model.Word, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", wavPath, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAudioFormat, fmt.Errorf("%s is not a valid WAV file", wavPath))
	}
	if decoder.NumChans != 1 || decoder.BitDepth != 16 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAudioFormat,
			fmt.Errorf("%s: got %d channels at %d bits", wavPath, decoder.NumChans, decoder.BitDepth))
	}

	rec, err := a.engine.NewRecognizer(modelDir, int(decoder.SampleRate))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, err)
	}
	defer rec.Close()

	buf := &audio.IntBuffer{
		Data:   make([]int, chunkFrames),
		Format: &audio.Format{NumChannels: 1, SampleRate: int(decoder.SampleRate)},
	}

	var words []model.Word
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, fmt.Errorf("read PCM: %w", err))
		}
		if n == 0 {
			break
		}

		utteranceDone, err := rec.AcceptWaveform(pcmBytes(buf.Data[:n]))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, err)
		}
		if utteranceDone {
			utterance, err := rec.Result()
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, err)
			}
			words = append(words, utterance...)
		}
	}

	final, err := rec.FinalResult()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTranscriptionFailed, err)
	}
	words = append(words, final...)

	// Callers rely on a globally non-decreasing start order; the engine only
	// guarantees order within one utterance.
	sort.SliceStable(words, func(i, j int) bool { return words[i].Start < words[j].Start })
	return words, nil
}

// pcmBytes packs int samples into 16-bit little-endian PCM.
func pcmBytes(samples []int) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s)))
	}
	return out
}
