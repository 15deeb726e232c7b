package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	apperrors "audioscribe/internal/app/errors"
	"audioscribe/internal/app/model"
)

// Canonical PCM format the speech engine consumes.
const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	targetCodec      = "pcm_s16le"
)

// Normalizer converts arbitrary audio/video input to 16kHz mono 16-bit PCM
// WAV by shelling out to ffmpeg. It owns no state beyond the binary names,
// which are injectable for tests.
type Normalizer struct {
	ffmpegPath  string
	ffprobePath string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe"}
}

// Normalize converts inputPath to canonical PCM WAV next to the input file
// and returns the output path. The context bounds the ffmpeg invocation.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (string, error) {
	if _, err := exec.LookPath(n.ffmpegPath); err != nil {
		return "", apperrors.Wrap(apperrors.ErrConversionUnavailable, err)
	}

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".wav"

	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-i", inputPath,
		"-ar", fmt.Sprint(TargetSampleRate),
		"-ac", fmt.Sprint(TargetChannels),
		"-c:a", targetCodec,
		"-y",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", apperrors.Wrap(apperrors.ErrConversionFailed,
			fmt.Errorf("%v, stderr: %s", err, strings.TrimSpace(stderr.String())))
	}
	return outputPath, nil
}

// IsCanonicalWav reports whether the file already carries a 16kHz mono
// pcm_s16le stream, in which case the worker skips conversion.
func (n *Normalizer) IsCanonicalWav(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, n.ffprobePath,
		"-v", "quiet", "-print_format", "json", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return isCanonicalStream(output)
}

func isCanonicalStream(probeJSON []byte) (bool, error) {
	var probe model.FFProbeOutput
	if err := json.Unmarshal(probeJSON, &probe); err != nil {
		return false, fmt.Errorf("parse ffprobe output: %w", err)
	}

	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" &&
			stream.CodecName == targetCodec &&
			stream.SampleRate == TargetSampleRate &&
			stream.Channels == TargetChannels {
			return true, nil
		}
	}
	return false, nil
}
