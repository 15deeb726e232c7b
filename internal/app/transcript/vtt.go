package transcript

import (
	"fmt"
	"math"
	"strings"

	"audioscribe/internal/app/model"
)

// FormatTimestamp converts seconds to the WebVTT timing form HH:MM:SS.mmm.
// Hours are always present and zero-padded; milliseconds are always three
// digits.
func FormatTimestamp(seconds float64) string {
	totalMillis := int64(math.Round(math.Abs(seconds) * 1000))
	hours := totalMillis / 3600000
	minutes := totalMillis % 3600000 / 60000
	secs := totalMillis % 60000 / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

// RenderVTT renders the transcription as a WebVTT document. Cue numbers are
// one-based while segment IDs stay zero-based, so every cue is numbered
// segment ID plus one.
func RenderVTT(out model.TranscriptionOutput) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range out.Segments {
		fmt.Fprintf(&b, "%d\n", seg.ID+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
