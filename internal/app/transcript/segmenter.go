package transcript

import (
	"math"
	"strings"

	"github.com/samber/lo"

	"audioscribe/internal/app/model"
)

// PauseThreshold is the silence gap, in seconds, that closes a segment. A new
// segment starts when a word begins more than this long after the previous
// word ended; a gap of exactly the threshold does not split.
const PauseThreshold = 0.3

// Group folds a time-ordered word list into segments using the pause
// heuristic and returns the segments together with the space-joined full
// text. An empty word list yields no segments and an empty text.
func Group(words []model.Word) ([]model.Segment, string) {
	if len(words) == 0 {
		return nil, ""
	}

	segments := make([]model.Segment, 0, 4)
	open := []model.Word{words[0]}
	prevEnd := words[0].End

	for _, word := range words[1:] {
		if word.Start-prevEnd > PauseThreshold {
			segments = append(segments, closeSegment(uint32(len(segments)), open))
			open = nil
		}
		open = append(open, word)
		prevEnd = word.End
	}
	segments = append(segments, closeSegment(uint32(len(segments)), open))

	texts := lo.Map(segments, func(s model.Segment, _ int) string { return s.Text })
	return segments, strings.Join(texts, " ")
}

func closeSegment(id uint32, words []model.Word) model.Segment {
	texts := lo.Map(words, func(w model.Word, _ int) string { return w.Text })
	return model.Segment{
		ID:    id,
		Start: round3(words[0].Start),
		End:   round3(words[len(words)-1].End),
		Text:  strings.Join(texts, " "),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
