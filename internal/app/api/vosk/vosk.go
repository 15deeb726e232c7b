// Package vosk drives the Vosk speech recognition engine through its cgo
// binding. Models are loaded once per directory and shared across
// recognition passes; loading is the expensive part.
package vosk

import (
	"encoding/json"
	"fmt"
	"sync"

	govosk "github.com/alphacep/vosk-api/go"

	"audioscribe/internal/app/api"
	"audioscribe/internal/app/model"
)

type Engine struct {
	mu     sync.Mutex
	models map[string]*govosk.VoskModel
}

func NewEngine() *Engine {
	govosk.SetLogLevel(-1)
	return &Engine{models: make(map[string]*govosk.VoskModel)}
}

func (e *Engine) NewRecognizer(modelDir string, sampleRate int) (api.Recognizer, error) {
	mdl, err := e.loadModel(modelDir)
	if err != nil {
		return nil, err
	}

	rec, err := govosk.NewRecognizer(mdl, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("create recognizer for %s: %w", modelDir, err)
	}
	rec.SetWords(1)
	return &recognizer{rec: rec}, nil
}

func (e *Engine) loadModel(modelDir string) (*govosk.VoskModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mdl, ok := e.models[modelDir]; ok {
		return mdl, nil
	}

	mdl, err := govosk.NewModel(modelDir)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelDir, err)
	}
	e.models[modelDir] = mdl
	return mdl, nil
}

type recognizer struct {
	rec *govosk.VoskRecognizer
}

func (r *recognizer) AcceptWaveform(data []byte) (bool, error) {
	return r.rec.AcceptWaveform(data) != 0, nil
}

func (r *recognizer) Result() ([]model.Word, error) {
	return parseWords(r.rec.Result())
}

func (r *recognizer) FinalResult() ([]model.Word, error) {
	return parseWords(r.rec.FinalResult())
}

func (r *recognizer) Close() error {
	r.rec.Free()
	return nil
}

// utteranceResult mirrors the word-level JSON Vosk emits per utterance.
type utteranceResult struct {
	Result []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Conf  float64 `json:"conf"`
	} `json:"result"`
	Text string `json:"text"`
}

func parseWords(raw string) ([]model.Word, error) {
	var utterance utteranceResult
	if err := json.Unmarshal([]byte(raw), &utterance); err != nil {
		return nil, fmt.Errorf("parse recognizer result: %w", err)
	}

	words := make([]model.Word, 0, len(utterance.Result))
	for _, w := range utterance.Result {
		words = append(words, model.Word{Text: w.Word, Start: w.Start, End: w.End})
	}
	return words, nil
}
