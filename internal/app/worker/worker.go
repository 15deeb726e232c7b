package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"audioscribe/internal/app/metrics"
	"audioscribe/internal/app/model"
	"audioscribe/internal/app/modelstore"
	"audioscribe/internal/app/queue"
	"audioscribe/internal/app/repository"
	"audioscribe/internal/app/storage"
	"audioscribe/internal/app/transcript"
)

// Normalizer converts an upload to canonical PCM WAV.
type Normalizer interface {
	IsCanonicalWav(ctx context.Context, path string) (bool, error)
	Normalize(ctx context.Context, inputPath string) (string, error)
}

// Transcriber turns a canonical WAV into a time-ordered word list.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string, modelDir string) ([]model.Word, error)
}

// ModelResolver resolves a (language, size) pair to a model directory.
type ModelResolver interface {
	Resolve(ctx context.Context, language, size string) (modelstore.ModelHandle, error)
}

// OutputWriter persists the two output renditions.
type OutputWriter interface {
	WriteJSON(fileID string, out model.TranscriptionOutput) (string, error)
	WriteVTT(fileID string, out model.TranscriptionOutput) (string, error)
}

// Options are the per-worker processing knobs.
type Options struct {
	Language       string
	ModelSize      string
	ConvertTimeout time.Duration
}

// Deps are the worker's collaborators. History and Archiver are optional;
// everything else is required.
type Deps struct {
	Queue       queue.JobQueue
	Normalizer  Normalizer
	Resolver    ModelResolver
	Transcriber Transcriber
	Writer      OutputWriter
	History     repository.TranscriptionDAO
	Archiver    storage.Archiver
	Logger      *zap.Logger
}

// Worker pulls jobs from the queue one at a time and runs the processing
// pipeline to a terminal state. A failing job never crashes the loop: its
// error is captured into the job's terminal result and the worker moves on.
type Worker struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Worker {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.ModelSize == "" {
		opts.ModelSize = modelstore.SizeSmall
	}
	if opts.ConvertTimeout <= 0 {
		opts.ConvertTimeout = 10 * time.Minute
	}
	return &Worker{deps: deps, opts: opts}
}

// heartbeatInterval must stay well under the queue's heartbeat TTL so a busy
// worker is never mistaken for a dead one.
const heartbeatInterval = 10 * time.Second

// Run blocks, processing jobs until the context is cancelled. Queue errors
// are logged and retried after a short pause so a Redis blip does not kill
// the worker.
func (w *Worker) Run(ctx context.Context) error {
	log := w.deps.Logger
	log.Info("worker started",
		zap.String("language", w.opts.Language),
		zap.String("model_size", w.opts.ModelSize))

	// Announce liveness before sweeping so a concurrently starting worker
	// does not requeue our claims, then keep the heartbeat fresh for the
	// life of the loop, including while a long job is processing.
	if err := w.deps.Queue.Heartbeat(ctx); err != nil {
		log.Warn("heartbeat failed", zap.Error(err))
	}
	go w.keepAlive(ctx)

	// Reclaim jobs a previous worker claimed but never finished.
	if n, err := w.deps.Queue.RequeueStale(ctx); err != nil {
		log.Warn("requeue sweep failed", zap.Error(err))
	} else if n > 0 {
		log.Info("requeued stale jobs", zap.Int("count", n))
	}

	for {
		if err := ctx.Err(); err != nil {
			log.Info("worker stopping")
			return nil
		}

		spec, err := w.deps.Queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping")
				return nil
			}
			log.Warn("dequeue failed", zap.Error(err))
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
			}
			continue
		}
		if spec == nil {
			continue
		}

		w.handle(ctx, *spec)
	}
}

func (w *Worker) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.deps.Queue.Heartbeat(ctx); err != nil {
				w.deps.Logger.Warn("heartbeat failed", zap.Error(err))
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, spec model.JobSpec) {
	log := w.deps.Logger.With(
		zap.String("job_id", spec.JobID),
		zap.String("file_id", spec.File.FileID))
	log.Info("processing job", zap.String("file", spec.File.OriginalFilename))

	// A requeued job may already be finished if its previous worker died
	// between storing the result and acking. Don't redo the work.
	if existing, err := w.deps.Queue.GetResult(ctx, spec.JobID); err == nil &&
		existing != nil && existing.Status.Terminal() {
		log.Info("job already finished, acking", zap.String("status", string(existing.Status)))
		if err := w.deps.Queue.Ack(ctx, spec); err != nil {
			log.Warn("ack failed", zap.Error(err))
		}
		return
	}

	started := time.Now()
	output, jsonPath, vttPath, err := w.process(ctx, spec)

	result := model.JobResult{JobID: spec.JobID, File: spec.File}
	if err != nil {
		result.Status = model.StatusError
		result.ErrorMessage = err.Error()
		log.Error("job failed", zap.Error(err))
	} else {
		result.Status = model.StatusTranscribed
		result.Transcript = &output
		result.JSONPath = jsonPath
		result.VTTPath = vttPath
		log.Info("job transcribed",
			zap.Int("segments", len(output.Segments)),
			zap.Duration("took", time.Since(started)))
	}

	if err := w.deps.Queue.SetResult(ctx, result); err != nil {
		// The job stays on the processing list and will be requeued by the
		// next RequeueStale sweep.
		log.Error("store result failed", zap.Error(err))
		return
	}
	if err := w.deps.Queue.Ack(ctx, spec); err != nil {
		log.Warn("ack failed", zap.Error(err))
	}

	w.record(result, audioDuration(result.Transcript))
	w.archive(ctx, result, log)

	metrics.JobsProcessed.WithLabelValues(string(result.Status)).Inc()
	metrics.ProcessingSeconds.Observe(time.Since(started).Seconds())
}

// process runs steps 2-5 of the pipeline and returns the outcome as a value;
// the deferred recover turns an engine panic into an ordinary job error.
func (w *Worker) process(ctx context.Context, spec model.JobSpec) (output model.TranscriptionOutput, jsonPath, vttPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during processing: %v", r)
		}
	}()

	wavPath, err := w.ensureCanonical(ctx, spec.File.StoragePath)
	if err != nil {
		return output, "", "", err
	}

	handle, err := w.deps.Resolver.Resolve(ctx, w.opts.Language, w.opts.ModelSize)
	if err != nil {
		return output, "", "", err
	}

	words, err := w.deps.Transcriber.Transcribe(ctx, wavPath, handle.Dir)
	if err != nil {
		return output, "", "", err
	}

	segments, fullText := transcript.Group(words)
	output = model.TranscriptionOutput{
		Text:     fullText,
		Segments: segments,
		Language: handle.Language,
	}

	jsonPath, err = w.deps.Writer.WriteJSON(spec.File.FileID, output)
	if err != nil {
		return output, "", "", err
	}
	vttPath, err = w.deps.Writer.WriteVTT(spec.File.FileID, output)
	if err != nil {
		return output, jsonPath, "", err
	}
	return output, jsonPath, vttPath, nil
}

// ensureCanonical returns a path to 16kHz mono PCM WAV, converting when the
// upload is anything else. WAV uploads are probed rather than trusted.
func (w *Worker) ensureCanonical(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		canonical, err := w.deps.Normalizer.IsCanonicalWav(ctx, path)
		if err == nil && canonical {
			return path, nil
		}
	}

	convertCtx, cancel := context.WithTimeout(ctx, w.opts.ConvertTimeout)
	defer cancel()
	return w.deps.Normalizer.Normalize(convertCtx, path)
}

func (w *Worker) record(result model.JobResult, duration float64) {
	if w.deps.History == nil {
		return
	}
	if err := w.deps.History.RecordJob(result, duration); err != nil {
		w.deps.Logger.Warn("record history failed", zap.Error(err))
	}
}

func (w *Worker) archive(ctx context.Context, result model.JobResult, log *zap.Logger) {
	if w.deps.Archiver == nil || result.Status != model.StatusTranscribed {
		return
	}
	for _, path := range []string{result.JSONPath, result.VTTPath} {
		if _, err := w.deps.Archiver.Archive(ctx, path); err != nil {
			log.Warn("archive output failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func audioDuration(t *model.TranscriptionOutput) float64 {
	if t == nil || len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}
