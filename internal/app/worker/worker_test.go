package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"audioscribe/internal/app/model"
	"audioscribe/internal/app/modelstore"
	"audioscribe/internal/app/queue"
)

type fakeNormalizer struct {
	canonical  bool
	normalized []string
}

func (f *fakeNormalizer) IsCanonicalWav(_ context.Context, _ string) (bool, error) {
	return f.canonical, nil
}

func (f *fakeNormalizer) Normalize(_ context.Context, inputPath string) (string, error) {
	f.normalized = append(f.normalized, inputPath)
	return inputPath + ".wav", nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, language, size string) (modelstore.ModelHandle, error) {
	return modelstore.ModelHandle{Name: "test-model", Dir: "/models/test-model", Language: language, Size: size}, nil
}

type fakeTranscriber struct {
	words  []model.Word
	failOn string
	calls  int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, wavPath, _ string) ([]model.Word, error) {
	f.calls++
	if f.failOn != "" && wavPath == f.failOn {
		return nil, errors.New("engine rejected audio")
	}
	return f.words, nil
}

type fakeWriter struct {
	jsonCalls []string
	vttCalls  []string
}

func (f *fakeWriter) WriteJSON(fileID string, _ model.TranscriptionOutput) (string, error) {
	f.jsonCalls = append(f.jsonCalls, fileID)
	return "/out/" + fileID + ".json", nil
}

func (f *fakeWriter) WriteVTT(fileID string, _ model.TranscriptionOutput) (string, error) {
	f.vttCalls = append(f.vttCalls, fileID)
	return "/out/" + fileID + ".vtt", nil
}

func newTestQueue(t *testing.T) *queue.RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := queue.NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	return queue.NewRedisQueue(client, queue.Config{
		QueueName:    "transcription",
		ConsumerName: "worker-test",
		PollInterval: 50 * time.Millisecond,
	})
}

func newTestWorker(q *queue.RedisQueue, tr Transcriber, norm Normalizer) *Worker {
	return New(Deps{
		Queue:       q,
		Normalizer:  norm,
		Resolver:    fakeResolver{},
		Transcriber: tr,
		Writer:      &fakeWriter{},
		Logger:      zap.NewNop(),
	}, Options{Language: "en", ModelSize: "small"})
}

func waitForTerminal(t *testing.T, q *queue.RedisQueue, jobID string) model.JobResult {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		result, err := q.GetResult(context.Background(), jobID)
		require.NoError(t, err)
		if result != nil && result.Status.Terminal() {
			return *result
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal status", jobID)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWorker_ProcessesJobToTranscribed(t *testing.T) {
	q := newTestQueue(t)
	words := []model.Word{
		{Text: "hello", Start: 0.0, End: 0.4},
		{Text: "world", Start: 0.5, End: 0.9},
	}
	w := newTestWorker(q, &fakeTranscriber{words: words}, &fakeNormalizer{canonical: true})

	jobID, err := q.Enqueue(context.Background(), model.FileRecord{
		FileID:           "f-1",
		OriginalFilename: "speech.wav",
		StoragePath:      "/uploads/f-1.wav",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	result := waitForTerminal(t, q, jobID)
	cancel()
	<-done

	assert.Equal(t, model.StatusTranscribed, result.Status)
	require.NotNil(t, result.Transcript)
	assert.Equal(t, "hello world", result.Transcript.Text)
	assert.Len(t, result.Transcript.Segments, 1)
	assert.Equal(t, "en", result.Transcript.Language)
	assert.Equal(t, "/out/f-1.json", result.JSONPath)
	assert.Equal(t, "/out/f-1.vtt", result.VTTPath)
	assert.Empty(t, result.ErrorMessage)

	count, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWorker_FailedJobDoesNotBlockNextJob(t *testing.T) {
	q := newTestQueue(t)
	tr := &fakeTranscriber{
		words:  []model.Word{{Text: "ok", Start: 0, End: 0.5}},
		failOn: "/uploads/bad.wav",
	}
	w := newTestWorker(q, tr, &fakeNormalizer{canonical: true})

	badID, err := q.Enqueue(context.Background(), model.FileRecord{
		FileID: "bad", OriginalFilename: "bad.wav", StoragePath: "/uploads/bad.wav",
	})
	require.NoError(t, err)
	goodID, err := q.Enqueue(context.Background(), model.FileRecord{
		FileID: "good", OriginalFilename: "good.wav", StoragePath: "/uploads/good.wav",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	badResult := waitForTerminal(t, q, badID)
	goodResult := waitForTerminal(t, q, goodID)
	cancel()
	<-done

	assert.Equal(t, model.StatusError, badResult.Status)
	assert.NotEmpty(t, badResult.ErrorMessage)
	assert.Nil(t, badResult.Transcript)

	assert.Equal(t, model.StatusTranscribed, goodResult.Status)
	require.NotNil(t, goodResult.Transcript)
	assert.Equal(t, "ok", goodResult.Transcript.Text)
}

func TestWorker_NormalizesNonCanonicalUpload(t *testing.T) {
	q := newTestQueue(t)
	norm := &fakeNormalizer{canonical: false}
	tr := &fakeTranscriber{words: []model.Word{{Text: "hi", Start: 0, End: 0.3}}}
	w := newTestWorker(q, tr, norm)

	jobID, err := q.Enqueue(context.Background(), model.FileRecord{
		FileID: "f-2", OriginalFilename: "clip.mp4", StoragePath: "/uploads/f-2.mp4",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	result := waitForTerminal(t, q, jobID)
	cancel()
	<-done

	assert.Equal(t, model.StatusTranscribed, result.Status)
	assert.Equal(t, []string{"/uploads/f-2.mp4"}, norm.normalized)
}

func TestWorker_RecoversFromPanickingTranscriber(t *testing.T) {
	q := newTestQueue(t)
	w := newTestWorker(q, panickingTranscriber{}, &fakeNormalizer{canonical: true})

	jobID, err := q.Enqueue(context.Background(), model.FileRecord{
		FileID: "f-3", OriginalFilename: "boom.wav", StoragePath: "/uploads/f-3.wav",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	result := waitForTerminal(t, q, jobID)
	cancel()
	<-done

	assert.Equal(t, model.StatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "panic")
}

func TestWorker_ReclaimsJobFromDeadConsumer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := queue.NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	// A previous worker claims the job and dies before finishing it. Its
	// heartbeat is allowed to lapse so the new worker's sweep reclaims the
	// job.
	dead := queue.NewRedisQueue(client, queue.Config{
		QueueName:    "transcription",
		ConsumerName: "dead-worker",
		PollInterval: 50 * time.Millisecond,
		HeartbeatTTL: time.Second,
	})
	jobID, err := dead.Enqueue(context.Background(), model.FileRecord{
		FileID: "f-4", OriginalFilename: "orphan.wav", StoragePath: "/uploads/f-4.wav",
	})
	require.NoError(t, err)
	claimed, err := dead.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, claimed)
	mr.FastForward(2 * time.Second)

	q := queue.NewRedisQueue(client, queue.Config{
		QueueName:    "transcription",
		ConsumerName: "worker-test",
		PollInterval: 50 * time.Millisecond,
	})
	tr := &fakeTranscriber{words: []model.Word{{Text: "found", Start: 0, End: 0.5}}}
	w := newTestWorker(q, tr, &fakeNormalizer{canonical: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	result := waitForTerminal(t, q, jobID)
	cancel()
	<-done

	assert.Equal(t, model.StatusTranscribed, result.Status)
}

func TestWorker_AcksFinishedJobWithoutReprocessing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := queue.NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	// A previous worker stored the terminal result but died before acking,
	// so the job is redelivered with its work already done.
	dead := queue.NewRedisQueue(client, queue.Config{
		QueueName:    "transcription",
		ConsumerName: "dead-worker",
		PollInterval: 50 * time.Millisecond,
		HeartbeatTTL: time.Second,
	})
	file := model.FileRecord{
		FileID: "f-5", OriginalFilename: "done.wav", StoragePath: "/uploads/f-5.wav",
	}
	jobID, err := dead.Enqueue(context.Background(), file)
	require.NoError(t, err)
	claimed, err := dead.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, claimed)

	finished := model.JobResult{
		JobID:  jobID,
		File:   file,
		Status: model.StatusTranscribed,
		Transcript: &model.TranscriptionOutput{
			Text:     "already done",
			Language: "en",
			Segments: []model.Segment{{ID: 0, Start: 0, End: 1.0, Text: "already done"}},
		},
		JSONPath: "/out/f-5.json",
		VTTPath:  "/out/f-5.vtt",
	}
	require.NoError(t, dead.SetResult(context.Background(), finished))
	mr.FastForward(2 * time.Second)

	q := queue.NewRedisQueue(client, queue.Config{
		QueueName:    "transcription",
		ConsumerName: "worker-test",
		PollInterval: 50 * time.Millisecond,
	})
	tr := &fakeTranscriber{words: []model.Word{{Text: "redone", Start: 0, End: 0.5}}}
	w := newTestWorker(q, tr, &fakeNormalizer{canonical: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// Wait for the sweep to reclaim the job, then for the worker to ack it.
	require.Eventually(t, func() bool {
		return !mr.Exists("audioscribe:transcription:processing:dead-worker")
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		count, err := q.Count(context.Background())
		return err == nil && count == 0 &&
			!mr.Exists("audioscribe:transcription:processing:worker-test")
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, tr.calls, "finished job must not be transcribed again")

	result, err := q.GetResult(context.Background(), jobID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, finished, *result)
}

type panickingTranscriber struct{}

func (panickingTranscriber) Transcribe(context.Context, string, string) ([]model.Word, error) {
	panic("native crash")
}
