//go:build wireinject
// +build wireinject

package app

import (
	"context"
	"log"
	"log/slog"

	"github.com/google/wire"
	"go.uber.org/zap"

	"audioscribe/internal/api/server"
	"audioscribe/internal/api/v1/services"
	"audioscribe/internal/app/api"
	"audioscribe/internal/app/api/vosk"
	"audioscribe/internal/app/audio"
	"audioscribe/internal/app/catalog"
	"audioscribe/internal/app/modelstore"
	"audioscribe/internal/app/queue"
	"audioscribe/internal/app/repository"
	"audioscribe/internal/app/repository/sqlite"
	"audioscribe/internal/app/storage"
	"audioscribe/internal/app/transcribe"
	"audioscribe/internal/app/transcript"
	"audioscribe/internal/app/worker"
	"audioscribe/internal/config"
)

func provideJobQueue(cfg *config.Config) queue.JobQueue {
	client := queue.NewClient(cfg.RedisAddr())
	return queue.NewRedisQueue(client, queue.Config{
		QueueName:    cfg.QueueName,
		HeartbeatTTL: cfg.HeartbeatTTL,
	})
}

func provideCatalog(cfg *config.Config) *catalog.Catalog {
	return catalog.New(cfg.UploadDir)
}

func provideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:        cfg.APIHost,
		Port:        cfg.APIPort,
		Environment: cfg.Environment,
	}
}

func provideModelCatalog(cfg *config.Config) *modelstore.Catalog {
	if cfg.ModelTablePath == "" {
		return modelstore.DefaultCatalog()
	}
	cat, err := modelstore.LoadCatalog(cfg.ModelTablePath)
	if err != nil {
		log.Fatalf("Failed to load model table %s: %v", cfg.ModelTablePath, err)
	}
	return cat
}

func provideModelResolver(cfg *config.Config, cat *modelstore.Catalog) worker.ModelResolver {
	return modelstore.NewStore(cfg.ModelDir, cat)
}

func provideSpeechEngine() api.SpeechEngine {
	return vosk.NewEngine()
}

func provideTranscriber(engine api.SpeechEngine) worker.Transcriber {
	return transcribe.NewAdapter(engine)
}

func provideNormalizer() worker.Normalizer {
	return audio.NewNormalizer()
}

func provideOutputWriter(cfg *config.Config) worker.OutputWriter {
	return transcript.NewWriter(cfg.TranscriptionDir)
}

func provideHistoryDAO(cfg *config.Config) repository.TranscriptionDAO {
	dao, err := sqlite.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open history database %s: %v", cfg.DBPath, err)
	}
	return dao
}

// provideArchiver returns nil when MinIO is not configured; the worker treats
// a nil archiver as archival disabled.
func provideArchiver(cfg *config.Config, logger *zap.Logger) storage.Archiver {
	if !cfg.ArchivalEnabled() {
		return nil
	}
	archiver, err := storage.NewMinioArchiver(storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MinIO at %s: %v", cfg.MinioEndpoint, err)
	}
	if err := archiver.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("Failed to ensure MinIO bucket %s: %v", cfg.MinioBucket, err)
	}
	logger.Info("output archival enabled", zap.String("bucket", cfg.MinioBucket))
	return archiver
}

func provideWorkerOptions(cfg *config.Config) worker.Options {
	return worker.Options{
		Language:       cfg.Language,
		ModelSize:      cfg.ModelSize,
		ConvertTimeout: cfg.FFmpegTimeout,
	}
}

func provideWorkerDeps(
	q queue.JobQueue,
	normalizer worker.Normalizer,
	resolver worker.ModelResolver,
	transcriber worker.Transcriber,
	writer worker.OutputWriter,
	history repository.TranscriptionDAO,
	archiver storage.Archiver,
	logger *zap.Logger,
) worker.Deps {
	return worker.Deps{
		Queue:       q,
		Normalizer:  normalizer,
		Resolver:    resolver,
		Transcriber: transcriber,
		Writer:      writer,
		History:     history,
		Archiver:    archiver,
		Logger:      logger,
	}
}

// InitializeServer assembles the HTTP API around the Redis-backed job queue.
func InitializeServer(cfg *config.Config, logger *slog.Logger) *server.Server {
	wire.Build(
		provideJobQueue,
		provideCatalog,
		provideServerConfig,
		services.NewTranscriptionService,
		server.NewServer,
	)
	return &server.Server{}
}

// InitializeWorker assembles the full processing pipeline.
func InitializeWorker(cfg *config.Config, logger *zap.Logger) *worker.Worker {
	wire.Build(
		provideJobQueue,
		provideNormalizer,
		provideModelCatalog,
		provideModelResolver,
		provideSpeechEngine,
		provideTranscriber,
		provideOutputWriter,
		provideHistoryDAO,
		provideArchiver,
		provideWorkerOptions,
		provideWorkerDeps,
		worker.New,
	)
	return &worker.Worker{}
}
