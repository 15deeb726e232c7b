package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the pipeline reads from the environment.
type Config struct {
	RedisHost    string
	RedisPort    string
	QueueName    string
	HeartbeatTTL time.Duration

	UploadDir        string
	TranscriptionDir string
	DBPath           string

	ModelDir       string
	ModelSize      string
	Language       string
	ModelTablePath string

	APIHost string
	APIPort string

	FFmpegTimeout time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	Environment string
}

// LoadEnv loads environment variables from a .env file if one exists. Missing
// files are fine; system-wide environment variables may already be set.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		RedisHost: getEnv("REDIS_HOST", "localhost"),
		RedisPort: getEnv("REDIS_PORT", "6379"),
		QueueName: getEnv("QUEUE_NAME", "transcription"),

		UploadDir:        getEnv("UPLOAD_DIR", "data/uploads"),
		TranscriptionDir: getEnv("TRANSCRIPTION_DIR", "data/transcriptions"),
		DBPath:           getEnv("DB_PATH", "data/transcription.db"),

		ModelDir:       getEnv("VOSK_MODEL_PATH", "./models"),
		ModelSize:      getEnv("MODEL_SIZE", "small"),
		Language:       getEnv("LANGUAGE", "en"),
		ModelTablePath: getEnv("MODEL_TABLE", ""),

		APIHost: getEnv("API_HOST", "0.0.0.0"),
		APIPort: getEnv("API_PORT", "8000"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "audioscribe"),
		MinioUseSSL:    strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),

		Environment: getEnv("APP_ENV", "development"),
	}

	timeout := getEnv("FFMPEG_TIMEOUT", "10m")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid FFMPEG_TIMEOUT %q: %w", timeout, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("FFMPEG_TIMEOUT must be positive, got %q", timeout)
	}
	cfg.FFmpegTimeout = d

	ttl := getEnv("HEARTBEAT_TTL", "30s")
	d, err = time.ParseDuration(ttl)
	if err != nil {
		return nil, fmt.Errorf("invalid HEARTBEAT_TTL %q: %w", ttl, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_TTL must be positive, got %q", ttl)
	}
	cfg.HeartbeatTTL = d

	return cfg, nil
}

// RedisAddr returns host:port for the queue backend.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// APIAddr returns host:port for the HTTP server.
func (c *Config) APIAddr() string {
	return c.APIHost + ":" + c.APIPort
}

// ArchivalEnabled reports whether outputs should be copied to object storage.
func (c *Config) ArchivalEnabled() bool {
	return c.MinioEndpoint != ""
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
