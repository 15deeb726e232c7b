package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"audioscribe/internal/app"
	"audioscribe/internal/config"
)

var (
	host string
	port string
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "bind address, overrides API_HOST")
	Cmd.Flags().StringVar(&port, "port", "", "listen port, overrides API_PORT")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API that accepts uploads and queues transcription jobs",
	Long: `Run the HTTP API that accepts uploads and queues transcription jobs.

- POST /api/v1/transcribe accepts a multipart audio or video file
- GET /api/v1/jobs and /api/v1/jobs/:id report queue and job state
- Jobs are processed by one or more separate "a2t work" processes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if host != "" {
			cfg.APIHost = host
		}
		if port != "" {
			cfg.APIPort = port
		}

		var handler slog.Handler
		if cfg.IsProduction() {
			handler = slog.NewJSONHandler(os.Stdout, nil)
		} else {
			handler = slog.NewTextHandler(os.Stdout, nil)
		}
		logger := slog.New(handler)

		srv := app.InitializeServer(cfg, logger)
		if err := srv.Start(); err != nil {
			return err
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
