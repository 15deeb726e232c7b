package work

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"audioscribe/internal/app"
	"audioscribe/internal/app/common"
	"audioscribe/internal/config"
)

var (
	language  string
	modelSize string
)

func init() {
	Cmd.Flags().StringVarP(&language, "language", "l", "", "transcription language, overrides LANGUAGE")
	Cmd.Flags().StringVarP(&modelSize, "model-size", "s", "", "model size (small, medium, large), overrides MODEL_SIZE")
}

// Cmd represents the work command
var Cmd = &cobra.Command{
	Use:   "work",
	Short: "Run a transcription worker",
	Long: `Run a transcription worker.

- Claims queued jobs one at a time from Redis
- Converts the upload to 16 kHz mono PCM WAV when needed
- Transcribes with word timestamps and writes JSON and WebVTT outputs
- A failing job is marked with status "error"; the worker keeps running`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if language != "" {
			cfg.Language = language
		}
		if modelSize != "" {
			cfg.ModelSize = modelSize
		}

		logger := common.MustNewLogger(!cfg.IsProduction())
		defer logger.Sync()

		w := app.InitializeWorker(cfg, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return w.Run(ctx)
	},
}
