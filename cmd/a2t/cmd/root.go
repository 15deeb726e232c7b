package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"audioscribe/cmd/a2t/cmd/history"
	"audioscribe/cmd/a2t/cmd/models"
	"audioscribe/cmd/a2t/cmd/serve"
	"audioscribe/cmd/a2t/cmd/version"
	"audioscribe/cmd/a2t/cmd/work"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "a2t",
	Short: "An asynchronous audio/video transcription service",
	Long: `An asynchronous audio/video transcription service.
- serve runs the HTTP API that accepts uploads and queues transcription jobs
- work runs a worker that converts audio and transcribes it with word timestamps
- Finished jobs produce a JSON transcript and a WebVTT subtitle file`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(work.Cmd)
	rootCmd.AddCommand(models.Cmd)
	rootCmd.AddCommand(history.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
