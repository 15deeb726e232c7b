package history

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"audioscribe/internal/app/repository/sqlite"
	"audioscribe/internal/config"
)

var (
	limit  int
	fileID string
)

func init() {
	Cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of history rows to show")
	Cmd.Flags().StringVarP(&fileID, "file", "f", "", "check whether the given file id was transcribed")
}

// Cmd represents the history command
var Cmd = &cobra.Command{
	Use:   "history",
	Short: "Show jobs this host has processed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		dao, err := sqlite.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer dao.Close()

		if fileID != "" {
			if _, err := dao.CheckIfFileProcessed(fileID); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "file %s has no successful transcription\n", fileID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "file %s was transcribed\n", fileID)
			return nil
		}

		rows, err := dao.GetRecent(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROCESSED\tSTATUS\tDURATION\tFILE\tJOB")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%.1fs\t%s\t%s\n",
				row.ProcessedAt.Format("2006-01-02 15:04:05"),
				row.Status, row.AudioDuration, row.FileName, row.JobID)
		}
		return w.Flush()
	},
}
