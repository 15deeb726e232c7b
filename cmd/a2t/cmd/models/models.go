package models

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"audioscribe/internal/app/modelstore"
	"audioscribe/internal/config"
)

var (
	language  string
	modelSize string
)

func init() {
	fetchCmd.Flags().StringVarP(&language, "language", "l", "", "model language, overrides LANGUAGE")
	fetchCmd.Flags().StringVarP(&modelSize, "model-size", "s", "", "model size, overrides MODEL_SIZE")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(fetchCmd)
}

// Cmd represents the models command
var Cmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and pre-download speech models",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known speech models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LANGUAGE\tSIZE\tNAME")
		for _, desc := range cat.Descriptors() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", desc.Language, desc.Size, desc.Name)
		}
		return w.Flush()
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a speech model so the first job does not pay for it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if language == "" {
			language = cfg.Language
		}
		if modelSize == "" {
			modelSize = cfg.ModelSize
		}

		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		store := modelstore.NewStore(cfg.ModelDir, cat)
		handle, err := store.Resolve(cmd.Context(), language, modelSize)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "model %s ready at %s\n", handle.Name, handle.Dir)
		return nil
	},
}

func loadCatalog(cfg *config.Config) (*modelstore.Catalog, error) {
	if cfg.ModelTablePath == "" {
		return modelstore.DefaultCatalog(), nil
	}
	return modelstore.LoadCatalog(cfg.ModelTablePath)
}
