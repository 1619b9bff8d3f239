package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getpup/pupbase/core"
	"github.com/getpup/pupbase/migrations"
)

func newMigrateCmd() *cobra.Command {
	var outputFolder, outputFilename string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Generate the base history/metadata migration for a new database file",
		Long: `Generate the base migration: the history table backing the Event
Queue and the metadata table backing the Metadata Model. Model document
tables belong to the embedding application's own Model Registry and are
not known to this CLI, so they are not emitted here — embedders call
migrations.Generate against their own registry directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := migrations.DefaultConfig()
			if outputFolder != "" {
				config.OutputFolder = outputFolder
			}
			if outputFilename != "" {
				config.OutputFilename = outputFilename
			}

			if err := migrations.Generate(core.NewRegistry(), &config); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s/%s\n", config.OutputFolder, config.OutputFilename)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFolder, "out", "", "output directory (default \"migrations\")")
	cmd.Flags().StringVar(&outputFilename, "filename", "", "output filename (default a timestamped name)")
	return cmd
}
