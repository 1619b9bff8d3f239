package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getpup/pupbase/queue"
	"github.com/getpup/pupbase/sqlconn"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print Event Queue and Metadata Model state for a database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEnvConfig()
			if err != nil {
				return err
			}
			dbPath := resolveDBPath(cmd, cfg)

			conn := sqlconn.OpenReader(sqlconn.NewConfig(dbPath))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			tx, err := conn.Reader(ctx)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}

			q := queue.NewSQLiteQueue(queue.DefaultConfig())
			metadata := queue.NewSQLiteMetadata(queue.DefaultMetadataConfig())

			maxV, err := q.GetMaxV(ctx, tx)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}
			v, err := metadata.GetV(ctx, tx)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "db:              %s\n", dbPath)
			fmt.Fprintf(out, "max queued v:    %d\n", maxV)
			fmt.Fprintf(out, "handled v:       %d\n", v)
			fmt.Fprintf(out, "pending events:  %d\n", maxV-v)
			return nil
		},
	}
	return cmd
}
