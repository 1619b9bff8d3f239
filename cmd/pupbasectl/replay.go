package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getpup/pupbase/queue"
	"github.com/getpup/pupbase/sqlconn"
)

func newReplayCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "List events at or below the handled version that still lack a Result",
		Long: `List queue rows whose version is at or below the Metadata Model's
persisted V but that have neither a Result nor an Error, such as rows
rewritten through Queue.Set after they were processed. This command
only reports them. A dispatch.Engine's worker only takes versions
above V, so it does not reprocess these rows either.`,
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
				return fmt.Errorf("replay: %w", err)
			}

			q := queue.NewSQLiteQueue(queue.DefaultConfig())
			metadata := queue.NewSQLiteMetadata(queue.DefaultMetadataConfig())

			v, err := metadata.GetV(ctx, tx)
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}

			out := cmd.OutOrStdout()
			found := 0
			for candidate := int64(1); candidate <= v && found < limit; candidate++ {
				ev, err := q.Get(ctx, tx, candidate)
				if err != nil {
					return fmt.Errorf("replay: %w", err)
				}
				if ev == nil || ev.Handled() || ev.Failed() {
					continue
				}
				fmt.Fprintf(out, "v=%d type=%s awaiting replay\n", ev.V, ev.Type)
				found++
			}
			if found == 0 {
				fmt.Fprintln(out, "no events awaiting replay")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of candidates to print")
	return cmd
}
