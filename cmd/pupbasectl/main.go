// Command pupbasectl is a thin operational CLI around a pupbase
// database file: generating its base migration, inspecting queue and
// version state, and listing events still awaiting replay. It does not
// run the dispatch pipeline itself — that requires the embedding
// application's own Model Registry, which this generic CLI has no way
// to discover.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pupbasectl",
		Short: "Operate on a pupbase database file",
	}

	root.PersistentFlags().String("db", "", "path to the database file (overrides PUPBASE_DB_PATH)")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newReplayCmd())
	return root
}

// resolveDBPath prefers the --db flag over the environment config.
func resolveDBPath(cmd *cobra.Command, cfg envConfig) string {
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		return db
	}
	return cfg.DBPath
}
