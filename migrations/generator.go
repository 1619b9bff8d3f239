package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getpup/pupbase/core"
)

// Config configures migration generation.
type Config struct {
	// OutputFolder is the directory where the migration file will be
	// written.
	OutputFolder string

	// OutputFilename is the name of the migration file.
	OutputFilename string

	// HistoryTable is the name of the Event Queue's backing table.
	HistoryTable string

	// MetadataTable is the name of the Metadata Model's backing table.
	MetadataTable string

	// TablePrefix is prepended to each model's table name.
	TablePrefix string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_init.sql", timestamp),
		HistoryTable:   "history",
		MetadataTable:  "metadata",
		TablePrefix:    "model_",
	}
}

// Generate writes a migration file creating the history table, the
// metadata table, and one document table per model registered in
// registry, in registration order.
func Generate(registry *core.Registry, config *Config) error {
	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("migrations: failed to create output folder: %w", err)
	}

	sql := generateSQL(registry, config)

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("migrations: failed to write migration file: %w", err)
	}
	return nil
}

func generateSQL(registry *core.Registry, config *Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "-- pupbase database migration\n-- Generated: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, `-- Event Queue: append-only, monotonic, dense v.
CREATE TABLE IF NOT EXISTS %s (
    v INTEGER PRIMARY KEY,
    type TEXT NOT NULL,
    ts INTEGER NOT NULL,
    data TEXT,
    result TEXT,
    events TEXT,
    error TEXT
);

`, config.HistoryTable)

	fmt.Fprintf(&b, `-- Metadata Model: persisted version pointer V and bookkeeping counters.
CREATE TABLE IF NOT EXISTS %s (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

`, config.MetadataTable)

	for _, name := range registry.Names() {
		table := config.TablePrefix + name
		// A model's Columns never change this DDL: every model gets the
		// same id+doc shape, and ColumnDef.Default is applied at Ins time
		// by a model-bound RWView instead.
		fmt.Fprintf(&b, `-- Model %q document table.
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    doc TEXT NOT NULL DEFAULT '{}'
);

`, name, table)
	}

	return b.String()
}
