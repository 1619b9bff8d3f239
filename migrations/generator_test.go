package migrations

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getpup/pupbase/core"
)

func TestGenerate(t *testing.T) {
	tmpDir := t.TempDir()

	registry := core.NewRegistry()
	if err := registry.Register(core.Model{Name: "orders"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register(core.Model{Name: "users"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	config := DefaultConfig()
	config.OutputFolder = tmpDir
	config.OutputFilename = "test_migration.sql"

	if err := Generate(registry, &config); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	outputPath := filepath.Join(tmpDir, config.OutputFilename)
	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	sql := string(content)

	requiredStrings := []string{
		"CREATE TABLE IF NOT EXISTS history",
		"v INTEGER PRIMARY KEY",
		"type TEXT NOT NULL",
		"ts INTEGER NOT NULL",
		"CREATE TABLE IF NOT EXISTS metadata",
		"key TEXT PRIMARY KEY",
		"value TEXT NOT NULL",
		"CREATE TABLE IF NOT EXISTS model_orders",
		"CREATE TABLE IF NOT EXISTS model_users",
		"id TEXT PRIMARY KEY",
		"doc TEXT NOT NULL DEFAULT '{}'",
	}
	for _, required := range requiredStrings {
		if !strings.Contains(sql, required) {
			t.Errorf("generated SQL missing required string: %s", required)
		}
	}

	// Model tables must appear in registration order.
	if strings.Index(sql, "model_orders") > strings.Index(sql, "model_users") {
		t.Error("model tables out of registration order")
	}
}

func TestGenerate_EmptyRegistryStillEmitsFixedTables(t *testing.T) {
	tmpDir := t.TempDir()
	registry := core.NewRegistry()

	config := DefaultConfig()
	config.OutputFolder = tmpDir
	config.OutputFilename = "test_migration.sql"

	if err := Generate(registry, &config); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, config.OutputFilename))
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	sql := string(content)
	if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS history") {
		t.Error("missing history table")
	}
	if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS metadata") {
		t.Error("missing metadata table")
	}
}
