package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kyleking/starterdb/internal/config"
)

func TestConfigCommand(t *testing.T) {
	dbPath := isolate(t)

	out := mustRun(t, dbPath, "--engine", "sqlite", "config")

	for _, want := range []string{
		"Active Configuration:",
		"Database:",
		"Path: " + dbPath,
		"Engine: sqlite",
		"Query Timeout: 30s",
		"Logging:",
		"Level: error",
		"Notify:",
		"Output: none",
	} {
		assert.Contains(t, out, want)
	}

	assert.NotContains(t, out, "File:")
}

func TestConfigCommandRaw(t *testing.T) {
	dbPath := isolate(t)

	out := mustRun(t, dbPath, "--drop-tables", "config", "--raw")

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.True(t, cfg.Database.DropTables)
}

func TestConfigCommandExpandsPaths(t *testing.T) {
	isolate(t)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	out := mustRun(t, "~/starterdb-test/app.db", "config")
	assert.Contains(t, out, "Path: "+filepath.Join(home, "starterdb-test", "app.db"))
	assert.NotContains(t, out, "Path: ~")
}

func TestConfigCommandSave(t *testing.T) {
	dbPath := isolate(t)
	configPath := filepath.Join(t.TempDir(), "saved", "config.yaml")
	t.Setenv("STARTERDB_CONFIG", configPath)

	out := mustRun(t, dbPath, "--engine", "duckdb", "config", "--save")
	assert.Contains(t, out, "Saved configuration to "+configPath)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var saved config.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, dbPath, saved.Database.Path)
	assert.Equal(t, "duckdb", saved.Database.Engine)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Database.Engine)
}

func TestConfigCommandInvalidEngine(t *testing.T) {
	dbPath := isolate(t)

	_, err := runApp(t, dbPath, "", "--engine", "postgres", "config")
	assert.Error(t, err)
}
