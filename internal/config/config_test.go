package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"argyll", "pvc"}, cfg.Planning.Classes)
	assert.Equal(t, 200.0, cfg.Planning.HoldingCostPerHour)
	assert.Equal(t, 1000.0, cfg.Planning.DeficitCost)
	assert.Equal(t, 6, cfg.Planning.Horizon)
}

func TestLoadFrom_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "soleplan.yaml")
	content := `
server:
  port: 9090
planning:
  classes:
    - argyll
  holding_cost_per_hour: 150
  horizon: 4
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := LoadFrom(file)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"argyll"}, cfg.Planning.Classes)
	assert.Equal(t, 150.0, cfg.Planning.HoldingCostPerHour)
	assert.Equal(t, 4, cfg.Planning.Horizon)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "soleplan.yaml")
	content := `
server:
  port: 9090
planning:
  horizon: 4
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	t.Setenv("SOLEPLAN_SERVER_PORT", "7070")
	t.Setenv("SOLEPLAN_PLANNING_HORIZON", "12")

	cfg, err := LoadFrom(file)
	require.NoError(t, err)

	// Env wins where set, file wins where not, defaults fill the rest.
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Planning.Horizon)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFrom_InvalidLevel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "soleplan.yaml")
	require.NoError(t, os.WriteFile(file, []byte("logging:\n  level: verbose\n"), 0o644))

	_, err := LoadFrom(file)
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	p := NewPaths(PathsConfig{
		DataDir:    "data",
		InputsDir:  "data/inputs",
		ReportsDir: "data/reports",
		LogsDir:    "logs",
	})

	assert.Equal(t, filepath.Join("data", "inputs", "stock.csv"), p.InputPath(StockFile))
	assert.Equal(t, filepath.Join("data", "inputs", "hours_available_pvc.csv"), p.HourCalendarPath("pvc"))
	assert.Equal(t, filepath.Join("data", "reports", "results_argyll.xlsx"), p.ResultsPath("argyll"))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(PathsConfig{
		DataDir:    filepath.Join(base, "data"),
		InputsDir:  filepath.Join(base, "data", "inputs"),
		ReportsDir: filepath.Join(base, "data", "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	})

	require.NoError(t, p.EnsureDirectories())
	for _, dir := range []string{p.DataDir, p.InputsDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
