package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.General.MaxParallelJobs)
	require.True(t, cfg.General.ParallelInstalls)
	require.Equal(t, "info", cfg.General.LogLevel)
	require.Equal(t, []string{"apt", "dnf", "pacman", "flatpak", "snap", "appimage"}, cfg.Boxes.PreferredOrder)
	require.True(t, cfg.Security.VerifySignatures)
}

func TestLoadCoercesOutOfRangeAndUnknownValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
general:
  max_parallel_jobs: 999
  log_level: extremely-verbose
boxes:
  preferred_order: [apt, not-a-real-backend, dnf]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.General.MaxParallelJobs, "out-of-range job count coerces to default")
	require.Equal(t, "info", cfg.General.LogLevel, "unrecognized log level coerces to default")
	require.Equal(t, []string{"apt", "dnf"}, cfg.Boxes.PreferredOrder, "unknown backend tag is dropped")
}

func TestLoadHonorsInRangeOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
general:
  max_parallel_jobs: 2
  log_level: debug
security:
  allow_untrusted: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.General.MaxParallelJobs)
	require.Equal(t, "debug", cfg.General.LogLevel)
	require.True(t, cfg.Security.AllowUntrusted)
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.Reset(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.General, reloaded.General)
}

func TestBackendOptionsRoundTripThroughSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Boxes.BackendOptions = map[string][]string{"apt": {"--no-install-recommends"}}

	require.NoError(t, config.Save(path, cfg))

	reloaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"--no-install-recommends"}, reloaded.Boxes.BackendOptions["apt"])
}
