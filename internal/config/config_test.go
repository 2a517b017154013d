package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/anomaly"
	"voteaudit/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voteaudit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.False(t, cfg.Database.Enabled())
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, anomaly.DefaultThresholds(), cfg.Analysis.Thresholds)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
database:
  driver: sqlite
  url: "file:reports.db"
logging:
  level: debug
  format: json
analysis:
  parallel: false
  thresholds:
    dominance_pct: 65
    round_number_pct: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Analysis.Parallel)
	assert.Equal(t, 65.0, cfg.Analysis.Thresholds.DominancePct)
	assert.Equal(t, 25.0, cfg.Analysis.Thresholds.RoundNumberPct)
	// untouched keys keep their defaults
	assert.Equal(t, 70.0, cfg.Analysis.Thresholds.DominanceHighPct)
	assert.Equal(t, 30, cfg.Analysis.Thresholds.BenfordMinSample)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("VOTEAUDIT_ANALYSIS_THRESHOLDS_LOW_CV_PCT", "12.5")
	t.Setenv("DATABASE_URL", "postgres://localhost/voteaudit")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12.5, cfg.Analysis.Thresholds.LowCVPct)
	assert.Equal(t, "postgres://localhost/voteaudit", cfg.Database.URL)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad driver", "database:\n  driver: mysql\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad threshold", "analysis:\n  thresholds:\n    linear_r: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
