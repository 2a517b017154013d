package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/internal/config"
	"voteaudit/internal/testkit"
	"voteaudit/ports"
)

func TestContainer_WithoutDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(context.Background()))
	assert.Nil(t, c.DB)
	assert.Nil(t, c.ReportStore)
	assert.Len(t, c.Engine.Names(), 11)
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestContainer_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Database.Driver = "sqlite"
	cfg.Database.URL = ":memory:"

	c, err := New(cfg)
	require.NoError(t, err)
	hub := c.EnableEvents()
	require.NoError(t, c.InitWithDatabase(ctx))
	defer c.Shutdown(ctx)
	require.NotNil(t, c.ReportStore)
	assert.Same(t, hub, c.SSEHub)

	units, err := testkit.NewElectionGenerator(testkit.DefaultElectionConfig()).Generate()
	require.NoError(t, err)

	report, err := c.Audit.AnalyzeAndStore(ctx, "generated", units)
	require.NoError(t, err)

	list, err := c.Audit.ListReports(ctx, ports.ReportFilters{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, report.Metadata.RunID, list[0].RunID)
	assert.Equal(t, "generated", list[0].Source)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
