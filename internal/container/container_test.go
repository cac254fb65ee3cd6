package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cardflow/txn-uploader/internal/config"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Mapping.Path = filepath.Join(t.TempDir(), "org_mapping.json")
	cfg.Mapping.Scheme = "legacy"
	cfg.Submit.Endpoint = config.DefaultEndpoint
	cfg.Submit.TimeoutSeconds = 5
	cfg.Submit.DryRun = true
	cfg.Extract.CardStrict = true
	cfg.Extract.CardPrefix = "9643"
	cfg.Extract.CardLength = 19
	cfg.Extract.DiscountPolicy = "default_zero"
	cfg.Extract.RequireTransactionID = true
	return cfg
}

func TestNewContainer(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		c, err := NewContainer(nil, nil)
		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "configuration cannot be nil")
	})

	t.Run("valid config", func(t *testing.T) {
		cfg := testConfig(t)
		c, err := NewContainer(cfg, nil)
		require.NoError(t, err)

		assert.NotNil(t, c.GetLogger())
		assert.Same(t, cfg, c.GetConfig())
		assert.NotNil(t, c.GetStore())
		assert.NotNil(t, c.GetExtractor())
		assert.NotNil(t, c.GetSubmitter())
		assert.Equal(t, 0, c.GetStore().Len())
	})

	t.Run("malformed mapping file is not fatal", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.WriteFile(cfg.Mapping.Path, []byte("{not json"), 0600))
		logger := logging.NewMockLogger()

		c, err := NewContainer(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, 0, c.GetStore().Len())
		assert.True(t, logger.HasEntryContaining("WARN", "empty organization mapping"))
	})
}

func TestContainer_OrchestratorDryRun(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Mapping.Path, []byte(`{"Acme": {"ext_id": 42}}`), 0600))

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Acme"), 0750))
	csv := "id_transaction;id_card;total_price;total_discount\n" +
		"T1;9643123456789012345;10.50;0\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "Acme", "sales.csv"), []byte(csv), 0600))

	c, err := NewContainer(cfg, logging.NewMockLogger())
	require.NoError(t, err)

	result, err := c.Orchestrator(root).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Folders, 1)

	folder := result.Folders[0]
	assert.Equal(t, "Acme", folder.Folder)
	assert.Equal(t, 1, folder.Stats.RowsExtracted)
	assert.Equal(t, models.OutcomeDryRun, folder.Outcome.Kind)
}
