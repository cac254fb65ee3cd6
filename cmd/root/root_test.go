package root_test

import (
	"testing"

	"cardflow/txn-uploader/cmd/root"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "txn-uploader", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "card transactions")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	if root.Cmd.PersistentFlags().Lookup("config") == nil {
		root.Init()
	}

	assert.NotNil(t, root.Cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.Cmd.PersistentFlags().Lookup("log-level"))
}

func TestNewContainer_RequiresConfig(t *testing.T) {
	saved := root.AppConfig
	root.AppConfig = nil
	t.Cleanup(func() { root.AppConfig = saved })

	_, err := root.NewContainer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration not loaded")
}
