package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemdUnit(t *testing.T) {
	rt := testRuntime(t)

	unit := systemdUnit(rt.config, "/etc/dbcforge/config.yaml", "dbc", "/opt/dbcforge")
	assert.Contains(t, unit, "User=dbc\n")
	assert.Contains(t, unit, "Group=dbc\n")
	assert.Contains(t, unit, "ExecStart=/opt/dbcforge serve --config /etc/dbcforge/config.yaml\n")
	assert.Contains(t, unit, "ReadWritePaths="+rt.config.DataDir+"\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target")
}

func TestUnitCommand(t *testing.T) {
	rt := testRuntime(t)

	printed, err := runCommand(t, unitCmd, rt)
	require.NoError(t, err)
	assert.Contains(t, printed, "User=dbcforge\n")
	assert.Contains(t, printed, "ExecStart=/usr/local/bin/dbcforge serve --config "+rt.configPath)

	out := filepath.Join(t.TempDir(), "dbcforge.service")
	require.NoError(t, unitCmd.Flags().Set("out", out))
	t.Cleanup(func() { _ = unitCmd.Flags().Set("out", "") })

	printed, err = runCommand(t, unitCmd, rt)
	require.NoError(t, err)
	assert.Contains(t, printed, "Wrote "+out)
	assert.FileExists(t, out)
}
