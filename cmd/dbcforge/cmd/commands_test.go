package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/dbcforge/pkg/export"
	"github.com/ssargent/dbcforge/pkg/schema"
	"github.com/ssargent/dbcforge/pkg/worker"
)

func TestRunExport(t *testing.T) {
	rt := testRuntime(t)
	pool := worker.NewPool(rt.logger)
	path := writeSpell(t, t.TempDir())

	t.Run("writes one file per input", func(t *testing.T) {
		outDir := filepath.Join(t.TempDir(), "csv")
		written, err := runExport(context.Background(), rt, pool, []string{path}, export.FormatCSV, outDir)
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join(outDir, "Spell.csv")}, written)

		data, err := os.ReadFile(written[0])
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "ID;Level;Speed;Name;"))
		assert.Contains(t, string(data), `"Frostbolt"`)
	})

	t.Run("same output written in turn", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "Spell.dbc")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(other, data, 0644))

		outDir := t.TempDir()
		written, err := runExport(context.Background(), rt, pool, []string{path, other}, export.FormatSQLite, outDir)
		require.NoError(t, err)
		assert.Len(t, written, 2)
		assert.FileExists(t, filepath.Join(outDir, "Spell.sqlite"))
	})

	t.Run("failures are collected", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "Item.dbc")
		written, err := runExport(context.Background(), rt, pool, []string{missing, path}, export.FormatJSON, t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Item.dbc")
		require.Len(t, written, 1)
		assert.Equal(t, "Spell.json", filepath.Base(written[0]))
	})

	pool.Wait()
}

func TestRunSet(t *testing.T) {
	rt := testRuntime(t)
	dir := t.TempDir()
	path := writeSpell(t, dir)

	t.Run("by name to a new file", func(t *testing.T) {
		out := filepath.Join(dir, "Spell.new.dbc")
		previous, current, err := runSet(rt, path, out, 1, "name", "Arcane Missiles")
		require.NoError(t, err)
		assert.Equal(t, "Frostbolt", previous)
		assert.Equal(t, "Arcane Missiles", current)

		f, err := loadFile(rt, out, nil)
		require.NoError(t, err)
		assert.Equal(t, "Arcane Missiles", f.Table()[1][3].Str())

		f, err = loadFile(rt, path, nil)
		require.NoError(t, err)
		assert.Equal(t, "Frostbolt", f.Table()[1][3].Str())
	})

	t.Run("by index in place", func(t *testing.T) {
		previous, current, err := runSet(rt, path, path, 0, "1", "-3")
		require.NoError(t, err)
		assert.Equal(t, "1", previous)
		assert.Equal(t, "-3", current)

		f, err := loadFile(rt, path, nil)
		require.NoError(t, err)
		assert.Equal(t, int32(-3), f.Table()[0][1].Int32())
	})

	testCases := []struct {
		name   string
		record int
		field  string
		value  string
	}{
		{name: "unknown field", record: 0, field: "Mana", value: "1"},
		{name: "field out of range", record: 0, field: "5", value: "1"},
		{name: "record out of range", record: 2, field: "ID", value: "1"},
		{name: "bad int", record: 0, field: "Level", value: "high"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "Spell.dbc")
			_, _, err := runSet(rt, path, out, tc.record, tc.field, tc.value)
			assert.Error(t, err)
			assert.NoFileExists(t, out)
		})
	}
}

func TestRewriteCommand(t *testing.T) {
	rt := testRuntime(t)
	dir := t.TempDir()
	path := writeSpell(t, dir)
	out := filepath.Join(dir, "Spell.clean.dbc")

	printed, err := runCommand(t, rewriteCmd, rt, path, out)
	require.NoError(t, err)
	assert.Contains(t, printed, "2 records")

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	rewritten, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, original, rewritten)
}

func TestBuildsAndFieldCommands(t *testing.T) {
	rt := testRuntime(t)

	printed, err := runCommand(t, buildsCmd, rt, "Spell")
	require.NoError(t, err)
	assert.Equal(t, "Default\n12340\n", printed)

	printed, err = runCommand(t, buildsCmd, rt, "Item")
	require.NoError(t, err)
	assert.Equal(t, "Default\n", printed)

	_, err = runCommand(t, fieldCmd, rt, "Spell", "12340", "4", "visible", "true")
	require.NoError(t, err)

	reloaded, err := schema.LoadCatalog(rt.config.SchemaFile)
	require.NoError(t, err)
	assert.True(t, reloaded.Load("Spell", "12340", 5).Fields[4].Visible)

	_, err = runCommand(t, fieldCmd, rt, "Spell", "12340", "9", "name", "Oops")
	assert.Error(t, err)
	_, err = runCommand(t, fieldCmd, rt, "Spell", "12340", "x", "name", "Oops")
	assert.Error(t, err)
}

func TestFindCommand(t *testing.T) {
	rt := testRuntime(t)
	path := writeSpell(t, t.TempDir())

	printed, err := runCommand(t, findCmd, rt, path, "ID", "116")
	require.NoError(t, err)
	assert.Contains(t, printed, "Frostbolt")
	assert.NotContains(t, printed, "Fireball")

	printed, err = runCommand(t, findCmd, rt, path, "level", "0", "10")
	require.NoError(t, err)
	assert.Contains(t, printed, "Fireball")
	assert.Contains(t, printed, "Frostbolt")

	printed, err = runCommand(t, findCmd, rt, path, "Name", "Blizzard")
	require.NoError(t, err)
	assert.Equal(t, "no matching records\n", printed)

	_, err = runCommand(t, findCmd, rt, path, "Mana", "1")
	assert.Error(t, err)
}
