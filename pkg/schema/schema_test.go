package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `tables:
  Spell:
    - build: "12340"
      fields:
        - name: ID
          type: uint
        - name: Power
          type: int
        - name: Speed
          type: f
        - name: SpellName
          type: string
          visible: false
        - type: bogus
    - build: "8606"
      fields:
        - name: ID
  Item:
    - build: "12340"
      fields:
        - name: ID
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))
	return path
}

func TestDefault(t *testing.T) {
	s := Default("Spell", 3)

	assert.Equal(t, uint32(3), s.FieldCount())
	assert.Equal(t, []string{"Field1", "Field2", "Field3"}, s.FieldNames())
	for i := 0; i < 3; i++ {
		assert.Equal(t, KindUint32, s.FieldKind(i))
		assert.True(t, s.Fields[i].Visible)
	}
	assert.True(t, s.IsDefault())
	assert.False(t, s.HasStrings())
}

func TestDefault_Empty(t *testing.T) {
	s := Default("Empty", 0)
	assert.Equal(t, uint32(0), s.FieldCount())
	assert.Empty(t, s.FieldNames())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		tag  string
		want FieldKind
	}{
		{"uint", KindUint32},
		{"u", KindUint32},
		{"int", KindInt32},
		{"i", KindInt32},
		{"float", KindFloat32},
		{"F", KindFloat32},
		{"string", KindString},
		{"s", KindString},
		{"b", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.tag))
		})
	}
}

func TestSchema_OutOfRange(t *testing.T) {
	s := Default("Spell", 1)
	assert.Equal(t, KindUnknown, s.FieldKind(5))
	assert.Equal(t, "Field6", s.FieldName(5))
	assert.Equal(t, KindUnknown, s.FieldKind(-1))
}

func TestSchema_FieldIndex(t *testing.T) {
	s := &Schema{Fields: []FieldDescriptor{
		{Kind: KindUint32, Name: "ID"},
		{Kind: KindString, Name: "SpellName"},
		{Kind: KindString, Name: "spellname"},
	}}

	testCases := []struct {
		ref  string
		want int
	}{
		{"0", 0},
		{"2", 2},
		{"SpellName", 1},
		{"spellname", 2},
		{"SPELLNAME", 1},
		{"id", 0},
	}
	for _, tc := range testCases {
		got, err := s.FieldIndex(tc.ref)
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.want, got, tc.ref)
	}

	for _, ref := range []string{"3", "-1", "Missing", ""} {
		_, err := s.FieldIndex(ref)
		assert.Error(t, err, ref)
	}
}

func TestCatalog_Load(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t))
	require.NoError(t, err)

	t.Run("named build", func(t *testing.T) {
		s := c.Load("Spell", "12340", 5)
		require.Equal(t, uint32(5), s.FieldCount())
		assert.Equal(t, "12340", s.Build)
		assert.False(t, s.IsDefault())

		assert.Equal(t, KindUint32, s.FieldKind(0))
		assert.Equal(t, KindInt32, s.FieldKind(1))
		assert.Equal(t, KindFloat32, s.FieldKind(2))
		assert.Equal(t, KindString, s.FieldKind(3))
		assert.Equal(t, KindUnknown, s.FieldKind(4))

		assert.Equal(t, "SpellName", s.FieldName(3))
		assert.False(t, s.Fields[3].Visible)
		assert.Equal(t, "Field5", s.FieldName(4))
		assert.True(t, s.Fields[4].Visible)
		assert.True(t, s.HasStrings())
	})

	t.Run("missing type defaults to uint", func(t *testing.T) {
		s := c.Load("Spell", "8606", 1)
		assert.Equal(t, KindUint32, s.FieldKind(0))
	})

	t.Run("default build", func(t *testing.T) {
		s := c.Load("Spell", DefaultBuild, 4)
		assert.True(t, s.IsDefault())
		assert.Equal(t, uint32(4), s.FieldCount())
	})

	t.Run("unknown build falls back silently", func(t *testing.T) {
		s := c.Load("Spell", "99999", 2)
		assert.True(t, s.IsDefault())
		assert.Equal(t, []string{"Field1", "Field2"}, s.FieldNames())
	})

	t.Run("unknown table falls back silently", func(t *testing.T) {
		s := c.Load("Nope", "12340", 2)
		assert.True(t, s.IsDefault())
	})
}

func TestCatalog_Builds(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultBuild, "12340", "8606"}, c.Builds("Spell"))
	assert.Equal(t, []string{DefaultBuild}, c.Builds("Missing"))
	assert.ElementsMatch(t, []string{"Spell", "Item"}, c.Tables())
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Path())
	assert.Equal(t, []string{DefaultBuild}, c.Builds("Spell"))
}

func TestLoadCatalog_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tables: [unclosed"), 0644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestCatalog_SetFieldAttributeAndSave(t *testing.T) {
	path := writeCatalog(t)
	c, err := LoadCatalog(path)
	require.NoError(t, err)

	require.NoError(t, c.SetFieldVisible("Spell", "12340", 3, true))
	require.NoError(t, c.SetFieldAttribute("Spell", "12340", 0, "name", "SpellID"))
	require.NoError(t, c.SetFieldAttribute("Spell", "12340", 1, "type", "uint"))
	require.NoError(t, c.Save())

	reloaded, err := LoadCatalog(path)
	require.NoError(t, err)
	s := reloaded.Load("Spell", "12340", 5)
	assert.True(t, s.Fields[3].Visible)
	assert.Equal(t, "SpellID", s.FieldName(0))
	assert.Equal(t, KindUint32, s.FieldKind(1))
}

func TestCatalog_SetFieldAttributeErrors(t *testing.T) {
	c, err := LoadCatalog(writeCatalog(t))
	require.NoError(t, err)

	assert.NoError(t, c.SetFieldAttribute("Spell", DefaultBuild, 0, "name", "x"), "default build is read-only and ignored")
	assert.Error(t, c.SetFieldAttribute("Spell", "1", 0, "name", "x"))
	assert.Error(t, c.SetFieldAttribute("Spell", "12340", 10, "name", "x"))
	assert.Error(t, c.SetFieldAttribute("Spell", "12340", 0, "color", "red"))
	assert.Error(t, c.SetFieldAttribute("Spell", "12340", 0, "visible", "maybe"))
}

func TestCatalog_Put(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "schemas.yaml")
	c := NewCatalog(path)

	s := &Schema{
		Table: "Map",
		Build: "5875",
		Fields: []FieldDescriptor{
			{Kind: KindUint32, Name: "ID", Visible: true},
			{Kind: KindString, Name: "Directory", Visible: false},
		},
	}
	require.NoError(t, c.Put(s))
	assert.Error(t, c.Put(Default("Map", 2)))
	require.NoError(t, c.Save())

	reloaded, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, s, reloaded.Load("Map", "5875", 2))

	s.Fields[0].Name = "MapID"
	require.NoError(t, c.Put(s))
	assert.Equal(t, []string{DefaultBuild, "5875"}, c.Builds("Map"))
	assert.Equal(t, "MapID", c.Load("Map", "5875", 2).FieldName(0))
}
