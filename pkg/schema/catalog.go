package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog holds named schemas keyed by table name and build, persisted as a
// YAML document:
//
//	tables:
//	  Spell:
//	    - build: "12340"
//	      fields:
//	        - name: ID
//	          type: uint
//	        - name: SpellName
//	          type: string
//	          visible: false
type Catalog struct {
	path  string
	doc   catalogDoc
	mutex sync.RWMutex
}

type catalogDoc struct {
	Tables map[string][]buildDef `yaml:"tables"`
}

type buildDef struct {
	Build  string     `yaml:"build"`
	Fields []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Name    string `yaml:"name,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Visible *bool  `yaml:"visible,omitempty"`
}

// NewCatalog returns an empty catalog that saves to path.
func NewCatalog(path string) *Catalog {
	return &Catalog{
		path: path,
		doc:  catalogDoc{Tables: make(map[string][]buildDef)},
	}
}

// LoadCatalog reads a catalog file. A missing file yields an empty catalog
// bound to the same path, so every lookup falls back to the default schema.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog(path)
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read schema catalog: %w", err)
	}

	if err := yaml.Unmarshal(data, &c.doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema catalog: %w", err)
	}
	if c.doc.Tables == nil {
		c.doc.Tables = make(map[string][]buildDef)
	}
	return c, nil
}

// Path returns the file the catalog was loaded from.
func (c *Catalog) Path() string {
	return c.path
}

// Builds lists the builds known for table. The list always starts with
// DefaultBuild.
func (c *Catalog) Builds(table string) []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	builds := []string{DefaultBuild}
	for _, b := range c.doc.Tables[table] {
		builds = append(builds, b.Build)
	}
	return builds
}

// Tables lists every table with at least one build.
func (c *Catalog) Tables() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	tables := make([]string, 0, len(c.doc.Tables))
	for name := range c.doc.Tables {
		tables = append(tables, name)
	}
	return tables
}

// Load returns the schema for table at build. DefaultBuild, or a build the
// catalog does not know, yields Default(table, fieldCount); no error is
// reported for an unknown build.
func (c *Catalog) Load(table, build string, fieldCount uint32) *Schema {
	if build == "" || build == DefaultBuild {
		return Default(table, fieldCount)
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	def, ok := c.find(table, build)
	if !ok {
		return Default(table, fieldCount)
	}

	s := &Schema{Table: table, Build: build, Fields: make([]FieldDescriptor, len(def.Fields))}
	for i, f := range def.Fields {
		fd := FieldDescriptor{Kind: KindUint32, Name: f.Name, Visible: true}
		if f.Type != "" {
			fd.Kind = ParseKind(f.Type)
		}
		if fd.Name == "" {
			fd.Name = defaultFieldName(i)
		}
		if f.Visible != nil {
			fd.Visible = *f.Visible
		}
		s.Fields[i] = fd
	}
	return s
}

// Put registers or replaces the schema for s.Table at s.Build.
func (c *Catalog) Put(s *Schema) error {
	if s.Build == "" || s.Build == DefaultBuild {
		return fmt.Errorf("cannot store a schema under the %q build", DefaultBuild)
	}

	def := buildDef{Build: s.Build, Fields: make([]fieldDef, len(s.Fields))}
	for i, f := range s.Fields {
		visible := f.Visible
		def.Fields[i] = fieldDef{Name: f.Name, Type: f.Kind.String(), Visible: &visible}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	builds := c.doc.Tables[s.Table]
	for i := range builds {
		if builds[i].Build == s.Build {
			builds[i] = def
			return nil
		}
	}
	c.doc.Tables[s.Table] = append(builds, def)
	return nil
}

// SetFieldAttribute changes one attribute ("name", "type" or "visible") of
// column index in the stored schema. It does nothing for DefaultBuild.
func (c *Catalog) SetFieldAttribute(table, build string, index int, attr, value string) error {
	if build == "" || build == DefaultBuild {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	def, ok := c.find(table, build)
	if !ok {
		return fmt.Errorf("no schema for table %s build %s", table, build)
	}
	if index < 0 || index >= len(def.Fields) {
		return fmt.Errorf("field index %d out of range [0,%d)", index, len(def.Fields))
	}

	f := &def.Fields[index]
	switch attr {
	case "name":
		f.Name = value
	case "type":
		f.Type = value
	case "visible":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid visible value %q: %w", value, err)
		}
		f.Visible = &v
	default:
		return fmt.Errorf("unknown field attribute %q", attr)
	}
	return nil
}

// SetFieldVisible toggles the visibility of column index.
func (c *Catalog) SetFieldVisible(table, build string, index int, visible bool) error {
	return c.SetFieldAttribute(table, build, index, "visible", strconv.FormatBool(visible))
}

// Save writes the catalog back to its path.
func (c *Catalog) Save() error {
	if c.path == "" {
		return fmt.Errorf("schema catalog has no path")
	}

	c.mutex.RLock()
	data, err := yaml.Marshal(&c.doc)
	c.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal schema catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema catalog: %w", err)
	}
	return nil
}

// find returns a pointer into the document; callers hold the mutex.
func (c *Catalog) find(table, build string) (*buildDef, bool) {
	builds := c.doc.Tables[table]
	for i := range builds {
		if builds[i].Build == build {
			return &builds[i], true
		}
	}
	return nil, false
}
