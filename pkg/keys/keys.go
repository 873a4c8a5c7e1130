// Package keys holds the keyword tables that drive dependency discovery: which
// material parameters name textures or materials, and which entity keys name
// sounds, models or materials.
package keys

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed defaults/*.txt
var defaultFiles embed.FS

// Category names one keyword table.
type Category string

const (
	Texture        Category = "texture"
	Material       Category = "material"
	EntitySound    Category = "entity_sound"
	EntityModel    Category = "entity_model"
	EntityMaterial Category = "entity_material"
)

// Categories lists every table in load order.
var Categories = []Category{Texture, Material, EntitySound, EntityModel, EntityMaterial}

// FileName returns the line-file name of a category inside a keys directory.
func (c Category) FileName() string {
	switch c {
	case Texture:
		return "texturekeys.txt"
	case Material:
		return "materialkeys.txt"
	case EntitySound:
		return "vmfsoundkeys.txt"
	case EntityModel:
		return "vmfmodelkeys.txt"
	case EntityMaterial:
		return "vmfmaterialkeys.txt"
	}
	return ""
}

// Table is an immutable, case-insensitive set of key names.
type Table struct {
	names []string
	set   map[string]struct{}
}

// NewTable builds a table from names; duplicates and blanks are dropped.
func NewTable(names []string) Table {
	t := Table{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := strings.ToLower(n)
		if _, dup := t.set[k]; dup {
			continue
		}
		t.set[k] = struct{}{}
		t.names = append(t.names, n)
	}
	return t
}

// Has reports whether key is in the table.
func (t Table) Has(key string) bool {
	_, ok := t.set[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Names returns a copy of the table's names in file order.
func (t Table) Names() []string { return append([]string(nil), t.names...) }

// Len returns the number of names.
func (t Table) Len() int { return len(t.names) }

// Tables is the full capability set consumed by the walker.
type Tables struct {
	tables map[Category]Table
}

// Get returns the table for c (empty when unknown).
func (ts *Tables) Get(c Category) Table {
	if ts == nil {
		return Table{}
	}
	return ts.tables[c]
}

func (ts *Tables) Texture() Table        { return ts.Get(Texture) }
func (ts *Tables) Material() Table       { return ts.Get(Material) }
func (ts *Tables) EntitySound() Table    { return ts.Get(EntitySound) }
func (ts *Tables) EntityModel() Table    { return ts.Get(EntityModel) }
func (ts *Tables) EntityMaterial() Table { return ts.Get(EntityMaterial) }

// ParseLines reads one key per line. Blank lines and // comments are skipped.
func ParseLines(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Defaults returns the tables compiled into the binary.
func Defaults() *Tables {
	ts := &Tables{tables: make(map[Category]Table, len(Categories))}
	for _, c := range Categories {
		data, err := defaultFiles.ReadFile("defaults/" + c.FileName())
		if err != nil {
			// embedded at build time; a miss is a packaging bug
			panic(fmt.Sprintf("keys: embedded %s: %v", c.FileName(), err))
		}
		ts.tables[c] = NewTable(ParseLines(data))
	}
	return ts
}

// LoadDir reads the five line files from dir. A file that does not exist keeps
// the built-in table for its category.
func LoadDir(dir string) (*Tables, error) {
	ts := Defaults()
	for _, c := range Categories {
		path := filepath.Join(dir, c.FileName())
		data, err := os.ReadFile(path) // #nosec G304 -- user-configured keys directory
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read key table %s: %w", path, err)
		}
		ts.tables[c] = NewTable(ParseLines(data))
	}
	return ts, nil
}

// bundle is the TOML form: one array per category.
type bundle struct {
	Texture        []string `toml:"texture"`
	Material       []string `toml:"material"`
	EntitySound    []string `toml:"entity_sound"`
	EntityModel    []string `toml:"entity_model"`
	EntityMaterial []string `toml:"entity_material"`
}

// LoadTOML reads all tables from one TOML document. Omitted arrays keep the
// built-in table.
func LoadTOML(path string) (*Tables, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-configured keys file
	if err != nil {
		return nil, fmt.Errorf("read keys file %s: %w", path, err)
	}
	return ParseTOML(data)
}

// ParseTOML decodes a key bundle.
func ParseTOML(data []byte) (*Tables, error) {
	var b bundle
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse keys bundle: %w", err)
	}
	ts := Defaults()
	for c, names := range map[Category][]string{
		Texture:        b.Texture,
		Material:       b.Material,
		EntitySound:    b.EntitySound,
		EntityModel:    b.EntityModel,
		EntityMaterial: b.EntityMaterial,
	} {
		if names != nil {
			ts.tables[c] = NewTable(names)
		}
	}
	return ts, nil
}

// Load picks the source: a TOML file wins over a directory, which wins over the
// built-in defaults.
func Load(dir, file string) (*Tables, error) {
	switch {
	case file != "":
		return LoadTOML(file)
	case dir != "":
		return LoadDir(dir)
	default:
		return Defaults(), nil
	}
}
