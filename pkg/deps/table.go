package deps

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTable is returned (wrapped) for every problem with a dependency table
var ErrInvalidTable = eris.New("invalid dependency table")

// DefaultFiles lists the file names Discover() looks for in the project root, in order
var DefaultFiles = []string{"deps.yml", "deps.yaml", "deps.star"}

// Table is the ordered list of dependencies. The order is the build order.
type Table []Spec

// Default returns the built-in dependency table
func Default() Table {
	return Table{
		New("glfw").
			GenFlag("GLFW_BUILD_EXAMPLES=OFF").
			Shared().
			Spec(),
		New("fastgltf").
			Shared().
			Spec(),
		New("nlohmann-json").
			Shared().
			Spec(),
		New("glm").
			GenFlag("GLM_BUILD_TESTS=OFF").
			Static().
			Spec(),
		New("reactphysics3d").
			Static().
			Spec(),
	}
}

// Validate checks that every name is usable as a single path segment and that no name appears twice
func (t Table) Validate() error {
	seen := make(map[string]bool, len(t))
	for idx, spec := range t {
		name := spec.Name()
		if name == "" {
			return eris.Wrapf(ErrInvalidTable, "dependency #%d has no name", idx)
		}

		if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return eris.Wrapf(ErrInvalidTable, "dependency name %q is not a plain directory name", name)
		}

		if seen[name] {
			return eris.Wrapf(ErrInvalidTable, "dependency %s is listed more than once", name)
		}
		seen[name] = true
	}

	return nil
}

// Lookup returns the dependency with the given name
func (t Table) Lookup(name string) (Spec, bool) {
	for _, spec := range t {
		if spec.Name() == name {
			return spec, true
		}
	}

	return Spec{}, false
}

// Names returns the dependency names in table order
func (t Table) Names() []string {
	names := make([]string, len(t))
	for idx, spec := range t {
		names[idx] = spec.Name()
	}
	return names
}

type yamlDep struct {
	Name      string
	Flags     []string
	GenArgs   []string `yaml:"genArgs,omitempty"`
	BuildArgs []string `yaml:"buildArgs,omitempty"`
	Linkage   string
}

type yamlConfig struct {
	Deps []yamlDep
}

// ParseYAML reads a table in the deps.yml format:
//
//	deps:
//	  - name: glfw
//	    flags: [GLFW_BUILD_EXAMPLES=OFF]
//	    linkage: shared
func ParseYAML(data []byte) (Table, error) {
	var cfg yamlConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&cfg)
	if err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "failed to parse YAML")
	}

	table := make(Table, 0, len(cfg.Deps))
	for _, dep := range cfg.Deps {
		linkage, err := ParseLinkage(dep.Linkage)
		if err != nil {
			return nil, eris.Wrapf(err, "dependency %s", dep.Name)
		}

		builder := New(dep.Name)
		for _, flag := range dep.Flags {
			builder.GenFlag(flag)
		}
		builder.GenArgs(dep.GenArgs...).
			BuildArgs(dep.BuildArgs...).
			Linkage(linkage)

		table = append(table, builder.Spec())
	}

	err = table.Validate()
	if err != nil {
		return nil, err
	}
	return table, nil
}

// LoadFile loads a dependency table from a .yml, .yaml or .star file
func LoadFile(ctx context.Context, file string) (Table, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, eris.Wrapf(err, "could not open file %s", file)
	}

	var table Table
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		table, err = ParseYAML(data)
	case ".star":
		table, err = ParseStarlark(ctx, file, data)
	default:
		return nil, eris.Wrapf(ErrInvalidTable, "unsupported file type %s", file)
	}

	if err != nil {
		return nil, eris.Wrapf(err, "failed to load %s", file)
	}
	return table, nil
}

// Discover loads the first of DefaultFiles found in root. If none exists, the built-in table is returned
// and the returned path is empty.
func Discover(ctx context.Context, root string) (Table, string, error) {
	for _, name := range DefaultFiles {
		file := filepath.Join(root, name)
		_, err := os.Stat(file)
		if err == nil {
			table, err := LoadFile(ctx, file)
			return table, file, err
		}

		if !eris.Is(err, os.ErrNotExist) {
			return nil, "", eris.Wrapf(err, "failed to check %s", file)
		}
	}

	return Default(), "", nil
}
