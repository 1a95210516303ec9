// Package deps describes the native libraries that are built before the project itself.
package deps

import (
	"path"

	"github.com/rotisserie/eris"
)

// Linkage tells CMake whether a dependency should be built as a shared or static library
type Linkage int

const (
	// LinkageDefault leaves BUILD_SHARED_LIBS up to the dependency's own CMakeLists.txt
	LinkageDefault Linkage = iota
	Static
	Shared
)

func (l Linkage) String() string {
	switch l {
	case Static:
		return "static"
	case Shared:
		return "shared"
	default:
		return "default"
	}
}

// ParseLinkage converts the names used in dependency files ("shared", "static" or "") into a Linkage
func ParseLinkage(value string) (Linkage, error) {
	switch value {
	case "", "default":
		return LinkageDefault, nil
	case "static":
		return Static, nil
	case "shared":
		return Shared, nil
	}

	return LinkageDefault, eris.Errorf("unknown linkage %q (expected shared or static)", value)
}

// Spec is the immutable description of a single dependency. Use New() to build one.
type Spec struct {
	name      string
	genArgs   []string
	buildArgs []string
	linkage   Linkage
}

// Name returns the dependency's name which is also its directory below the dependency root
func (s Spec) Name() string {
	return s.name
}

// GenArgs returns a copy of the arguments passed to the configure step
func (s Spec) GenArgs() []string {
	return append([]string(nil), s.genArgs...)
}

// BuildArgs returns a copy of the arguments passed to the install step
func (s Spec) BuildArgs() []string {
	return append([]string(nil), s.buildArgs...)
}

func (s Spec) Linkage() Linkage {
	return s.linkage
}

// IsShared reports whether the dependency produces shared libraries that have to be shipped
func (s Spec) IsShared() bool {
	return s.linkage == Shared
}

// Dir returns the source directory of the dependency relative to the project root
func (s Spec) Dir(depsRoot string) string {
	return path.Join(depsRoot, s.name)
}

// BuildDir returns the CMake binary directory
func (s Spec) BuildDir(depsRoot string) string {
	return path.Join(s.Dir(depsRoot), "build")
}

// InstallDir returns the directory passed as CMAKE_INSTALL_PREFIX
func (s Spec) InstallDir(depsRoot string) string {
	return path.Join(s.Dir(depsRoot), "install")
}

// Builder assembles a Spec. Every method returns the builder to allow chaining.
type Builder struct {
	spec Spec
}

// New starts a new dependency description
func New(name string) *Builder {
	return &Builder{spec: Spec{name: name}}
}

// GenArgs appends raw arguments for the configure step
func (b *Builder) GenArgs(args ...string) *Builder {
	b.spec.genArgs = append(b.spec.genArgs, args...)
	return b
}

// GenFlag appends a -D<flag> argument for the configure step
func (b *Builder) GenFlag(flag string) *Builder {
	return b.GenArgs("-D" + flag)
}

// BuildArgs appends raw arguments for the install step
func (b *Builder) BuildArgs(args ...string) *Builder {
	b.spec.buildArgs = append(b.spec.buildArgs, args...)
	return b
}

func (b *Builder) Shared() *Builder {
	b.spec.linkage = Shared
	return b.GenArgs("-DBUILD_SHARED_LIBS=ON")
}

func (b *Builder) Static() *Builder {
	b.spec.linkage = Static
	return b.GenArgs("-DBUILD_SHARED_LIBS=OFF")
}

// Linkage calls Shared() or Static() depending on l. LinkageDefault doesn't add anything.
func (b *Builder) Linkage(l Linkage) *Builder {
	switch l {
	case Shared:
		return b.Shared()
	case Static:
		return b.Static()
	}
	return b
}

// Spec returns a snapshot of the current state. Later builder calls don't affect the returned value.
func (b *Builder) Spec() Spec {
	return Spec{
		name:      b.spec.name,
		genArgs:   b.spec.GenArgs(),
		buildArgs: b.spec.BuildArgs(),
		linkage:   b.spec.linkage,
	}
}
