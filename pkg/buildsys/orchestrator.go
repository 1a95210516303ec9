package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lunix-engine/setup/pkg/deps"
)

// PrefixSeparator separates the entries of CMAKE_PREFIX_PATH
const PrefixSeparator = ";"

// Outcome records what happened to a dependency during a run
type Outcome int

const (
	Skipped Outcome = iota
	ConfiguredAndInstalled
	Cleaned
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case ConfiguredAndInstalled:
		return "configured and installed"
	case Cleaned:
		return "cleaned"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Step is a single entry of the run record
type Step struct {
	Name    string
	Outcome Outcome
}

// Options configures an Orchestrator. Zero values are replaced with the defaults noted below.
type Options struct {
	// Root is the project root. All other paths are relative to it. Default: "."
	Root string
	// DepsRoot contains one source directory per dependency. Default: "deps"
	DepsRoot string
	// SourceDir is the project's own source directory. Default: "."
	SourceDir string
	// BuildDir is the project's own build directory. Default: "build"
	BuildDir string
	// Tool is the build-configuration tool. Default: "cmake"
	Tool string
	// Generator is passed as -G if set
	Generator string
	// BuildType is passed as CMAKE_BUILD_TYPE and --config if set
	BuildType string

	// Runner defaults to a ShellRunner working in Root
	Runner ProcessRunner
	// State defaults to an FSResolver
	State StateResolver
	// Output receives progress bars. Default: os.Stderr
	Output io.Writer
}

// Orchestrator builds, cleans and lists the dependencies of a table
type Orchestrator struct {
	table deps.Table
	opts  Options
	steps []Step
}

// New validates the table and returns an Orchestrator for it
func New(table deps.Table, opts Options) (*Orchestrator, error) {
	err := table.Validate()
	if err != nil {
		return nil, err
	}

	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.DepsRoot == "" {
		opts.DepsRoot = "deps"
	}
	if opts.SourceDir == "" {
		opts.SourceDir = "."
	}
	if opts.BuildDir == "" {
		opts.BuildDir = "build"
	}
	if opts.Tool == "" {
		opts.Tool = "cmake"
	}

	opts.DepsRoot = filepath.ToSlash(opts.DepsRoot)
	opts.SourceDir = filepath.ToSlash(opts.SourceDir)
	opts.BuildDir = filepath.ToSlash(opts.BuildDir)

	if opts.Runner == nil {
		opts.Runner = &ShellRunner{Dir: opts.Root}
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.State == nil {
		opts.State = FSResolver{Root: opts.Root, DepsRoot: opts.DepsRoot}
	}

	return &Orchestrator{
		table: table,
		opts:  opts,
	}, nil
}

// Table returns the dependency table
func (o *Orchestrator) Table() deps.Table {
	return o.table
}

// Steps returns the run record collected so far
func (o *Orchestrator) Steps() []Step {
	return append([]Step(nil), o.steps...)
}

func (o *Orchestrator) record(name string, outcome Outcome) {
	o.steps = append(o.steps, Step{Name: name, Outcome: outcome})
}

// path converts a path relative to the project root into a usable filesystem path
func (o *Orchestrator) path(rel string) string {
	return filepath.Join(o.opts.Root, filepath.FromSlash(rel))
}

func (o *Orchestrator) run(ctx context.Context, args []string) error {
	_, err := o.opts.Runner.Run(ctx, o.opts.Tool, args...)
	return err
}

func (o *Orchestrator) commonGenArgs() []string {
	args := []string{}
	if o.opts.Generator != "" {
		args = append(args, "-G", o.opts.Generator)
	}
	if o.opts.BuildType != "" {
		args = append(args, "-DCMAKE_BUILD_TYPE="+o.opts.BuildType)
	}
	return args
}

func (o *Orchestrator) configureArgs(spec deps.Spec) []string {
	d := o.opts.DepsRoot
	args := []string{"-S", spec.Dir(d), "-B", spec.BuildDir(d), "-DCMAKE_INSTALL_PREFIX=" + spec.InstallDir(d)}
	args = append(args, o.commonGenArgs()...)
	return append(args, spec.GenArgs()...)
}

func (o *Orchestrator) installArgs(spec deps.Spec) []string {
	args := []string{"--build", spec.BuildDir(o.opts.DepsRoot), "--target", "install"}
	if o.opts.BuildType != "" {
		args = append(args, "--config", o.opts.BuildType)
	}
	return append(args, spec.BuildArgs()...)
}

func depLogger(ctx context.Context, spec deps.Spec) (context.Context, *zerolog.Logger) {
	logger := log(ctx).With().Str("dep", spec.Name()).Logger()
	return WithLogger(ctx, &logger), &logger
}

func (o *Orchestrator) build(ctx context.Context, spec deps.Spec) error {
	ctx, logger := depLogger(ctx, spec)

	built, err := o.opts.State.IsBuilt(spec)
	if err != nil {
		o.record(spec.Name(), Failed)
		return err
	}

	if built {
		logger.Info().Msg("already built, skipping")
		o.record(spec.Name(), Skipped)
		return nil
	}

	srcDir := o.path(spec.Dir(o.opts.DepsRoot))
	exists, err := dirExists(srcDir)
	if err == nil && !exists {
		err = eris.Wrapf(ErrFilesystem, "source directory %s of dependency %s is missing", srcDir, spec.Name())
	}
	if err != nil {
		o.record(spec.Name(), Failed)
		return err
	}

	logger.Info().Msg("configuring")
	logger.Debug().Strs("args", spec.GenArgs()).Msg("custom configure arguments")
	err = o.run(ctx, o.configureArgs(spec))
	if err != nil {
		o.record(spec.Name(), Failed)
		return eris.Wrapf(err, "failed to configure %s", spec.Name())
	}

	logger.Info().Msg("building and installing")
	logger.Debug().Strs("args", spec.BuildArgs()).Msg("custom build arguments")
	err = o.run(ctx, o.installArgs(spec))
	if err != nil {
		o.record(spec.Name(), Failed)
		return eris.Wrapf(err, "failed to install %s", spec.Name())
	}

	o.record(spec.Name(), ConfiguredAndInstalled)
	return nil
}

// BuildAll configures and installs every dependency that isn't built yet, in table order.
// The first failure aborts the run.
func (o *Orchestrator) BuildAll(ctx context.Context) error {
	log(ctx).Info().Str("build_type", o.opts.BuildType).Msg("Building all dependencies")
	for _, spec := range o.table {
		err := o.build(ctx, spec)
		if err != nil {
			return err
		}
	}

	return nil
}

// BuildSelected works like BuildAll but only considers the named dependencies. All names are checked
// before anything is built; the dependencies are processed in table order.
func (o *Orchestrator) BuildSelected(ctx context.Context, names []string) error {
	selected := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := o.table.Lookup(name); !ok {
			return eris.Wrapf(ErrUnknownDependency, "%s is not one of %s", name, strings.Join(o.table.Names(), ", "))
		}
		selected[name] = true
	}

	log(ctx).Info().Str("build_type", o.opts.BuildType).Msgf("Building %s", strings.Join(names, ", "))
	for _, spec := range o.table {
		if !selected[spec.Name()] {
			continue
		}

		err := o.build(ctx, spec)
		if err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) removeDir(ctx context.Context, rel string) error {
	dir := o.path(rel)
	exists, err := dirExists(dir)
	if err != nil || !exists {
		return err
	}

	log(ctx).Debug().Str("path", dir).Msgf("removing %s", dir)
	err = os.RemoveAll(dir)
	if err != nil {
		return eris.Wrapf(ErrFilesystem, "could not delete %s: %s", dir, err)
	}
	return nil
}

// Clean removes the build and install directories of every built dependency
func (o *Orchestrator) Clean(ctx context.Context) error {
	log(ctx).Info().Msg("Cleaning dependency build files")
	for _, spec := range o.table {
		ctx, logger := depLogger(ctx, spec)

		built, err := o.opts.State.IsBuilt(spec)
		if err != nil {
			o.record(spec.Name(), Failed)
			return err
		}

		if !built {
			logger.Debug().Msg("nothing to clean")
			continue
		}

		for _, dir := range []string{spec.BuildDir(o.opts.DepsRoot), spec.InstallDir(o.opts.DepsRoot)} {
			err = o.removeDir(ctx, dir)
			if err != nil {
				o.record(spec.Name(), Failed)
				return err
			}
		}

		logger.Info().Msg("cleaned")
		o.record(spec.Name(), Cleaned)
	}

	return nil
}

// CleanProject removes the project's own build directory
func (o *Orchestrator) CleanProject(ctx context.Context) error {
	log(ctx).Info().Msgf("Cleaning %s", o.opts.BuildDir)
	return o.removeDir(ctx, o.opts.BuildDir)
}

// ComposePrefixPath returns the value for CMAKE_PREFIX_PATH: every install directory followed by
// PrefixSeparator, in table order.
func (o *Orchestrator) ComposePrefixPath() string {
	var sb strings.Builder
	for _, spec := range o.table {
		sb.WriteString(spec.InstallDir(o.opts.DepsRoot))
		sb.WriteString(PrefixSeparator)
	}
	return sb.String()
}

// ConfigureProject generates the project's own build system with CMAKE_PREFIX_PATH pointing at all
// dependency install directories
func (o *Orchestrator) ConfigureProject(ctx context.Context) error {
	log(ctx).Info().Msg("Generating project files")

	args := []string{"-S", o.opts.SourceDir, "-B", o.opts.BuildDir, "-DCMAKE_PREFIX_PATH=" + o.ComposePrefixPath()}
	args = append(args, o.commonGenArgs()...)
	err := o.run(ctx, args)
	if err != nil {
		return eris.Wrap(err, "failed to configure the project")
	}
	return nil
}

// ListDependencies writes each dependency's name, linkage and arguments to w
func (o *Orchestrator) ListDependencies(w io.Writer) error {
	for _, spec := range o.table {
		_, err := fmt.Fprintf(w, "(dependency) %s [%s]\n- CMake args: %v\n- Build args: %v\n",
			spec.Name(), spec.Linkage(), spec.GenArgs(), spec.BuildArgs())
		if err != nil {
			return eris.Wrap(err, "failed to write dependency list")
		}
	}
	return nil
}
