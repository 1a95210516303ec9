// Package cmd implements the setup CLI on top of the buildsys package
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lunix-engine/setup/pkg"
	"github.com/lunix-engine/setup/pkg/buildsys"
	"github.com/lunix-engine/setup/pkg/config"
	"github.com/lunix-engine/setup/pkg/deps"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Builds the engine's third-party dependencies",
		Long: `This command configures and installs every dependency under deps/ with CMake and then
generates the engine's own build directory against the installed packages.

The dependency table is read from deps.yml or deps.star in the project root if either exists.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runSetup,
	}

	flags := cmd.Flags()
	flags.BoolP("clean", "c", false, "remove the build and install directories of all dependencies and the project")
	flags.BoolP("list-deps", "l", false, "list all dependencies and their arguments")
	flags.BoolP("release", "r", false, "build in release mode")
	flags.BoolP("build-all", "b", false, "build all dependencies and generate the project files")
	flags.StringArray("build-dep", nil, "build only the given dependency (can be passed multiple times)")
	flags.String("copy-libs", "", "copy the shared libraries of all shared dependencies into the given directory")
	flags.BoolP("verbose", "v", false, "print the executed commands and copied files")
	flags.String("deps-file", "", "dependency table to use instead of deps.yml / deps.star")
	flags.String("root", "", "project root (default: closest parent directory containing the deps directory)")
	flags.BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")

	return cmd
}

type cliOptions struct {
	clean     bool
	list      bool
	buildAll  bool
	buildDeps []string
	copyLibs  string
	dryRun    bool
}

func (o cliOptions) hasAction() bool {
	return o.clean || o.list || o.buildAll || len(o.buildDeps) > 0 || o.copyLibs != ""
}

// parseFlags reads the command line flags and applies the ones that override config values
func parseFlags(cmd *cobra.Command, cfg *config.Config) (cliOptions, error) {
	var opts cliOptions
	var err error
	flags := cmd.Flags()

	for name, target := range map[string]*bool{
		"clean":     &opts.clean,
		"list-deps": &opts.list,
		"build-all": &opts.buildAll,
		"dry":       &opts.dryRun,
	} {
		*target, err = flags.GetBool(name)
		if err != nil {
			return opts, err
		}
	}

	opts.buildDeps, err = flags.GetStringArray("build-dep")
	if err != nil {
		return opts, err
	}

	opts.copyLibs, err = flags.GetString("copy-libs")
	if err != nil {
		return opts, err
	}

	release, err := flags.GetBool("release")
	if err != nil {
		return opts, err
	}
	if release {
		cfg.BuildType = "Release"
	}

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return opts, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	for name, target := range map[string]*string{
		"deps-file": &cfg.DepsFile,
		"root":      &cfg.Root,
	} {
		if !flags.Changed(name) {
			continue
		}

		*target, err = flags.GetString(name)
		if err != nil {
			return opts, err
		}
	}

	return opts, cfg.Validate()
}

func newLogger(cfg *config.Config, root string, out io.Writer) zerolog.Logger {
	zerolog.ErrorMarshalFunc = errorMarshaler(cfg.Debug)

	var writer io.Writer
	if cfg.Log.JSON {
		writer = out
	} else {
		console := NewConsoleWriter(out)
		console.Root = root
		console.Debug = cfg.Debug
		writer = console
	}

	return zerolog.New(writer).Level(cfg.LogLevel()).With().Timestamp().Str("run", nanoid.New()).Logger()
}

// findRoot returns the configured project root or searches for it starting at the working directory.
// If no parent contains the deps directory, found is false and the working directory is returned.
func findRoot(cfg *config.Config) (root string, found bool, err error) {
	if cfg.Root != "" {
		root, err = filepath.Abs(cfg.Root)
		return root, true, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", false, eris.Wrap(err, "failed to retrieve the current working directory")
	}

	root, err = pkg.GetProjectRoot(wd, cfg.DepsRoot)
	if err != nil {
		return wd, false, nil
	}
	return root, true, nil
}

func loadTable(ctx context.Context, cfg *config.Config, root string) (deps.Table, error) {
	logger := zerolog.Ctx(ctx)
	if cfg.DepsFile != "" {
		logger.Debug().Str("path", cfg.DepsFile).Msgf("Loading dependencies from %s", cfg.DepsFile)
		return deps.LoadFile(ctx, cfg.DepsFile)
	}

	table, file, err := deps.Discover(ctx, root)
	if err != nil {
		return nil, err
	}

	if file == "" {
		logger.Debug().Msg("Using the built-in dependency table")
	} else {
		logger.Debug().Str("path", file).Msgf("Loaded dependencies from %s", file)
	}
	return table, nil
}

func printSteps(steps []buildsys.Step) {
	for _, step := range steps {
		line := fmt.Sprintf("%s: %s", step.Name, step.Outcome)
		if step.Outcome == buildsys.Failed {
			pkg.PrintError(line)
		} else {
			pkg.PrintSubtask(line)
		}
	}
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts, err := parseFlags(cmd, cfg)
	if err != nil {
		return err
	}

	if !opts.hasAction() {
		return cmd.Help()
	}

	root, found, err := findRoot(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, root, cmd.ErrOrStderr())
	ctx := logger.WithContext(context.Background())
	ctx = buildsys.WithLogger(ctx, &logger)

	if !found {
		logger.Debug().Msgf("No parent directory contains %s, using %s as project root", cfg.DepsRoot, root)
	}

	table, err := loadTable(ctx, cfg, root)
	if err != nil {
		return err
	}

	orch, err := buildsys.New(table, buildsys.Options{
		Root:      root,
		DepsRoot:  cfg.DepsRoot,
		SourceDir: cfg.SourceDir,
		BuildDir:  cfg.BuildDir,
		Tool:      cfg.Tool,
		Generator: cfg.Generator,
		BuildType: cfg.BuildType,
		Runner: &buildsys.ShellRunner{
			Dir:    root,
			Output: cmd.ErrOrStderr(),
			DryRun: opts.dryRun,
		},
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if opts.list {
		err = orch.ListDependencies(cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	if opts.clean {
		pkg.PrintTask("Cleaning")
		err = orch.Clean(ctx)
		if err == nil {
			err = orch.CleanProject(ctx)
		}
		if err != nil {
			printSteps(orch.Steps())
			return err
		}
	}

	if opts.buildAll || len(opts.buildDeps) > 0 {
		pkg.PrintTask("Building dependencies")
		if opts.buildAll {
			err = orch.BuildAll(ctx)
		} else {
			err = orch.BuildSelected(ctx, opts.buildDeps)
		}

		if err == nil {
			err = orch.ConfigureProject(ctx)
		}
		if err != nil {
			printSteps(orch.Steps())
			return err
		}
	}

	if opts.copyLibs != "" {
		pkg.PrintTask("Copying shared libraries")
		dest, err := filepath.Abs(opts.copyLibs)
		if err != nil {
			return eris.Wrapf(err, "failed to resolve %s", opts.copyLibs)
		}

		count, err := orch.CopySharedLibs(ctx, dest, !cfg.Log.JSON)
		if err != nil {
			return err
		}
		logger.Info().Msgf("Copied %d shared libraries", count)
	}

	printSteps(orch.Steps())
	return nil
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
