package buildsys

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lunix-engine/setup/pkg/deps"
)

type invocation struct {
	name string
	args []string
}

// fakeRunner records invocations and mimics the directories CMake creates: configure creates the build
// directory, "--build <dir> --target install" creates the sibling install directory.
type fakeRunner struct {
	root  string
	calls []invocation
	// exitCode returns the exit code for an invocation; nil means always succeed
	exitCode func(args []string) int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	f.calls = append(f.calls, invocation{name: name, args: args})

	if f.exitCode != nil {
		if code := f.exitCode(args); code != 0 {
			return code, eris.Wrapf(ErrToolFailed, "%s exited with status %d", name, code)
		}
	}

	var dir string
	switch {
	case len(args) >= 4 && args[0] == "-S":
		dir = args[3]
	case len(args) >= 2 && args[0] == "--build":
		dir = path.Join(path.Dir(args[1]), "install")
	}

	if dir != "" {
		if err := os.MkdirAll(filepath.Join(f.root, filepath.FromSlash(dir)), 0755); err != nil {
			return -1, err
		}
	}
	return 0, nil
}

func testCtx() context.Context {
	logger := zerolog.Nop()
	return WithLogger(context.Background(), &logger)
}

// newTestProject creates a project root with a source directory for every dependency in table
func newTestProject(t *testing.T, table deps.Table) string {
	t.Helper()

	root := t.TempDir()
	for _, spec := range table {
		if err := os.MkdirAll(filepath.Join(root, "deps", spec.Name()), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestOrchestrator(t *testing.T, table deps.Table, opts Options) (*Orchestrator, *fakeRunner) {
	t.Helper()

	if opts.Root == "" {
		opts.Root = newTestProject(t, table)
	}

	runner := &fakeRunner{root: opts.Root}
	opts.Runner = runner

	o, err := New(table, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o, runner
}

func mkdir(t *testing.T, root, rel string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0755); err != nil {
		t.Fatal(err)
	}
}

func exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return err == nil
}
