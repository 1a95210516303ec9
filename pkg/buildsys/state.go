package buildsys

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/lunix-engine/setup/pkg/deps"
)

// State is the on-disk state of a dependency
type State int

const (
	Unbuilt State = iota
	Built
)

func (s State) String() string {
	if s == Built {
		return "built"
	}
	return "unbuilt"
}

// StateResolver decides whether a dependency has already been built
type StateResolver interface {
	IsBuilt(spec deps.Spec) (bool, error)
}

// FSResolver considers a dependency built as soon as either its build or its install directory exists.
// An interrupted configure step therefore counts as built; use clean to start over.
type FSResolver struct {
	Root     string
	DepsRoot string
}

var _ StateResolver = FSResolver{}

func dirExists(dir string) (bool, error) {
	_, err := os.Stat(dir)
	if err == nil {
		return true, nil
	}

	if eris.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, eris.Wrapf(ErrFilesystem, "failed to check %s: %s", dir, err)
}

// IsBuilt implements StateResolver
func (r FSResolver) IsBuilt(spec deps.Spec) (bool, error) {
	for _, dir := range []string{spec.BuildDir(r.DepsRoot), spec.InstallDir(r.DepsRoot)} {
		exists, err := dirExists(filepath.Join(r.Root, filepath.FromSlash(dir)))
		if err != nil || exists {
			return exists, err
		}
	}

	return false, nil
}

// Resolve maps IsBuilt to a State
func Resolve(r StateResolver, spec deps.Spec) (State, error) {
	built, err := r.IsBuilt(spec)
	if err != nil {
		return Unbuilt, err
	}

	if built {
		return Built, nil
	}
	return Unbuilt, nil
}
