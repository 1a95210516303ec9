package buildsys

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
)

// SharedLibExt is the file extension of dynamic libraries on the current platform
var SharedLibExt = sharedLibExt(runtime.GOOS)

func sharedLibExt(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// isSharedLib matches libfoo.so as well as versioned names like libfoo.so.3.4
func isSharedLib(name, ext string) bool {
	if strings.HasSuffix(name, ext) {
		return true
	}
	return ext == ".so" && strings.Contains(name, ".so.")
}

// libDirs lists the install subdirectories that may contain dynamic libraries. Windows installs DLLs
// next to the executables.
func libDirs(goos string) []string {
	if goos == "windows" {
		return []string{"bin"}
	}
	return []string{"bin", "lib"}
}

func getProgressBar(out io.Writer, length int, desc string, visible bool) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		visible = false
	}

	return progressbar.NewOptions(length,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionOnCompletion(func() {
			if visible {
				io.WriteString(out, "\n")
			}
		}),
	)
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	if err != nil {
		return err
	}
	return out.Close()
}

// sharedLibs returns every dynamic library installed by shared dependencies. All of them end up in the same
// directory, so only the first file with a given name is returned.
func (o *Orchestrator) sharedLibs(ctx context.Context) ([]string, error) {
	result := []string{}
	seen := make(map[string]string)
	for _, spec := range o.table {
		if !spec.IsShared() {
			continue
		}

		for _, sub := range libDirs(runtime.GOOS) {
			dir := filepath.Join(o.path(spec.InstallDir(o.opts.DepsRoot)), sub)
			entries, err := os.ReadDir(dir)
			if err != nil {
				if eris.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, eris.Wrapf(ErrFilesystem, "failed to read %s: %s", dir, err)
			}

			for _, entry := range entries {
				if entry.IsDir() || !isSharedLib(entry.Name(), SharedLibExt) {
					continue
				}

				file := filepath.Join(dir, entry.Name())
				if first, ok := seen[entry.Name()]; ok {
					log(ctx).Warn().Str("dep", spec.Name()).Str("path", file).Msgf("Skipping %s, %s has the same name", file, first)
					continue
				}
				seen[entry.Name()] = file
				result = append(result, file)
			}
		}
	}

	return result, nil
}

// CopySharedLibs copies the dynamic libraries of every shared dependency into dest and returns how many
// files were copied. Dependencies with static or default linkage are ignored.
func (o *Orchestrator) CopySharedLibs(ctx context.Context, dest string, showProgress bool) (int, error) {
	log(ctx).Info().Msgf("Copying shared libraries to '%s'", dest)

	files, err := o.sharedLibs(ctx)
	if err != nil {
		return 0, err
	}

	err = os.MkdirAll(dest, 0770)
	if err != nil {
		return 0, eris.Wrapf(ErrFilesystem, "failed to create %s: %s", dest, err)
	}

	if len(files) == 0 {
		log(ctx).Info().Msg("No shared libraries found")
		return 0, nil
	}

	bar := getProgressBar(o.opts.Output, len(files), "copying", showProgress)
	for idx, file := range files {
		log(ctx).Debug().Str("path", file).Msgf("Copying '%s'", file)

		target := filepath.Join(dest, filepath.Base(file))
		err = copyFile(file, target)
		if err != nil {
			return idx, eris.Wrapf(ErrFilesystem, "failed to copy %s to %s: %s", file, target, err)
		}
		bar.Add(1)
	}
	bar.Finish()

	return len(files), nil
}
