package buildsys

import "github.com/rotisserie/eris"

var (
	// ErrToolFailed is returned when CMake (or whatever tool was configured) exits with a non-zero status
	ErrToolFailed = eris.New("build tool failed")
	// ErrFilesystem is returned when a directory can't be checked, created or removed
	ErrFilesystem = eris.New("filesystem operation failed")
	// ErrUnknownDependency is returned when a requested dependency isn't part of the table
	ErrUnknownDependency = eris.New("unknown dependency")
)
