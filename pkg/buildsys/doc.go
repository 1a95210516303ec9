// Package buildsys builds the native dependencies described by a deps.Table with CMake and configures
// the project against the resulting install prefixes.
// Dependencies are processed one at a time in table order. Whether a dependency has already been built is
// derived from the presence of its build and install directories.
package buildsys
