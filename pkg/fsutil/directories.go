// Package fsutil holds the file system helpers shared by the repodeps
// commands: application directories, permission defaults and atomic writes.
package fsutil

import (
	"os"
	"path/filepath"
)

// EnsureDir creates path and any missing parents with DirModeDefault.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of filePath.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}
