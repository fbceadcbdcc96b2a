package fsutil

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used below the user's base directories.
const AppName = "repodeps"

// DatabaseFile is the file name of the default relation database.
const DatabaseFile = "repodeps.db"

// ConfigDir returns the application's configuration directory.
// On Linux: $XDG_CONFIG_HOME/repodeps or ~/.config/repodeps
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// DataDir returns the application's data directory. XDG_DATA_HOME wins when
// set; otherwise ~/.local/share is used.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// DefaultDatabasePath returns where the relation database lives when the
// configuration does not name one.
func DefaultDatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFile), nil
}
