// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
)

// LocalConfig is the project-local config file, relative to the working directory.
const LocalConfig = ".hlspan/config.yaml"

// UserConfig returns ~/.config/hlspan/config.yaml for the current user.
func UserConfig() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hlspan", "config.yaml"), nil
}

// ResolveConfig picks the config file to load.
//
// Lookup order:
//   - explicit, when non-empty (returned even if it does not exist)
//   - <dir>/.hlspan/config.yaml
//   - ~/.config/hlspan/config.yaml
//
// found is false when no candidate exists; the returned path is then the
// user config location so callers can report where one would be read from.
func ResolveConfig(explicit, dir string) (path string, found bool) {
	if explicit != "" {
		return explicit, true
	}

	local := filepath.Join(dir, LocalConfig)
	if isFile(local) {
		return local, true
	}

	user, err := UserConfig()
	if err != nil {
		return "", false
	}
	return user, isFile(user)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
