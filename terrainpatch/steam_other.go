//go:build !windows

package terrainpatch

import (
	"os"
	"path/filepath"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// steamDir probes the conventional Steam locations on non-Windows systems.
func steamDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", tperrors.ErrInstallNotFound.WithCause(err)
	}

	candidates := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, "Library", "Application Support", "Steam"),
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", tperrors.ErrInstallNotFound.WithMessage("no Steam directory found")
}
