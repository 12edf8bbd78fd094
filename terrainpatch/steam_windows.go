//go:build windows

package terrainpatch

import (
	"golang.org/x/sys/windows/registry"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// steamDir reads the Steam installation path from the registry.
func steamDir() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return "", tperrors.ErrInstallNotFound.WithCause(err)
	}
	defer key.Close()

	path, _, err := key.GetStringValue("SteamPath")
	if err != nil {
		return "", tperrors.ErrInstallNotFound.WithCause(err)
	}
	return path, nil
}
