package terrainpatch

import (
	"os"
	"path/filepath"

	"github.com/andygrunwald/vdf"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
	"github.com/dotamods/terrain-patch/terrainpatch/logger"
)

// dotaAppID is Dota 2's Steam application ID.
const dotaAppID = "570"

// LocateInstall finds the Dota 2 "game" directory by resolving the Steam
// installation and scanning its library folders for app 570.
func LocateInstall() (string, error) {
	steamDir, err := steamDir()
	if err != nil {
		return "", err
	}
	logger.Debug("steam directory: %s", steamDir)
	return dotaGameDir(steamDir)
}

// dotaGameDir parses steamapps/libraryfolders.vdf under the Steam directory
// and returns the game directory of the library that holds Dota 2.
func dotaGameDir(steamDir string) (string, error) {
	libraryFolders := filepath.Join(steamDir, "steamapps", "libraryfolders.vdf")
	f, err := os.Open(libraryFolders)
	if err != nil {
		return "", tperrors.ErrInstallNotFound.WithCause(err)
	}
	defer f.Close()

	parsed, err := vdf.NewParser(f).Parse()
	if err != nil {
		return "", tperrors.ErrInstallNotFound.
			WithDetail("path", libraryFolders).
			WithCause(err)
	}

	libraryPath, ok := findDotaLibrary(parsed)
	if !ok {
		return "", tperrors.ErrInstallNotFound.
			WithMessage("no Steam library contains Dota 2")
	}

	gameDir := filepath.Join(libraryPath, "steamapps", "common", "dota 2 beta", "game")
	if _, err := os.Stat(gameDir); err != nil {
		return "", tperrors.ErrInstallNotFound.
			WithDetail("path", gameDir).
			WithCause(err)
	}
	return gameDir, nil
}

// findDotaLibrary walks the parsed libraryfolders.vdf document looking for
// the library whose app list contains Dota 2.
func findDotaLibrary(parsed map[string]interface{}) (string, bool) {
	folders, ok := parsed["libraryfolders"].(map[string]interface{})
	if !ok {
		return "", false
	}

	for _, v := range folders {
		library, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		apps, ok := library["apps"].(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := apps[dotaAppID]; !ok {
			continue
		}
		if path, ok := library["path"].(string); ok {
			return path, true
		}
	}
	return "", false
}
