package terrainpatch

import "path/filepath"

// BaseArchiveName is the stock terrain archive shipped with the game.
const BaseArchiveName = "dota.vpk"

// MapsDir returns the directory holding the game's map archives.
func MapsDir(installDir string) string {
	return filepath.Join(installDir, "dota", "maps")
}

// BaseArchivePath returns the path of the stock terrain archive.
func BaseArchivePath(installDir string) string {
	return filepath.Join(MapsDir(installDir), BaseArchiveName)
}

// TerrainArchivePath returns the path of a custom terrain archive by name.
func TerrainArchivePath(installDir, name string) string {
	return filepath.Join(MapsDir(installDir), name)
}

// OutputArchivePath returns where the patched archive must be written for
// the game to pick it up.
func OutputArchivePath(installDir string) string {
	return filepath.Join(installDir, "dota_tempcontent", "maps", BaseArchiveName)
}
