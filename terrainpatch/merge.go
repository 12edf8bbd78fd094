package terrainpatch

import (
	"path"
	"strings"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
	"github.com/dotamods/terrain-patch/terrainpatch/vpkutil"
)

const (
	// mapSuffix identifies the compiled map inside a terrain archive.
	mapSuffix = ".vmap_c"

	// canonicalMapName is the map file name the game engine loads.
	canonicalMapName = "dota" + mapSuffix
)

// MergeFileSets combines the base archive's files with the override
// terrain's files. The override's compiled map is renamed to the canonical
// name the engine expects, override entries always win, and base entries
// only fill the gaps. Neither input is modified.
func MergeFileSets(base, override vpkutil.FileSet) (vpkutil.FileSet, error) {
	mapPath := ""
	for p := range override {
		if strings.HasSuffix(p, mapSuffix) {
			mapPath = p
			break
		}
	}
	if mapPath == "" {
		return nil, tperrors.ErrNoMapFile.WithDetail("suffix", mapSuffix)
	}

	merged := make(vpkutil.FileSet, len(base)+len(override))
	for p, data := range override {
		merged[p] = data
	}

	renamed := canonicalMapName
	if dir := path.Dir(mapPath); dir != "." {
		renamed = dir + "/" + canonicalMapName
	}
	data := merged[mapPath]
	delete(merged, mapPath)
	merged[renamed] = data

	for p, data := range base {
		if _, ok := merged[p]; !ok {
			merged[p] = data
		}
	}
	return merged, nil
}
