package terrainpatch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotamods/terrain-patch/terrainpatch/logger"
	"github.com/dotamods/terrain-patch/terrainpatch/storage"
	"github.com/dotamods/terrain-patch/terrainpatch/vpkutil"
)

// TerrainInfo describes one candidate terrain archive in the maps directory.
type TerrainInfo struct {
	Name      string
	Path      string
	FileCount int
	Size      int64
}

// TerrainIndex lists the custom terrain archives available for patching.
type TerrainIndex struct {
	Terrains []*TerrainInfo
}

// Find returns the terrain with the given archive name, or nil.
func (idx *TerrainIndex) Find(name string) *TerrainInfo {
	for _, t := range idx.Terrains {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TerrainIndexLoader builds a TerrainIndex from a maps directory.
type TerrainIndexLoader interface {
	Load(ctx context.Context) (*TerrainIndex, error)
}

type terrainIndexLoader struct {
	storage storage.Storage
	mapsDir string
}

// NewTerrainIndexLoader constructs a loader scanning mapsDir through st.
func NewTerrainIndexLoader(st storage.Storage, mapsDir string) TerrainIndexLoader {
	return &terrainIndexLoader{storage: st, mapsDir: mapsDir}
}

// Load scans the maps directory for VPK archives and reads each one's index.
// The stock base archive and anything that fails to parse are skipped.
func (l *terrainIndexLoader) Load(ctx context.Context) (*TerrainIndex, error) {
	names, err := l.storage.ListDir(ctx, l.mapsDir)
	if err != nil {
		return nil, err
	}

	index := &TerrainIndex{}
	for _, name := range names {
		if !strings.HasSuffix(name, ".vpk") || name == BaseArchiveName {
			continue
		}

		path := filepath.Join(l.mapsDir, name)
		data, err := l.storage.ReadFile(ctx, path)
		if err != nil {
			logger.Warn("skipping %s: %v", name, err)
			continue
		}
		_, entries, err := vpkutil.ParseIndex(data)
		if err != nil {
			logger.Warn("skipping %s: %v", name, err)
			continue
		}

		index.Terrains = append(index.Terrains, &TerrainInfo{
			Name:      name,
			Path:      path,
			FileCount: len(entries),
			Size:      int64(len(data)),
		})
	}

	sort.Slice(index.Terrains, func(i, j int) bool {
		return index.Terrains[i].Name < index.Terrains[j].Name
	})
	return index, nil
}
