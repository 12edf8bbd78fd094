package terrainpatch

import (
	"context"
	"testing"

	"github.com/dotamods/terrain-patch/terrainpatch/storage"
	"github.com/dotamods/terrain-patch/terrainpatch/vpkutil"
)

func TestTerrainIndexLoader(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMockStorage()

	addArchive(t, st, "maps/dota.vpk", vpkutil.FileSet{
		"maps/dota.vmap_c": []byte("BASE"),
	})
	addArchive(t, st, "maps/winter.vpk", vpkutil.FileSet{
		"maps/winter.vmap_c": []byte("WINTER"),
		"maps/snow.vtex_c":   []byte("snow"),
	})
	addArchive(t, st, "maps/desert.vpk", vpkutil.FileSet{
		"maps/desert.vmap_c": []byte("DESERT"),
	})
	// Not an archive at all; the loader must skip it, not fail.
	st.WriteFile(ctx, "maps/broken.vpk", []byte("not a vpk"))
	st.WriteFile(ctx, "maps/readme.txt", []byte("not relevant"))

	index, err := NewTerrainIndexLoader(st, "maps").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(index.Terrains) != 2 {
		t.Fatalf("indexed %d terrains, want 2", len(index.Terrains))
	}
	if index.Terrains[0].Name != "desert.vpk" || index.Terrains[1].Name != "winter.vpk" {
		t.Fatalf("terrains not sorted by name: %s, %s", index.Terrains[0].Name, index.Terrains[1].Name)
	}

	winter := index.Find("winter.vpk")
	if winter == nil {
		t.Fatal("winter.vpk not found in index")
	}
	if winter.FileCount != 2 {
		t.Errorf("winter.vpk file count = %d, want 2", winter.FileCount)
	}
	if winter.Path != "maps/winter.vpk" {
		t.Errorf("winter.vpk path = %s", winter.Path)
	}

	if index.Find("dota.vpk") != nil {
		t.Error("stock base archive must not be indexed")
	}
	if index.Find("missing.vpk") != nil {
		t.Error("Find returned a terrain that does not exist")
	}
}

func TestTerrainIndexLoaderMissingDir(t *testing.T) {
	st := storage.NewDiskStorage()
	loader := NewTerrainIndexLoader(st, t.TempDir()+"/does-not-exist")
	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing maps directory")
	}
}
