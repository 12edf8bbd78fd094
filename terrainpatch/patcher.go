package terrainpatch

import (
	"context"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/dotamods/terrain-patch/terrainpatch/logger"
	"github.com/dotamods/terrain-patch/terrainpatch/storage"
	"github.com/dotamods/terrain-patch/terrainpatch/vpkutil"
)

// PatchStats describes the outcome of one patch operation.
type PatchStats struct {
	BaseFiles     int
	OverrideFiles int
	MergedFiles   int
	ArchiveBytes  int64
	// OutputDigest is the sha256 of the produced archive.
	OutputDigest digest.Digest
}

// Patcher runs the whole terrain patch pipeline: load both archives,
// merge them, rebuild the archive and write it out.
type Patcher interface {
	Patch(ctx context.Context, basePath, overridePath, outputPath string, progress vpkutil.ProgressCallback) (*PatchStats, error)
}

type patcher struct {
	storage storage.Storage
}

// NewPatcher constructs a Patcher backed by the given storage.
func NewPatcher(st storage.Storage) Patcher {
	return &patcher{storage: st}
}

func (p *patcher) Patch(ctx context.Context, basePath, overridePath, outputPath string, progress vpkutil.ProgressCallback) (*PatchStats, error) {
	baseSet, overrideSet, err := p.loadFileSets(ctx, basePath, overridePath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded base archive %s (%d files) and override archive %s (%d files)",
		basePath, len(baseSet), overridePath, len(overrideSet))

	merged, err := MergeFileSets(baseSet, overrideSet)
	if err != nil {
		return nil, err
	}
	logger.Debug("merged file set has %d files", len(merged))

	out, err := vpkutil.Build(merged, progress)
	if err != nil {
		return nil, err
	}

	if err := p.storage.WriteFile(ctx, outputPath, out); err != nil {
		return nil, err
	}

	dgst := digest.FromBytes(out)
	logger.Info("wrote %s (%d bytes, %s)", outputPath, len(out), dgst)

	return &PatchStats{
		BaseFiles:     len(baseSet),
		OverrideFiles: len(overrideSet),
		MergedFiles:   len(merged),
		ArchiveBytes:  int64(len(out)),
		OutputDigest:  dgst,
	}, nil
}

// loadFileSets reads and parses the base and override archives concurrently.
// Each task owns its buffer and file set outright; the only cross-task
// transfer is the completed value at the join. If either side fails, the
// whole load fails.
func (p *patcher) loadFileSets(ctx context.Context, basePath, overridePath string) (vpkutil.FileSet, vpkutil.FileSet, error) {
	var baseSet, overrideSet vpkutil.FileSet

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		baseSet, err = p.loadFileSet(ctx, basePath)
		return err
	})
	g.Go(func() error {
		var err error
		overrideSet, err = p.loadFileSet(ctx, overridePath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return baseSet, overrideSet, nil
}

func (p *patcher) loadFileSet(ctx context.Context, path string) (vpkutil.FileSet, error) {
	data, err := p.storage.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return vpkutil.Parse(data)
}
