package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dotamods/terrain-patch/terrainpatch"
	"github.com/dotamods/terrain-patch/terrainpatch/logger"
	"github.com/dotamods/terrain-patch/terrainpatch/storage"
	"github.com/dotamods/terrain-patch/terrainpatch/vpkutil"
)

var (
	installDir string
	verbose    bool
	quiet      bool
	noProgress bool
	outputPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "terrainpatch",
		Short: "Patch Dota 2 custom terrain archives onto the stock terrain",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case quiet:
				logger.SetLogLevel(logger.LogLevelSilent)
			case verbose:
				logger.SetLogLevel(logger.LogLevelInfo)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&installDir, "install-dir", "", "Dota 2 game directory (default: auto-detect via Steam)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Disable all logging")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List custom terrain archives found in the maps directory",
		Args:  cobra.NoArgs,
		Run:   runList,
	}

	infoCmd := &cobra.Command{
		Use:   "info <ARCHIVE.vpk>",
		Short: "Show the header and file listing of a VPK archive",
		Args:  cobra.ExactArgs(1),
		Run:   runInfo,
	}

	patchCmd := &cobra.Command{
		Use:   "patch [TERRAIN.vpk]",
		Short: "Merge a custom terrain over the stock terrain and write the patched archive",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPatch,
	}
	patchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output archive path (default: dota_tempcontent/maps/dota.vpk)")
	patchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar (progress is enabled by default)")

	rootCmd.AddCommand(listCmd, infoCmd, patchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveInstallDir uses the --install-dir flag when given, otherwise
// locates the installation through Steam.
func resolveInstallDir() (string, error) {
	if installDir != "" {
		return installDir, nil
	}
	return terrainpatch.LocateInstall()
}

func runList(cmd *cobra.Command, args []string) {
	dir, err := resolveInstallDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loader := terrainpatch.NewTerrainIndexLoader(storage.NewDiskStorage(), terrainpatch.MapsDir(dir))
	index, err := loader.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(index.Terrains) == 0 {
		fmt.Println("No custom terrain archives found.")
		return
	}

	fmt.Printf("Terrain archives in %s:\n", terrainpatch.MapsDir(dir))
	for i, t := range index.Terrains {
		fmt.Printf("%d: %s (%d files, %d bytes)\n", i+1, t.Name, t.FileCount, t.Size)
	}
}

func runInfo(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	header, entries, err := vpkutil.ParseIndex(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s:\n", args[0])
	fmt.Printf("  version:       %d\n", header.Version)
	fmt.Printf("  tree length:   %d\n", header.TreeLength)
	fmt.Printf("  embed length:  %d\n", header.EmbedLength)
	fmt.Printf("  self hashes:   %d\n", header.SelfHashLength)
	fmt.Printf("  files:         %d\n", len(entries))
	for _, e := range entries {
		fmt.Printf("    %s (%d bytes, crc 0x%08X)\n", e.Path, e.Length, e.CRC32)
	}
}

func runPatch(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	dir, err := resolveInstallDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st := storage.NewDiskStorage()

	var terrainName string
	if len(args) > 0 {
		terrainName = args[0]
	} else {
		terrainName, err = selectTerrain(ctx, st, dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	basePath := terrainpatch.BaseArchivePath(dir)
	targetPath := terrainpatch.TerrainArchivePath(dir, terrainName)
	outPath := outputPath
	if outPath == "" {
		outPath = terrainpatch.OutputArchivePath(dir)
	}

	var progress vpkutil.ProgressCallback
	var bar *progressbar.ProgressBar
	if !noProgress {
		progress = func(current, total int64) {
			if bar == nil && total > 0 {
				bar = progressbar.DefaultBytes(total, fmt.Sprintf("Patching %s", terrainName))
			}
			if bar != nil {
				bar.Set64(current)
			}
		}
	}

	patcher := terrainpatch.NewPatcher(st)
	stats, err := patcher.Patch(ctx, basePath, targetPath, outPath, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}

	if bar != nil {
		fmt.Println()
	}
	fmt.Printf("Patched %s over %s: %d files merged (%d from base, %d from terrain)\n",
		terrainName, terrainpatch.BaseArchiveName,
		stats.MergedFiles, stats.MergedFiles-stats.OverrideFiles, stats.OverrideFiles)
	fmt.Printf("Wrote %s (%d bytes, %s)\n", outPath, stats.ArchiveBytes, stats.OutputDigest)
}

// selectTerrain prompts an interactive numbered choice from the terrain
// index when no terrain archive was named on the command line.
func selectTerrain(ctx context.Context, st storage.Storage, installDir string) (string, error) {
	loader := terrainpatch.NewTerrainIndexLoader(st, terrainpatch.MapsDir(installDir))
	index, err := loader.Load(ctx)
	if err != nil {
		return "", err
	}
	if len(index.Terrains) == 0 {
		return "", fmt.Errorf("no custom terrain archives found in %s", terrainpatch.MapsDir(installDir))
	}

	fmt.Println("Available terrains:")
	for i, t := range index.Terrains {
		fmt.Printf("%d: %s (%d files)\n", i+1, t.Name, t.FileCount)
	}
	fmt.Print("Select a terrain: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read selection: %w", err)
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(index.Terrains) {
		return "", fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	return index.Terrains[choice-1].Name, nil
}
