package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/repoanalysis/engine/internal/dispatch"
	"github.com/repoanalysis/engine/pkg/config"
	"github.com/repoanalysis/engine/pkg/logger"
)

var (
	// Version will be set during build
	Version = "dev"
	// BuildDate will be set during build
	BuildDate = "unknown"
)

var (
	configFile string
	useCache   bool
	maxDepth   int
	forceFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analysis and caching engine for already-cloned repositories",
	Long: `analyze inspects a repository already present on local disk and
produces the structured analytical artifacts downstream tooling
consumes: directory inventory, framework and feature detection, AST-driven
symbol tables, pattern detections, dependency graphs, and per-file
teaching-value scores.

Examples:
  # Scan and fully analyze a local repository
  analyze /path/to/repo

  # Run one procedure at a time against an already-scanned codebase
  analyze scan /path/to/repo
  analyze frameworks <codebase-id>
  analyze dependencies <codebase-id>`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		runPipeline(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&useCache, "use-cache", true, "serve cached results when available")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "maximum scan depth (0 = configured default)")
	rootCmd.PersistentFlags().BoolVar(&forceFlag, "force", false, "bypass per-file cache and recompute")

	rootCmd.AddCommand(
		versionCmd,
		scanCmd,
		frameworksCmd,
		featuresCmd,
		fileCmd,
		codebaseCmd,
		patternsCmd,
		dependenciesCmd,
		resourceCmd,
		statsCmd,
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("analyze %s (built %s)\n", Version, BuildDate)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Run scan_codebase over a local repository path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		result, err := d.ScanCodebase(context.Background(), args[0], maxDepth, useCache)
		emit(result, err)
	},
}

var frameworksCmd = &cobra.Command{
	Use:   "frameworks <codebase-id>",
	Short: "Run detect_frameworks over a previously scanned codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		detections, fromCache, err := d.DetectFrameworks(context.Background(), args[0], 0.7, useCache)
		emit(map[string]any{"frameworks": detections, "from_cache": fromCache}, err)
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features <codebase-id>",
	Short: "Run discover_features over a previously scanned codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		found, fromCache, err := d.DiscoverFeatures(context.Background(), args[0], nil, useCache)
		emit(map[string]any{"features": found, "from_cache": fromCache}, err)
	},
}

var fileCmd = &cobra.Command{
	Use:   "file <file-path>",
	Short: "Run analyze_file over a single file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		analysis, err := d.AnalyzeFile(context.Background(), args[0], forceFlag)
		emit(analysis, err)
	},
}

var codebaseCmd = &cobra.Command{
	Use:   "codebase <codebase-id>",
	Short: "Run analyze_codebase over a previously scanned codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		analysis, err := d.AnalyzeCodebase(context.Background(), args[0], !forceFlag)
		emit(analysis, err)
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns <codebase-id>",
	Short: "Run detect_patterns over a previously scanned codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		patterns, err := d.DetectPatterns(context.Background(), args[0], useCache)
		emit(patterns, err)
	},
}

var dependenciesCmd = &cobra.Command{
	Use:   "dependencies <codebase-id>",
	Short: "Run analyze_dependencies over a previously scanned codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		deps, err := d.AnalyzeDependencies(context.Background(), args[0], useCache)
		emit(deps, err)
	},
}

var resourceCmd = &cobra.Command{
	Use:   "resource <name>",
	Short: "Run get_resource (structure, features) for the last scanned codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		blob, err := d.GetResource(context.Background(), args[0])
		if err != nil {
			fail(err)
		}
		os.Stdout.Write(blob)
		fmt.Println()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run get_cache_stats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d := mustDispatcher()
		defer d.Close()
		stats, err := d.GetCacheStats(context.Background())
		emit(stats, err)
	},
}

// runPipeline is the convenience, one-shot entry point: scan then
// analyze a codebase end to end, generalizing the teacher's implicit
// one-shot CLI flow into calls against the same cacheable procedures
// the multi-call RPC surface uses.
func runPipeline(path string) {
	d := mustDispatcher()
	defer d.Close()
	ctx := context.Background()

	scanResult, err := d.ScanCodebase(ctx, path, maxDepth, useCache)
	if err != nil {
		fail(err)
	}
	fmt.Printf("scanned %s: %d files, primary language %s\n",
		scanResult.CodebaseID, scanResult.Structure.TotalFiles, scanResult.Summary.PrimaryLanguage)

	analysis, err := d.AnalyzeCodebase(ctx, scanResult.CodebaseID, !forceFlag)
	if err != nil {
		fail(err)
	}
	emit(analysis, nil)
}

func mustDispatcher() *dispatch.Dispatcher {
	log := logger.New()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.FatalError(fmt.Sprintf("failed to load configuration: %v", err))
	}

	d, err := dispatch.New(cfg, logrus.NewEntry(log.Logger))
	if err != nil {
		log.FatalError(fmt.Sprintf("failed to construct analysis engine: %v", err))
	}
	return d
}

func emit(v any, err error) {
	if err != nil {
		fail(err)
	}
	blob, marshalErr := json.MarshalIndent(v, "", "  ")
	if marshalErr != nil {
		fail(marshalErr)
	}
	fmt.Println(string(blob))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
