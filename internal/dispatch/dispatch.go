// Package dispatch wires every analysis component (C1-C12) behind the
// named-procedure table spec.md §6 describes: a dispatcher that accepts a
// procedure name and a JSON-shaped argument map and returns a JSON-shaped
// result or a structured corerr.Error, independent of whatever transport
// a caller layers on top (here, the cmd/ CLI).
package dispatch

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/repoanalysis/engine/internal/analysis/ast"
	"github.com/repoanalysis/engine/internal/analysis/codebase"
	"github.com/repoanalysis/engine/internal/analysis/detectors"
	"github.com/repoanalysis/engine/internal/analysis/file"
	"github.com/repoanalysis/engine/internal/analysis/scoring"
	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/features"
	"github.com/repoanalysis/engine/internal/frameworks"
	"github.com/repoanalysis/engine/internal/ids"
	"github.com/repoanalysis/engine/internal/pathsafety"
	"github.com/repoanalysis/engine/internal/scanner"
	"github.com/repoanalysis/engine/pkg/config"
)

// Dispatcher holds every constructed component and exposes both typed Go
// methods and a generic Call(name, args) entry point for JSON-shaped
// invocation.
type Dispatcher struct {
	cache          *cache.Cache
	sanitizer      *pathsafety.Sanitizer
	scanner        *scanner.Scanner
	frameworks     *frameworks.Detector
	features       *features.Discoverer
	fileAn         *file.Analyzer
	codebaseAn     *codebase.Analyzer
	defaultMaxDepth int
	log            *logrus.Entry
}

// New constructs every component from cfg - pkg/config.Config is the
// engine's injected configuration record, per spec.md §6's "Environment
// inputs" list: every override key the core accepts. All components
// share one *cache.Cache - the cache is the only mutable shared
// structure, per spec.md §5.
func New(cfg *config.Config, log *logrus.Entry) (*Dispatcher, error) {
	c, err := cache.New(cache.Config{
		MaxMemoryBytes: cfg.Cache.MaxMemoryBytes,
		T2Path:         cfg.Cache.T2Path,
		T3URL:          cfg.Cache.T3URL,
	}, log)
	if err != nil {
		return nil, err
	}

	s := scanner.New(c, scanner.Config{
		IgnoreDirs:       cfg.Scan.IgnoreDirs,
		MaxFileSizeBytes: cfg.Scan.MaxFileSizeBytes,
		SoftBudgetMS:     cfg.Scan.SoftBudgetMS,
	}, log)

	parser := ast.NewParser()
	registry := detectors.NewRegistry()

	weights := scoring.Weights{
		Documentation: cfg.Scoring.DocumentationWeight,
		Complexity:    cfg.Scoring.ComplexityWeight,
		Pattern:       cfg.Scoring.PatternWeight,
		Structure:     cfg.Scoring.StructureWeight,
	}
	fa, err := file.NewWithWeights(c, parser, registry, os.ReadFile, weights, log)
	if err != nil {
		parser.Close()
		c.Close()
		return nil, err
	}

	ca := codebase.New(c, s, fa, cfg.Analysis.ParallelismPermits, log)

	return &Dispatcher{
		cache:           c,
		sanitizer:       pathsafety.New(cfg.Security.AllowedRoots),
		scanner:         s,
		frameworks:      frameworks.New(c, log),
		features:        features.New(c, log),
		fileAn:          fa,
		codebaseAn:      ca,
		defaultMaxDepth: cfg.Scan.MaxDepth,
		log:             log,
	}, nil
}

// Close releases the cache's tier resources. The AST parser intentionally
// has no Close call here: it is shared for the Dispatcher's lifetime and
// torn down with the process.
func (d *Dispatcher) Close() error {
	return d.cache.Close()
}

// ScanCodebase implements the scan_codebase procedure. maxDepth <= 0 falls
// back to the configured default scan depth.
func (d *Dispatcher) ScanCodebase(ctx context.Context, path string, maxDepth int, useCache bool) (*scanner.Result, error) {
	abs, err := d.sanitizer.Sanitize(path)
	if err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = d.defaultMaxDepth
	}
	return d.scanner.Scan(ctx, abs, maxDepth, useCache)
}

// DetectFrameworks implements the detect_frameworks procedure.
func (d *Dispatcher) DetectFrameworks(ctx context.Context, codebaseID string, confidenceThreshold float64, useCache bool) ([]frameworks.Detection, bool, error) {
	return d.frameworks.Detect(ctx, codebaseID, confidenceThreshold, useCache)
}

// DiscoverFeatures implements the discover_features procedure.
func (d *Dispatcher) DiscoverFeatures(ctx context.Context, codebaseID string, categories []string, useCache bool) ([]features.Feature, bool, error) {
	return d.features.Discover(ctx, codebaseID, categories, useCache)
}

// AnalyzeFile implements the analyze_file procedure. It is not tied to any
// codebase_id - spec.md §6's table takes only file_path and force - so
// the per-file cache entry is untagged and InvalidateCodebase will not
// sweep it; callers wanting codebase-scoped invalidation should go through
// AnalyzeCodebase instead.
func (d *Dispatcher) AnalyzeFile(ctx context.Context, filePath string, force bool) (*file.Analysis, error) {
	abs, err := d.sanitizer.Sanitize(filePath)
	if err != nil {
		return nil, err
	}
	return d.fileAn.AnalyzeFile(ctx, abs, "", force)
}

// ScoreTeachingValue implements score_teaching_value: analyze_file's
// pipeline already computes the TeachingValue score, so this procedure is
// a thin projection over AnalyzeFile's result.
func (d *Dispatcher) ScoreTeachingValue(ctx context.Context, filePath string, force bool) (scoring.Score, error) {
	analysis, err := d.AnalyzeFile(ctx, filePath, force)
	if err != nil {
		return scoring.Score{}, err
	}
	return analysis.TeachingValue, nil
}

// AnalyzeCodebase implements the analyze_codebase procedure.
func (d *Dispatcher) AnalyzeCodebase(ctx context.Context, codebaseID string, incremental bool) (*codebase.Analysis, error) {
	return d.codebaseAn.AnalyzeCodebase(ctx, codebaseID, incremental)
}

// DetectPatterns implements detect_patterns: the aggregated pattern list
// across every file in the codebase. It is a projection over
// AnalyzeCodebase rather than a separate walk, since C12 already computes
// every file's patterns on the way to global_patterns.
func (d *Dispatcher) DetectPatterns(ctx context.Context, codebaseID string, useCache bool) ([]detectors.DetectedPattern, error) {
	analysis, err := d.getOrAnalyzeCodebase(ctx, codebaseID, useCache)
	if err != nil {
		return nil, err
	}
	var all []detectors.DetectedPattern
	for _, fa := range analysis.FileAnalyses {
		all = append(all, fa.Patterns...)
	}
	return all, nil
}

// DependencyAnalysis is analyze_dependencies' result: the DependencyGraph
// plus the aggregate metrics spec.md's table describes as "+ metrics".
type DependencyAnalysis struct {
	Graph   codebase.DependencyGraph  `json:"dependency_graph"`
	Metrics codebase.AggregateMetrics `json:"aggregate_metrics"`
}

// AnalyzeDependencies implements analyze_dependencies.
func (d *Dispatcher) AnalyzeDependencies(ctx context.Context, codebaseID string, useCache bool) (*DependencyAnalysis, error) {
	analysis, err := d.getOrAnalyzeCodebase(ctx, codebaseID, useCache)
	if err != nil {
		return nil, err
	}
	return &DependencyAnalysis{Graph: analysis.DependencyGraph, Metrics: analysis.AggregateMetrics}, nil
}

// getOrAnalyzeCodebase serves a cached CodebaseAnalysis when useCache is
// true and one exists, else runs a full incremental analyze_codebase.
func (d *Dispatcher) getOrAnalyzeCodebase(ctx context.Context, codebaseID string, useCache bool) (*codebase.Analysis, error) {
	if useCache {
		if cached, ok, err := d.codebaseAn.LoadCached(ctx, codebaseID); err == nil && ok {
			return cached, nil
		}
	}
	return d.codebaseAn.AnalyzeCodebase(ctx, codebaseID, true)
}

// GetResource implements get_resource(structure) / get_resource(features).
func (d *Dispatcher) GetResource(ctx context.Context, name string) ([]byte, error) {
	blob, ok, err := d.cache.Get(ctx, cache.NamespaceResource, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, corerr.New(corerr.Precondition, corerr.ResourceNotAvailable(resourceProducer(name)))
	}
	return blob, nil
}

func resourceProducer(name string) string {
	switch name {
	case "features":
		return "discover_features"
	default:
		return "scan_codebase"
	}
}

// GetCacheStats implements get_cache_stats.
func (d *Dispatcher) GetCacheStats(_ context.Context) (cache.Stats, error) {
	return d.cache.Stats(), nil
}

// CodebaseID derives the stable id a caller can pass to every codebase_id
// argument, from the same sanitized absolute path scan_codebase uses.
func (d *Dispatcher) CodebaseID(path string) (string, error) {
	sanitized, err := d.sanitizer.SanitizeToPath(path)
	if err != nil {
		return "", err
	}
	return ids.CodebaseID(sanitized.Absolute), nil
}

// Call dispatches a named procedure with a JSON-shaped argument map, per
// spec.md §6's invocation protocol. It is the transport-agnostic entry
// point; cmd/ wraps it with a concrete CLI surface.
func (d *Dispatcher) Call(ctx context.Context, procedure string, args map[string]any) (any, error) {
	switch procedure {
	case "scan_codebase":
		return d.ScanCodebase(ctx, str(args, "path", ""), intArg(args, "max_depth", 0), boolArg(args, "use_cache", true))
	case "detect_frameworks":
		frameworks, fromCache, err := d.DetectFrameworks(ctx, str(args, "codebase_id", ""), floatArg(args, "confidence_threshold", 0.7), boolArg(args, "use_cache", true))
		if err != nil {
			return nil, err
		}
		return map[string]any{"frameworks": frameworks, "total_detected": len(frameworks), "from_cache": fromCache}, nil
	case "discover_features":
		found, fromCache, err := d.DiscoverFeatures(ctx, str(args, "codebase_id", ""), strSlice(args, "categories"), boolArg(args, "use_cache", true))
		if err != nil {
			return nil, err
		}
		return map[string]any{"features": found, "total_features": len(found), "from_cache": fromCache}, nil
	case "analyze_file":
		return d.AnalyzeFile(ctx, str(args, "file_path", ""), boolArg(args, "force", false))
	case "detect_patterns":
		return d.DetectPatterns(ctx, str(args, "codebase_id", ""), boolArg(args, "use_cache", true))
	case "analyze_dependencies":
		return d.AnalyzeDependencies(ctx, str(args, "codebase_id", ""), boolArg(args, "use_cache", true))
	case "score_teaching_value":
		return d.ScoreTeachingValue(ctx, str(args, "file_path", ""), boolArg(args, "force", false))
	case "analyze_codebase":
		return d.AnalyzeCodebase(ctx, str(args, "codebase_id", ""), boolArg(args, "incremental", true))
	case "get_resource":
		return d.GetResource(ctx, str(args, "name", ""))
	case "get_cache_stats":
		return d.GetCacheStats(ctx)
	default:
		return nil, corerr.New(corerr.BadInput, fmt.Sprintf("unknown procedure: %s", procedure))
	}
}

func str(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func floatArg(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func strSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
