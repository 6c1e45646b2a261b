// Package codebase implements the codebase analyzer (C12): it aggregates
// C11's per-file analyses across an entire scanned codebase into a single
// DependencyGraph and a set of codebase-wide rollups, per spec.md §4.11.
package codebase

import (
	"context"
	"encoding/json"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/repoanalysis/engine/internal/analysis/file"
	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/scanner"
)

// processStart anchors analyzed_at_monotonic_ms the same way C11 does.
var processStart = time.Now()

// AggregateMetrics rolls up per-file figures across the whole codebase.
type AggregateMetrics struct {
	TotalFiles           int     `json:"total_files"`
	TotalFunctions       int     `json:"total_functions"`
	TotalClasses         int     `json:"total_classes"`
	AverageTeachingValue float64 `json:"average_teaching_value"`
	AverageCoverage      float64 `json:"average_documentation_coverage"`
}

// Analysis is spec.md's CodebaseAnalysis.
type Analysis struct {
	CodebaseID            string                   `json:"codebase_id"`
	FileAnalyses          map[string]*file.Analysis `json:"file_analyses"`
	DependencyGraph       DependencyGraph          `json:"dependency_graph"`
	GlobalPatterns        map[string]int           `json:"global_patterns"`
	AggregateMetrics      AggregateMetrics         `json:"aggregate_metrics"`
	AnalyzedAtMonotonicMs int64                    `json:"analyzed_at_monotonic_ms"`
}

// Analyzer orchestrates analyze_codebase: enumerate -> fan out analyze_file
// -> aggregate into a DependencyGraph and codebase-wide rollups.
type Analyzer struct {
	cache       *cache.Cache
	scanner     *scanner.Scanner
	fileAnalyzer *file.Analyzer
	parallelism int
	log         *logrus.Entry
}

// New constructs an Analyzer. parallelism <= 0 falls back to
// min(CPU count x 2, 16), spec.md §4.11 step 4's default.
func New(c *cache.Cache, s *scanner.Scanner, fa *file.Analyzer, parallelism int, log *logrus.Entry) *Analyzer {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU() * 2
		if parallelism > 16 {
			parallelism = 16
		}
		if parallelism < 1 {
			parallelism = 1
		}
	}
	return &Analyzer{cache: c, scanner: s, fileAnalyzer: fa, parallelism: parallelism, log: log}
}

// AnalyzeCodebase implements spec.md §4.11's analyze_codebase procedure.
//
// incrementalFlag controls whether cached per-file results are reused
// (passed through to analyze_file's own force_flag, inverted): true means
// unchanged files are adopted from cache without recomputation; false
// forces every file to be recomputed regardless of what is cached.
//
// Cancellation is cooperative: ctx is checked between file completions,
// and a cancelled context surfaces as a corerr.Cancelled error. Files
// already analyzed before cancellation remain in C11's own cache (each
// analyze_file call persists independently), so no work is lost even
// though the aggregate CodebaseAnalysis itself is not cached in that case.
func (a *Analyzer) AnalyzeCodebase(ctx context.Context, codebaseID string, incrementalFlag bool) (*Analysis, error) {
	absPath, err := a.scanRoot(ctx, codebaseID)
	if err != nil {
		return nil, err
	}

	files, err := a.scanner.EnumerateFiles(absPath, 0)
	if err != nil {
		return nil, err
	}

	analyses, err := a.analyzeAll(ctx, files, codebaseID, incrementalFlag)
	if err != nil {
		return nil, err
	}

	result := &Analysis{
		CodebaseID:            codebaseID,
		FileAnalyses:          analyses,
		DependencyGraph:       buildGraph(analyses),
		GlobalPatterns:        aggregatePatterns(analyses),
		AggregateMetrics:      aggregateMetrics(analyses),
		AnalyzedAtMonotonicMs: monotonicMs(),
	}

	if err := a.persist(ctx, codebaseID, result); err != nil {
		a.log.WithError(err).Warn("failed to persist codebase analysis to cache")
	}

	return result, nil
}

// analyzeAll runs analyze_file over every candidate path with a bounded
// worker count, per spec.md §4.11 steps 3-4. forceFlag is the inverse of
// incrementalFlag: analyze_file itself already performs the
// adopt-from-cache-or-recompute check against the content-hash cache key,
// so that single call covers both step 3 (adopt) and step 4 (schedule).
func (a *Analyzer) analyzeAll(ctx context.Context, files []string, codebaseID string, incrementalFlag bool) (map[string]*file.Analysis, error) {
	forceFlag := !incrementalFlag

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.parallelism)

	results := make(map[string]*file.Analysis, len(files))
	var mu sync.Mutex

	for _, path := range files {
		path := path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			analysis, err := a.fileAnalyzer.AnalyzeFile(groupCtx, path, codebaseID, forceFlag)
			if err != nil {
				return err
			}
			mu.Lock()
			results[path] = analysis
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, corerr.Wrap(corerr.Cancelled, "codebase analysis cancelled with partial progress", err)
		}
		return nil, err
	}

	return results, nil
}

func aggregatePatterns(analyses map[string]*file.Analysis) map[string]int {
	totals := map[string]int{}
	for _, analysis := range analyses {
		for _, pattern := range analysis.Patterns {
			totals[pattern.PatternType]++
		}
	}
	return totals
}

func aggregateMetrics(analyses map[string]*file.Analysis) AggregateMetrics {
	metrics := AggregateMetrics{TotalFiles: len(analyses)}
	if len(analyses) == 0 {
		return metrics
	}

	var teachingValueSum, coverageSum float64
	for _, analysis := range analyses {
		metrics.TotalFunctions += len(analysis.Symbols.Functions)
		metrics.TotalClasses += len(analysis.Symbols.Classes)
		teachingValueSum += analysis.TeachingValue.Total
		coverageSum += analysis.DocumentationCoverage.CoveragePercentage
	}
	metrics.AverageTeachingValue = teachingValueSum / float64(len(analyses))
	metrics.AverageCoverage = coverageSum / float64(len(analyses))
	return metrics
}

func monotonicMs() int64 {
	return time.Since(processStart).Milliseconds()
}

// LoadCached returns the last persisted CodebaseAnalysis for codebaseID,
// if any, without running analyze_codebase. Used by callers (detect_patterns,
// analyze_dependencies) that accept their own use_cache flag rather than
// always recomputing.
func (a *Analyzer) LoadCached(ctx context.Context, codebaseID string) (*Analysis, bool, error) {
	blob, ok, err := a.cache.Get(ctx, cache.NamespaceAnalysis, codebaseID)
	if err != nil || !ok {
		return nil, false, err
	}
	var result Analysis
	if err := json.Unmarshal(blob, &result); err != nil {
		return nil, false, nil
	}
	return &result, true, nil
}

func (a *Analyzer) scanRoot(ctx context.Context, codebaseID string) (string, error) {
	blob, ok, err := a.cache.Get(ctx, cache.NamespaceScan, codebaseID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", corerr.New(corerr.Precondition, corerr.MsgCodebaseNotScanned)
	}
	var result scanner.Result
	if err := json.Unmarshal(blob, &result); err != nil {
		return "", corerr.Wrap(corerr.CacheError, "cached scan result could not be decoded", err)
	}
	return result.AbsolutePath, nil
}

func (a *Analyzer) persist(ctx context.Context, codebaseID string, result *Analysis) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return a.cache.Set(ctx, cache.NamespaceAnalysis, codebaseID, blob, time.Hour)
}
