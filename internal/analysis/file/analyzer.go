// Package file implements the per-file analyzer (C11): it orchestrates
// C6 (parsing) through C10 (teaching-value scoring) for a single file,
// keyed by the file's content digest so unchanged files never re-run the
// pipeline.
package file

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/repoanalysis/engine/internal/analysis/ast"
	"github.com/repoanalysis/engine/internal/analysis/detectors"
	"github.com/repoanalysis/engine/internal/analysis/metrics"
	"github.com/repoanalysis/engine/internal/analysis/scoring"
	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/ids"
	"github.com/repoanalysis/engine/pkg/utils"
)

// processStart anchors analyzed_at_monotonic_ms to a monotonic reference
// point (process start) rather than wall-clock time, which can jump
// backwards under clock adjustments.
var processStart = time.Now()

// ComplexitySummary is the file-level complexity rollup carried on
// FileAnalysis, derived from the per-function ComplexityMetrics C7
// computed during extraction. HealthScore/RiskLevel/Recommendations are
// the teacher's executive-summary enrichment, folded in from a
// single-file run of metrics.ComplexityAnalyzer - additive beyond the
// three core fields, never required by a consumer that only reads
// AverageCyclomatic/MaxCyclomatic/FunctionCount.
type ComplexitySummary struct {
	AverageCyclomatic float64                             `json:"average_cyclomatic"`
	MaxCyclomatic     int                                 `json:"max_cyclomatic"`
	FunctionCount     int                                 `json:"function_count"`
	HealthScore       float64                             `json:"health_score"`
	RiskLevel         string                               `json:"risk_level"`
	Recommendations   []metrics.ComplexityRecommendation  `json:"recommendations,omitempty"`
}

// DocumentationCoverage is the file-level coverage rollup carried on
// FileAnalysis, mirroring metrics.CoverageReport without the file path
// (implicit from the enclosing FileAnalysis).
type DocumentationCoverage struct {
	DocumentedCount       int      `json:"documented_count"`
	TotalCount            int      `json:"total_count"`
	CoveragePercentage    float64  `json:"coverage_percentage"`
	UndocumentedFunctions []string `json:"undocumented_functions"`
	UndocumentedClasses   []string `json:"undocumented_classes"`
}

// Analysis is spec.md's FileAnalysis.
type Analysis struct {
	FilePath              string                `json:"file_path"`
	ContentHash           string                `json:"content_hash"`
	Language              string                `json:"language"`
	Symbols               ast.SymbolInfo        `json:"symbols"`
	ComplexitySummary     ComplexitySummary     `json:"complexity_summary"`
	DocumentationCoverage DocumentationCoverage `json:"documentation_coverage"`
	Patterns              []detectors.DetectedPattern `json:"patterns"`
	TeachingValue         scoring.Score         `json:"teaching_value"`
	AnalyzedAtMonotonicMs int64                 `json:"analyzed_at_monotonic_ms"`
	CacheHit              bool                  `json:"cache_hit_flag"`
}

// FileReader abstracts the filesystem read so analyze_file can propagate
// NotFound/Permission without internal/file owning path validation itself.
type FileReader func(path string) ([]byte, error)

// Analyzer orchestrates C6 through C10 for one file at a time.
type Analyzer struct {
	cache      *cache.Cache
	parser     *ast.Parser
	registry   *detectors.Registry
	complexity *metrics.ComplexityAnalyzer
	coverage   *metrics.CoverageAnalyzer
	scorer     *scoring.Scorer
	read       FileReader
	log        *logrus.Entry
}

// New constructs an Analyzer with default teaching-value weights. parser
// and registry are shared across concurrent callers: parser serializes
// per-language access internally, registry's built-in detectors are
// stateless.
func New(c *cache.Cache, parser *ast.Parser, registry *detectors.Registry, read FileReader, log *logrus.Entry) *Analyzer {
	return &Analyzer{
		cache:      c,
		parser:     parser,
		registry:   registry,
		complexity: metrics.NewComplexityAnalyzer(),
		coverage:   metrics.NewCoverageAnalyzer(),
		scorer:     scoring.NewScorer(),
		read:       read,
		log:        log,
	}
}

// NewWithWeights is New, but with caller-supplied teaching-value weights -
// the "teaching-value weights" override key named in spec.md §6's
// environment-inputs list. Returns a Configuration error if the weights
// don't sum to 1.0.
func NewWithWeights(c *cache.Cache, parser *ast.Parser, registry *detectors.Registry, read FileReader, weights scoring.Weights, log *logrus.Entry) (*Analyzer, error) {
	scorer, err := scoring.NewScorerWithWeights(weights)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cache:      c,
		parser:     parser,
		registry:   registry,
		complexity: metrics.NewComplexityAnalyzer(),
		coverage:   metrics.NewCoverageAnalyzer(),
		scorer:     scorer,
		read:       read,
		log:        log,
	}, nil
}

// AnalyzeFile implements spec.md §4.10's analyze_file procedure.
// codebaseID may be empty when the file is analyzed outside any known
// codebase; when non-empty it tags the cache entry so InvalidateCodebase
// sweeps it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, absPath, codebaseID string, forceFlag bool) (*Analysis, error) {
	content, err := a.read(absPath)
	if err != nil {
		return nil, classifyReadError(absPath, err)
	}

	contentHash := ids.ContentHash(content)
	cacheKey := fileCacheKey(contentHash, codebaseID)

	if !forceFlag {
		if cached, ok, err := a.loadCached(ctx, cacheKey); err == nil && ok {
			cached.CacheHit = true
			return cached, nil
		}
	}

	analysis := a.analyze(ctx, absPath, contentHash, content)
	analysis.CacheHit = false

	if err := a.persist(ctx, cacheKey, analysis); err != nil {
		a.log.WithError(err).Warn("failed to persist file analysis to cache")
	}

	return analysis, nil
}

func (a *Analyzer) analyze(ctx context.Context, absPath, contentHash string, content []byte) *Analysis {
	language, supported := ast.LanguageForPath(absPath)
	if !supported {
		return &Analysis{
			FilePath:              absPath,
			ContentHash:           contentHash,
			Language:              "unknown",
			Symbols:               ast.SymbolInfo{},
			Patterns:              []detectors.DetectedPattern{},
			AnalyzedAtMonotonicMs: monotonicMs(),
		}
	}

	parseResult, err := a.parser.ParseFile(ctx, absPath, content, language)
	if err != nil {
		return &Analysis{
			FilePath:              absPath,
			ContentHash:           contentHash,
			Language:              language,
			Symbols:               ast.SymbolInfo{},
			Patterns:              []detectors.DetectedPattern{},
			TeachingValue:         scoring.Score{Explanation: "Parsing failed: " + err.Error()},
			AnalyzedAtMonotonicMs: monotonicMs(),
		}
	}
	defer parseResult.Close()

	symbols := ast.Extract(parseResult)

	patterns, err := a.registry.DetectAll(absPath, language, content, symbols)
	if err != nil {
		patterns = []detectors.DetectedPattern{}
	}

	complexitySummary := summarizeComplexity(symbols)
	complexitySummary = a.enrichComplexity(absPath, symbols, complexitySummary)
	coverageReport := a.coverage.AnalyzeCoverage(absPath, symbols, moduleDocstring(symbols))

	teachingValue, scoreErr := a.scorer.Score(coverageReport.CoveragePercentage, complexitySummary.AverageCyclomatic, patterns, symbols)
	if scoreErr != nil {
		teachingValue = scoring.Score{Explanation: "Teaching value scoring unavailable: " + scoreErr.Error()}
	}

	analysis := &Analysis{
		FilePath:          absPath,
		ContentHash:       contentHash,
		Language:          language,
		Symbols:           symbols,
		ComplexitySummary: complexitySummary,
		DocumentationCoverage: DocumentationCoverage{
			DocumentedCount:       coverageReport.DocumentedCount,
			TotalCount:            coverageReport.TotalCount,
			CoveragePercentage:    coverageReport.CoveragePercentage,
			UndocumentedFunctions: coverageReport.UndocumentedFunctions,
			UndocumentedClasses:   coverageReport.UndocumentedClasses,
		},
		Patterns:              patterns,
		TeachingValue:         teachingValue,
		AnalyzedAtMonotonicMs: monotonicMs(),
	}

	if parseResult.HasErrors() {
		analysis.TeachingValue.Explanation = "Partial analysis: source had parse errors. " + analysis.TeachingValue.Explanation
	}

	return analysis
}

// moduleDocstring reports whether the file itself carries a leading
// doc comment. The current extractors do not track this separately from
// function/class docstrings, so a file is considered documented at the
// module level only when it declares at least one documented top-level
// symbol - conservative, but never silently inflates coverage.
func moduleDocstring(symbols ast.SymbolInfo) string {
	for _, fn := range symbols.Functions {
		if fn.Docstring != "" {
			return fn.Docstring
		}
	}
	for _, cls := range symbols.Classes {
		if cls.Docstring != "" {
			return cls.Docstring
		}
	}
	return ""
}

// enrichComplexity folds the teacher's executive-summary fields
// (health score, risk level, top-function recommendations) onto the
// base ComplexitySummary by running metrics.ComplexityAnalyzer over
// this single file. A file with no functions or classes produces an
// empty FunctionMetrics set, which AnalyzeComplexity handles without an
// error: HealthScore stays 0 and RiskLevel comes out "low".
func (a *Analyzer) enrichComplexity(absPath string, symbols ast.SymbolInfo, summary ComplexitySummary) ComplexitySummary {
	report, err := a.complexity.AnalyzeComplexity([]metrics.FileSymbols{{FilePath: absPath, Symbols: symbols}})
	if err != nil {
		return summary
	}
	summary.HealthScore = report.Summary.HealthScore
	summary.RiskLevel = report.Summary.RiskLevel
	summary.Recommendations = report.Recommendations
	return summary
}

func summarizeComplexity(symbols ast.SymbolInfo) ComplexitySummary {
	var total, count, max int
	var visit func(fns []ast.FunctionInfo)
	visit = func(fns []ast.FunctionInfo) {
		for _, fn := range fns {
			total += fn.Complexity.Cyclomatic
			count++
			if fn.Complexity.Cyclomatic > max {
				max = fn.Complexity.Cyclomatic
			}
		}
	}
	visit(symbols.Functions)
	for _, cls := range symbols.Classes {
		visit(cls.Methods)
	}

	if count == 0 {
		return ComplexitySummary{}
	}
	return ComplexitySummary{
		AverageCyclomatic: float64(total) / float64(count),
		MaxCyclomatic:     max,
		FunctionCount:     count,
	}
}

func monotonicMs() int64 {
	return time.Since(processStart).Milliseconds()
}

func fileCacheKey(contentHash, codebaseID string) string {
	if codebaseID == "" {
		return contentHash
	}
	return contentHash + ":" + codebaseID
}

func (a *Analyzer) loadCached(ctx context.Context, key string) (*Analysis, bool, error) {
	blob, ok, err := a.cache.Get(ctx, cache.NamespaceFile, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var analysis Analysis
	if err := json.Unmarshal(blob, &analysis); err != nil {
		return nil, false, nil
	}
	return &analysis, true, nil
}

func (a *Analyzer) persist(ctx context.Context, key string, analysis *Analysis) error {
	blob, err := json.Marshal(analysis)
	if err != nil {
		return utils.FormatError("marshal file analysis", err)
	}
	return a.cache.Set(ctx, cache.NamespaceFile, key, blob, time.Hour)
}

func classifyReadError(path string, err error) error {
	if corerr.KindOf(err) != "" {
		return err
	}
	if os.IsNotExist(err) {
		return corerr.Wrap(corerr.NotFound, "file not found: "+path, err)
	}
	if os.IsPermission(err) {
		return corerr.Wrap(corerr.Permission, "permission denied: "+path, err)
	}
	return corerr.Wrap(corerr.NotFound, "failed to read file: "+path, err)
}
