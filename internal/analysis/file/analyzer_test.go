package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/analysis/ast"
	"github.com/repoanalysis/engine/internal/analysis/detectors"
	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	log := logrus.NewEntry(logrus.New())
	c, err := cache.New(cache.Config{MaxMemoryBytes: 1 << 20, T2Path: dbPath}, log)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newTestAnalyzer(t *testing.T, reader FileReader) *Analyzer {
	t.Helper()
	c := newTestCache(t)
	parser := ast.NewParser()
	t.Cleanup(parser.Close)
	registry := detectors.NewRegistry()
	log := logrus.NewEntry(logrus.New())
	return New(c, parser, registry, reader, log)
}

func TestAnalyzeFile_UnsupportedLanguageYieldsUnknownNotError(t *testing.T) {
	reader := func(string) ([]byte, error) { return []byte("whatever"), nil }
	a := newTestAnalyzer(t, reader)

	analysis, err := a.AnalyzeFile(context.Background(), "notes.txt", "", false)
	require.NoError(t, err)
	assert.Equal(t, "unknown", analysis.Language)
	assert.Empty(t, analysis.Symbols.Functions)
	assert.Empty(t, analysis.Patterns)
}

func TestAnalyzeFile_ReadFailureIsNotFound(t *testing.T) {
	reader := func(string) ([]byte, error) { return nil, os.ErrNotExist }
	a := newTestAnalyzer(t, reader)

	_, err := a.AnalyzeFile(context.Background(), "missing.go", "", false)
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.NotFound))
}

func TestAnalyzeFile_CachesAcrossCalls(t *testing.T) {
	source := []byte(`package sample

// Add sums two integers.
func Add(a, b int) int {
	return a + b
}
`)
	calls := 0
	reader := func(string) ([]byte, error) {
		calls++
		return source, nil
	}
	a := newTestAnalyzer(t, reader)
	ctx := context.Background()

	first, err := a.AnalyzeFile(ctx, "math.go", "cb1", false)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, "go", first.Language)
	require.Len(t, first.Symbols.Functions, 1)
	assert.Equal(t, "Add", first.Symbols.Functions[0].Name)

	second, err := a.AnalyzeFile(ctx, "math.go", "cb1", false)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestAnalyzeFile_ForceFlagBypassesCache(t *testing.T) {
	source := []byte("package sample\nfunc F() {}\n")
	reader := func(string) ([]byte, error) { return source, nil }
	a := newTestAnalyzer(t, reader)
	ctx := context.Background()

	_, err := a.AnalyzeFile(ctx, "f.go", "cb1", false)
	require.NoError(t, err)

	forced, err := a.AnalyzeFile(ctx, "f.go", "cb1", true)
	require.NoError(t, err)
	assert.False(t, forced.CacheHit)
}

func TestSummarizeComplexity_EmptyFileIsZeroValue(t *testing.T) {
	summary := summarizeComplexity(ast.SymbolInfo{})
	assert.Equal(t, ComplexitySummary{}, summary)
}

func TestAnalyzeFile_ComplexitySummaryCarriesHealthScoreAndRiskLevel(t *testing.T) {
	source := []byte(`package sample

// Add sums two integers.
func Add(a, b int) int {
	return a + b
}
`)
	reader := func(string) ([]byte, error) { return source, nil }
	a := newTestAnalyzer(t, reader)

	analysis, err := a.AnalyzeFile(context.Background(), "math.go", "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.ComplexitySummary.FunctionCount)
	assert.Equal(t, 95.0, analysis.ComplexitySummary.HealthScore, "cyclomatic 1 gives 100 - 1*5")
	assert.NotEmpty(t, analysis.ComplexitySummary.RiskLevel)
}

func TestFileCacheKey_TagsWithCodebaseID(t *testing.T) {
	assert.Equal(t, "abc", fileCacheKey("abc", ""))
	assert.Equal(t, "abc:cb1", fileCacheKey("abc", "cb1"))
}
