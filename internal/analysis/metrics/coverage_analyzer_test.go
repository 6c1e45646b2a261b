package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

func TestNewCoverageAnalyzer(t *testing.T) {
	assert.NotNil(t, NewCoverageAnalyzer())
}

func TestAnalyzeCoverage_AllDocumented(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	symbols := ast.SymbolInfo{
		Functions: []ast.FunctionInfo{{Name: "Do", Docstring: "Does a thing."}},
		Classes:   []ast.ClassInfo{{Name: "Widget", Docstring: "A widget."}},
	}

	report := analyzer.AnalyzeCoverage("a.go", symbols, "Package a does things.")
	require.Equal(t, 3, report.TotalCount)
	assert.Equal(t, 3, report.DocumentedCount)
	assert.Equal(t, 100.0, report.CoveragePercentage)
	assert.Empty(t, report.UndocumentedFunctions)
	assert.Empty(t, report.UndocumentedClasses)
}

func TestAnalyzeCoverage_PartiallyDocumented(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	symbols := ast.SymbolInfo{
		Functions: []ast.FunctionInfo{
			{Name: "Documented", Docstring: "Has docs."},
			{Name: "Bare"},
		},
		Classes: []ast.ClassInfo{{Name: "Undocumented"}},
	}

	report := analyzer.AnalyzeCoverage("b.go", symbols, "")
	require.Equal(t, 4, report.TotalCount) // module + 2 functions + 1 class
	assert.Equal(t, 1, report.DocumentedCount)
	assert.Equal(t, 25.0, report.CoveragePercentage)
	assert.Equal(t, []string{"Bare"}, report.UndocumentedFunctions)
	assert.Equal(t, []string{"Undocumented"}, report.UndocumentedClasses)
}

func TestAnalyzeCoverage_EmptyFileCountsUndocumentedModule(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	report := analyzer.AnalyzeCoverage("empty.go", ast.SymbolInfo{}, "")
	// total=1 (module only, itself undocumented) is not the zero case;
	// zero only arises if nothing -- including the module -- is counted,
	// which coveragePercentage still handles defensively.
	assert.Equal(t, 1, report.TotalCount)
	assert.Equal(t, 0.0, report.CoveragePercentage)
}

func TestCoveragePercentage_ZeroTotalIsFullCoverage(t *testing.T) {
	assert.Equal(t, 100.0, coveragePercentage(0, 0))
}

func TestAnalyzeCodebaseCoverage_AggregatesAcrossFiles(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	files := []FileSymbols{
		{
			FilePath: "a.go",
			Symbols: ast.SymbolInfo{
				Functions: []ast.FunctionInfo{{Name: "A", Docstring: "doc"}},
			},
		},
		{
			FilePath: "b.go",
			Symbols: ast.SymbolInfo{
				Functions: []ast.FunctionInfo{{Name: "B"}},
			},
		},
	}

	aggregate, perFile := analyzer.AnalyzeCodebaseCoverage(files, map[string]string{"a.go": "package a"})
	require.Len(t, perFile, 2)

	// a.go: module+func both documented (2/2); b.go: module undocumented, func undocumented (0/2).
	assert.Equal(t, 4, aggregate.TotalCount)
	assert.Equal(t, 2, aggregate.DocumentedCount)
	assert.Equal(t, 50.0, aggregate.CoveragePercentage)
	assert.Equal(t, []string{"B"}, aggregate.UndocumentedFunctions)
}
