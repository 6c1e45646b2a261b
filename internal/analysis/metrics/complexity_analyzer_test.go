package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

func TestNewComplexityAnalyzer(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	assert.NotNil(t, analyzer)
	assert.Equal(t, 10, analyzer.config.LowThreshold)
	assert.Equal(t, 15, analyzer.config.MediumThreshold)
	assert.Equal(t, 20, analyzer.config.HighThreshold)
	assert.Equal(t, 4, analyzer.config.MaxNestingDepth)
}

func TestNewComplexityAnalyzerWithConfig(t *testing.T) {
	customConfig := ComplexityConfig{
		LowThreshold:    5,
		MediumThreshold: 10,
		HighThreshold:   15,
		MaxNestingDepth: 3,
		ReportTopN:      5,
		WeightFactors:   Weights{Cyclomatic: 1.0},
	}

	analyzer := NewComplexityAnalyzerWithConfig(customConfig)
	assert.Equal(t, 5, analyzer.config.LowThreshold)
	assert.Equal(t, customConfig, analyzer.config)
}

func fn(name string, cyclomatic, cognitive, nesting int) ast.FunctionInfo {
	return ast.FunctionInfo{
		Name:      name,
		StartLine: 1,
		EndLine:   10,
		Complexity: ast.ComplexityMetrics{
			Cyclomatic:   cyclomatic,
			Cognitive:    cognitive,
			NestingDepth: nesting,
			LinesOfCode:  10,
		},
	}
}

func TestAnalyzeComplexity_EmptyInput(t *testing.T) {
	analyzer := NewComplexityAnalyzer()
	report, err := analyzer.AnalyzeComplexity(nil)
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestAnalyzeComplexity_AggregatesPrecomputedMetrics(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	files := []FileSymbols{
		{
			FilePath: "a.go",
			Symbols: ast.SymbolInfo{
				Functions: []ast.FunctionInfo{
					fn("simple", 2, 2, 1),
					fn("complex", 22, 30, 5),
				},
			},
		},
	}

	report, err := analyzer.AnalyzeComplexity(files)
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalFunctions)
	assert.Equal(t, 12.0, report.AverageCyclomatic)
	assert.Equal(t, 22, report.MaxComplexity)

	assert.Equal(t, 1, report.ComplexityByLevel.Low.Count)
	assert.Equal(t, 1, report.ComplexityByLevel.Severe.Count)

	fileMetric := report.FileMetrics["a.go"]
	assert.Equal(t, 2, fileMetric.FunctionCount)
	assert.Equal(t, 24, fileMetric.TotalComplexity)
}

func TestAnalyzeComplexity_ClassMethodsRollUp(t *testing.T) {
	analyzer := NewComplexityAnalyzer()

	files := []FileSymbols{
		{
			FilePath: "b.go",
			Symbols: ast.SymbolInfo{
				Classes: []ast.ClassInfo{
					{
						Name: "Widget",
						Methods: []ast.FunctionInfo{
							fn("Widget.Render", 3, 3, 1),
							fn("Widget.Update", 18, 20, 4),
						},
					},
				},
			},
		},
	}

	report, err := analyzer.AnalyzeComplexity(files)
	require.NoError(t, err)
	require.Len(t, report.ClassMetrics, 1)

	class := report.ClassMetrics[0]
	assert.Equal(t, 2, class.MethodCount)
	assert.Equal(t, 21, class.TotalComplexity)
	assert.Equal(t, 18, class.MaxMethod)
	assert.Equal(t, "high", class.OverallRisk)

	// Methods also roll up into the flat function list.
	assert.Len(t, report.FunctionMetrics, 2)
}

func TestDetermineSeverityLevel(t *testing.T) {
	analyzer := NewComplexityAnalyzer()
	assert.Equal(t, "low", analyzer.determineSeverityLevel(3))
	assert.Equal(t, "medium", analyzer.determineSeverityLevel(10))
	assert.Equal(t, "high", analyzer.determineSeverityLevel(15))
	assert.Equal(t, "severe", analyzer.determineSeverityLevel(25))
}

func TestComplexityScore_PiecewiseFormula(t *testing.T) {
	assert.Equal(t, 0.5, ComplexityScore(1))
	assert.Equal(t, 0.5, ComplexityScore(0))
	assert.Equal(t, 1.0, ComplexityScore(2))
	assert.Equal(t, 1.0, ComplexityScore(6))
	assert.Equal(t, 0.2, ComplexityScore(16))
	assert.InDelta(t, 0.3, ComplexityScore(15), 1e-9)

	// Midpoint of the decay, linearly interpolated between 1.0 and 0.3.
	mid := ComplexityScore(10.5)
	assert.InDelta(t, 0.65, mid, 1e-9)
}
