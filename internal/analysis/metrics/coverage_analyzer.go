package metrics

import (
	"github.com/repoanalysis/engine/internal/analysis/ast"
)

// CoverageAnalyzer computes documentation coverage per spec.md §4.7: across
// the set of top-level functions, classes, and the module itself, the
// fraction that carry a non-empty docstring/doc comment.
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer creates a new documentation coverage analyzer.
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// CoverageReport holds the documentation coverage results for one file, or
// the aggregate across a codebase.
type CoverageReport struct {
	FilePath              string   `json:"file_path"`
	DocumentedCount       int      `json:"documented_count"`
	TotalCount            int      `json:"total_count"`
	CoveragePercentage    float64  `json:"coverage_percentage"`
	UndocumentedFunctions []string `json:"undocumented_functions"`
	UndocumentedClasses   []string `json:"undocumented_classes"`
}

// AnalyzeCoverage computes the documentation coverage of a single file's
// extracted symbols. moduleDocstring is the doc comment attached to the file
// itself (e.g. a package comment or module docstring), counted as one
// additional member of the set being measured.
func (ca *CoverageAnalyzer) AnalyzeCoverage(filePath string, symbols ast.SymbolInfo, moduleDocstring string) CoverageReport {
	report := CoverageReport{
		FilePath:              filePath,
		UndocumentedFunctions: []string{},
		UndocumentedClasses:   []string{},
	}

	report.TotalCount++ // the module itself
	if moduleDocstring != "" {
		report.DocumentedCount++
	}

	for _, fn := range symbols.Functions {
		report.TotalCount++
		if fn.Docstring != "" {
			report.DocumentedCount++
		} else {
			report.UndocumentedFunctions = append(report.UndocumentedFunctions, fn.Name)
		}
	}

	for _, class := range symbols.Classes {
		report.TotalCount++
		if class.Docstring != "" {
			report.DocumentedCount++
		} else {
			report.UndocumentedClasses = append(report.UndocumentedClasses, class.Name)
		}
	}

	report.CoveragePercentage = coveragePercentage(report.DocumentedCount, report.TotalCount)

	return report
}

// AnalyzeCodebaseCoverage aggregates per-file coverage into a single
// codebase-wide percentage, summing documented/total members across every
// file rather than averaging per-file percentages.
func (ca *CoverageAnalyzer) AnalyzeCodebaseCoverage(files []FileSymbols, moduleDocstrings map[string]string) (CoverageReport, []CoverageReport) {
	perFile := make([]CoverageReport, 0, len(files))

	aggregate := CoverageReport{
		UndocumentedFunctions: []string{},
		UndocumentedClasses:   []string{},
	}

	for _, file := range files {
		report := ca.AnalyzeCoverage(file.FilePath, file.Symbols, moduleDocstrings[file.FilePath])
		perFile = append(perFile, report)

		aggregate.DocumentedCount += report.DocumentedCount
		aggregate.TotalCount += report.TotalCount
		aggregate.UndocumentedFunctions = append(aggregate.UndocumentedFunctions, report.UndocumentedFunctions...)
		aggregate.UndocumentedClasses = append(aggregate.UndocumentedClasses, report.UndocumentedClasses...)
	}

	aggregate.CoveragePercentage = coveragePercentage(aggregate.DocumentedCount, aggregate.TotalCount)

	return aggregate, perFile
}

// coveragePercentage implements the total=0 edge case from spec.md §4.7:
// coverage is defined as 100 when there is nothing to document.
func coveragePercentage(documented, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(documented) / float64(total) * 100
}
