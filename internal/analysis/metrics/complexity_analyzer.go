package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

// ComplexityAnalyzer aggregates the per-function ComplexityMetrics that C7
// computes during symbol extraction into file- and codebase-level reports.
// It does not re-derive cyclomatic/cognitive numbers from heuristics - those
// are already exact, computed directly off the tree-sitter subtree while it
// was in scope.
type ComplexityAnalyzer struct {
	config ComplexityConfig
}

// ComplexityConfig defines thresholds and settings for complexity analysis.
type ComplexityConfig struct {
	LowThreshold    int     `yaml:"low_threshold" json:"low_threshold"`
	MediumThreshold int     `yaml:"medium_threshold" json:"medium_threshold"`
	HighThreshold   int     `yaml:"high_threshold" json:"high_threshold"`
	MaxNestingDepth int     `yaml:"max_nesting_depth" json:"max_nesting_depth"`
	ReportTopN      int     `yaml:"report_top_n" json:"report_top_n"`
	WeightFactors   Weights `yaml:"weight_factors" json:"weight_factors"`
}

// Weights for different complexity factors in the composite per-function score.
type Weights struct {
	Cyclomatic   float64 `yaml:"cyclomatic" json:"cyclomatic"`
	Cognitive    float64 `yaml:"cognitive" json:"cognitive"`
	NestingDepth float64 `yaml:"nesting_depth" json:"nesting_depth"`
}

// ComplexityReport contains the aggregated complexity analysis for a codebase.
type ComplexityReport struct {
	OverallScore      float64                    `json:"overall_score"`
	AverageCyclomatic float64                    `json:"average_cyclomatic"`
	MaxComplexity     int                        `json:"max_complexity"`
	TotalFunctions    int                        `json:"total_functions"`
	ComplexityByLevel ComplexityBreakdown        `json:"complexity_by_level"`
	FunctionMetrics   []FunctionComplexity       `json:"function_metrics"`
	ClassMetrics      []ClassComplexity          `json:"class_metrics"`
	FileMetrics       map[string]FileComplexity  `json:"file_metrics"`
	Recommendations   []ComplexityRecommendation `json:"recommendations"`
	Summary           ComplexitySummary          `json:"summary"`
}

// ComplexityBreakdown categorizes functions by complexity level.
type ComplexityBreakdown struct {
	Low    ComplexityLevel `json:"low"`
	Medium ComplexityLevel `json:"medium"`
	High   ComplexityLevel `json:"high"`
	Severe ComplexityLevel `json:"severe"`
}

// ComplexityLevel contains metrics for a specific complexity range.
type ComplexityLevel struct {
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	Functions  []string `json:"functions"`
}

// FunctionComplexity reports the already-computed metrics for a single
// function alongside the derived severity/risk assessment.
type FunctionComplexity struct {
	Name              string            `json:"name"`
	FilePath          string            `json:"file_path"`
	StartLine         int               `json:"start_line"`
	EndLine           int               `json:"end_line"`
	Complexity        ast.ComplexityMetrics `json:"complexity"`
	SeverityLevel     string            `json:"severity_level"`
	WeightedScore     float64           `json:"weighted_score"`
	Recommendations   []string          `json:"recommendations"`
	RefactoringRisk   string            `json:"refactoring_risk"`
}

// ClassComplexity aggregates complexity metrics for a class's methods.
type ClassComplexity struct {
	Name            string               `json:"name"`
	FilePath        string               `json:"file_path"`
	TotalComplexity int                  `json:"total_complexity"`
	AverageMethod   float64              `json:"average_method_complexity"`
	MaxMethod       int                  `json:"max_method_complexity"`
	MethodCount     int                  `json:"method_count"`
	Methods         []FunctionComplexity `json:"methods"`
	OverallRisk     string               `json:"overall_risk"`
}

// FileComplexity aggregates complexity metrics at the file level.
type FileComplexity struct {
	FilePath            string  `json:"file_path"`
	TotalComplexity     int     `json:"total_complexity"`
	AverageComplexity   float64 `json:"average_complexity"`
	FunctionCount       int     `json:"function_count"`
	ClassCount          int     `json:"class_count"`
	MaxComplexity       int     `json:"max_complexity"`
	MaintainabilityRisk string  `json:"maintainability_risk"`
}

// ComplexityRecommendation provides actionable improvement suggestions.
type ComplexityRecommendation struct {
	Priority       string   `json:"priority"`
	Category       string   `json:"category"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Functions      []string `json:"functions"`
	EstimatedHours int      `json:"estimated_hours"`
}

// ComplexitySummary provides an executive-level overview.
type ComplexitySummary struct {
	HealthScore       float64 `json:"health_score"`
	RiskLevel         string  `json:"risk_level"`
	RefactoringNeeded int     `json:"refactoring_needed"`
}

// NewComplexityAnalyzer creates a new complexity analyzer with default configuration.
func NewComplexityAnalyzer() *ComplexityAnalyzer {
	return &ComplexityAnalyzer{
		config: ComplexityConfig{
			LowThreshold:    10,
			MediumThreshold: 15,
			HighThreshold:   20,
			MaxNestingDepth: 4,
			ReportTopN:      20,
			WeightFactors: Weights{
				Cyclomatic:   0.5,
				Cognitive:    0.3,
				NestingDepth: 0.2,
			},
		},
	}
}

// NewComplexityAnalyzerWithConfig creates an analyzer with a custom configuration.
func NewComplexityAnalyzerWithConfig(config ComplexityConfig) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{config: config}
}

// FileSymbols pairs a file path with the symbols C7 extracted from it, the
// unit the complexity and coverage analyzers both consume.
type FileSymbols struct {
	FilePath string
	Symbols  ast.SymbolInfo
}

// AnalyzeComplexity aggregates the per-function ComplexityMetrics already
// present on each FunctionInfo into file- and codebase-level reports.
func (ca *ComplexityAnalyzer) AnalyzeComplexity(files []FileSymbols) (*ComplexityReport, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided for complexity analysis")
	}

	report := &ComplexityReport{
		FunctionMetrics: []FunctionComplexity{},
		ClassMetrics:    []ClassComplexity{},
		FileMetrics:     make(map[string]FileComplexity),
		ComplexityByLevel: ComplexityBreakdown{
			Low:    ComplexityLevel{Functions: []string{}},
			Medium: ComplexityLevel{Functions: []string{}},
			High:   ComplexityLevel{Functions: []string{}},
			Severe: ComplexityLevel{Functions: []string{}},
		},
		Recommendations: []ComplexityRecommendation{},
	}

	for _, file := range files {
		ca.analyzeFile(file, report)
	}

	ca.calculateAggregateMetrics(report)
	ca.generateRecommendations(report)
	ca.generateSummary(report)

	return report, nil
}

func (ca *ComplexityAnalyzer) analyzeFile(file FileSymbols, report *ComplexityReport) {
	fileMetric := FileComplexity{FilePath: file.FilePath}

	for _, function := range file.Symbols.Functions {
		fc := ca.analyzeFunctionComplexity(function, file.FilePath)
		report.FunctionMetrics = append(report.FunctionMetrics, fc)
		ca.categorizeFunction(&fc, &report.ComplexityByLevel)

		fileMetric.TotalComplexity += fc.Complexity.Cyclomatic
		fileMetric.FunctionCount++
		if fc.Complexity.Cyclomatic > fileMetric.MaxComplexity {
			fileMetric.MaxComplexity = fc.Complexity.Cyclomatic
		}
	}

	for _, class := range file.Symbols.Classes {
		cc := ca.analyzeClassComplexity(class, file.FilePath)
		report.ClassMetrics = append(report.ClassMetrics, cc)

		for _, method := range cc.Methods {
			report.FunctionMetrics = append(report.FunctionMetrics, method)
			ca.categorizeFunction(&method, &report.ComplexityByLevel)
		}

		fileMetric.TotalComplexity += cc.TotalComplexity
		fileMetric.ClassCount++
		fileMetric.FunctionCount += cc.MethodCount
		if cc.MaxMethod > fileMetric.MaxComplexity {
			fileMetric.MaxComplexity = cc.MaxMethod
		}
	}

	if fileMetric.FunctionCount > 0 {
		fileMetric.AverageComplexity = float64(fileMetric.TotalComplexity) / float64(fileMetric.FunctionCount)
		fileMetric.MaintainabilityRisk = ca.assessMaintainabilityRisk(fileMetric.AverageComplexity, fileMetric.MaxComplexity)
	}

	report.FileMetrics[file.FilePath] = fileMetric
}

func (ca *ComplexityAnalyzer) analyzeFunctionComplexity(function ast.FunctionInfo, filePath string) FunctionComplexity {
	fc := FunctionComplexity{
		Name:       function.Name,
		FilePath:   filePath,
		StartLine:  function.StartLine,
		EndLine:    function.EndLine,
		Complexity: function.Complexity,
	}

	fc.WeightedScore = ca.calculateWeightedScore(fc.Complexity)
	fc.SeverityLevel = ca.determineSeverityLevel(fc.Complexity.Cyclomatic)
	fc.RefactoringRisk = ca.assessRefactoringRisk(fc.Complexity)
	fc.Recommendations = ca.generateFunctionRecommendations(fc)

	return fc
}

func (ca *ComplexityAnalyzer) analyzeClassComplexity(class ast.ClassInfo, filePath string) ClassComplexity {
	cc := ClassComplexity{
		Name:     class.Name,
		FilePath: filePath,
		Methods:  []FunctionComplexity{},
	}

	for _, method := range class.Methods {
		mc := ca.analyzeFunctionComplexity(method, filePath)
		cc.Methods = append(cc.Methods, mc)
		cc.TotalComplexity += mc.Complexity.Cyclomatic
		if mc.Complexity.Cyclomatic > cc.MaxMethod {
			cc.MaxMethod = mc.Complexity.Cyclomatic
		}
	}

	cc.MethodCount = len(class.Methods)
	if cc.MethodCount > 0 {
		cc.AverageMethod = float64(cc.TotalComplexity) / float64(cc.MethodCount)
	}
	cc.OverallRisk = ca.assessClassRisk(cc)

	return cc
}

// calculateWeightedScore produces a single composite score from the three
// raw complexity measures, for ranking and recommendation purposes only -
// this is not the spec's complexity_score (see ComplexityScore below).
func (ca *ComplexityAnalyzer) calculateWeightedScore(m ast.ComplexityMetrics) float64 {
	w := ca.config.WeightFactors
	score := float64(m.Cyclomatic)*w.Cyclomatic +
		float64(m.Cognitive)*w.Cognitive +
		float64(m.NestingDepth)*w.NestingDepth
	return math.Round(score*100) / 100
}

func (ca *ComplexityAnalyzer) determineSeverityLevel(cyclomatic int) string {
	switch {
	case cyclomatic >= ca.config.HighThreshold:
		return "severe"
	case cyclomatic >= ca.config.MediumThreshold:
		return "high"
	case cyclomatic >= ca.config.LowThreshold:
		return "medium"
	default:
		return "low"
	}
}

func (ca *ComplexityAnalyzer) assessRefactoringRisk(m ast.ComplexityMetrics) string {
	switch {
	case m.Cyclomatic > 25 || m.NestingDepth > 4:
		return "critical"
	case m.Cyclomatic > 15 || m.NestingDepth > 3:
		return "high"
	case m.Cyclomatic > 10:
		return "medium"
	default:
		return "low"
	}
}

func (ca *ComplexityAnalyzer) generateFunctionRecommendations(fc FunctionComplexity) []string {
	var recs []string

	if fc.Complexity.Cyclomatic > ca.config.HighThreshold {
		recs = append(recs, "Consider breaking this function into smaller, more focused functions")
		recs = append(recs, "Extract complex conditional logic into separate helper functions")
	}
	if fc.Complexity.NestingDepth > ca.config.MaxNestingDepth {
		recs = append(recs, "Reduce nesting depth using early returns or guard clauses")
	}

	return recs
}

func (ca *ComplexityAnalyzer) categorizeFunction(fc *FunctionComplexity, breakdown *ComplexityBreakdown) {
	label := fmt.Sprintf("%s (%s:%d)", fc.Name, fc.FilePath, fc.StartLine)

	switch fc.SeverityLevel {
	case "low":
		breakdown.Low.Count++
		breakdown.Low.Functions = append(breakdown.Low.Functions, label)
	case "medium":
		breakdown.Medium.Count++
		breakdown.Medium.Functions = append(breakdown.Medium.Functions, label)
	case "high":
		breakdown.High.Count++
		breakdown.High.Functions = append(breakdown.High.Functions, label)
	case "severe":
		breakdown.Severe.Count++
		breakdown.Severe.Functions = append(breakdown.Severe.Functions, label)
	}
}

func (ca *ComplexityAnalyzer) calculateAggregateMetrics(report *ComplexityReport) {
	if len(report.FunctionMetrics) == 0 {
		return
	}

	totalCyclomatic := 0
	maxComplexity := 0
	for _, fc := range report.FunctionMetrics {
		totalCyclomatic += fc.Complexity.Cyclomatic
		if fc.Complexity.Cyclomatic > maxComplexity {
			maxComplexity = fc.Complexity.Cyclomatic
		}
	}

	report.TotalFunctions = len(report.FunctionMetrics)
	report.AverageCyclomatic = float64(totalCyclomatic) / float64(report.TotalFunctions)
	report.MaxComplexity = maxComplexity

	total := float64(report.TotalFunctions)
	report.ComplexityByLevel.Low.Percentage = float64(report.ComplexityByLevel.Low.Count) / total * 100
	report.ComplexityByLevel.Medium.Percentage = float64(report.ComplexityByLevel.Medium.Count) / total * 100
	report.ComplexityByLevel.High.Percentage = float64(report.ComplexityByLevel.High.Count) / total * 100
	report.ComplexityByLevel.Severe.Percentage = float64(report.ComplexityByLevel.Severe.Count) / total * 100

	report.OverallScore = math.Max(0, 100-(report.AverageCyclomatic*5))
}

func (ca *ComplexityAnalyzer) generateRecommendations(report *ComplexityReport) {
	functions := make([]FunctionComplexity, len(report.FunctionMetrics))
	copy(functions, report.FunctionMetrics)
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].WeightedScore > functions[j].WeightedScore
	})

	topN := ca.config.ReportTopN
	if len(functions) < topN {
		topN = len(functions)
	}

	var critical []string
	for i := 0; i < topN; i++ {
		if functions[i].SeverityLevel == "severe" || functions[i].SeverityLevel == "high" {
			critical = append(critical, functions[i].Name)
		}
	}

	if len(critical) > 0 {
		report.Recommendations = append(report.Recommendations, ComplexityRecommendation{
			Priority:       "critical",
			Category:       "refactoring",
			Title:          "Refactor high-complexity functions",
			Description:    fmt.Sprintf("Refactor %d functions with severe/high complexity", len(critical)),
			Functions:      critical,
			EstimatedHours: len(critical) * 4,
		})
	}
}

func (ca *ComplexityAnalyzer) generateSummary(report *ComplexityReport) {
	summary := ComplexitySummary{
		HealthScore:       report.OverallScore,
		RefactoringNeeded: report.ComplexityByLevel.High.Count + report.ComplexityByLevel.Severe.Count,
	}

	switch {
	case report.ComplexityByLevel.Severe.Percentage > 5:
		summary.RiskLevel = "critical"
	case report.ComplexityByLevel.High.Percentage > 15:
		summary.RiskLevel = "high"
	case report.ComplexityByLevel.Medium.Percentage > 40:
		summary.RiskLevel = "medium"
	default:
		summary.RiskLevel = "low"
	}

	report.Summary = summary
}

func (ca *ComplexityAnalyzer) assessMaintainabilityRisk(avgComplexity float64, maxComplexity int) string {
	switch {
	case avgComplexity > 15 || maxComplexity > 25:
		return "critical"
	case avgComplexity > 10 || maxComplexity > 20:
		return "high"
	case avgComplexity > 7 || maxComplexity > 15:
		return "medium"
	default:
		return "low"
	}
}

func (ca *ComplexityAnalyzer) assessClassRisk(cc ClassComplexity) string {
	switch {
	case cc.AverageMethod > 15 || cc.MaxMethod > 25:
		return "critical"
	case cc.AverageMethod > 10 || cc.MaxMethod > 20:
		return "high"
	case cc.AverageMethod > 7 || cc.MaxMethod > 15:
		return "medium"
	default:
		return "low"
	}
}

// ComplexityScore implements spec.md §4.9's piecewise complexity_score:
// 1.0 in the sweet spot [2,6], linearly decaying to 0.3 by 15, 0.5 for
// trivial functions (average cyclomatic <= 1), and 0.2 beyond 15.
func ComplexityScore(averageCyclomatic float64) float64 {
	switch {
	case averageCyclomatic <= 1:
		return 0.5
	case averageCyclomatic >= 2 && averageCyclomatic <= 6:
		return 1.0
	case averageCyclomatic > 15:
		return 0.2
	default:
		// Linear decay from 1.0 at 6 to 0.3 at 15.
		t := (averageCyclomatic - 6) / (15 - 6)
		return 1.0 - t*(1.0-0.3)
	}
}
