// Package scoring implements the teaching-value scorer (C10): a weighted
// composite of documentation coverage, function complexity, detected
// pattern density, and file structure, aggregated off the outputs of C7
// (symbol extraction), C8 (complexity/coverage analyzers) and C9 (pattern
// detectors) rather than re-deriving any of them.
package scoring

import (
	"fmt"
	"math"

	"github.com/repoanalysis/engine/internal/analysis/ast"
	"github.com/repoanalysis/engine/internal/analysis/detectors"
	"github.com/repoanalysis/engine/internal/analysis/metrics"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/pkg/utils"
)

// Weights controls how the four component scores combine into the total.
// The default matches spec.md §4.9: documentation 0.3, complexity 0.25,
// pattern 0.25, structure 0.2.
type Weights struct {
	Documentation float64
	Complexity    float64
	Pattern       float64
	Structure     float64
}

// DefaultWeights returns spec.md §4.9's default weighting.
func DefaultWeights() Weights {
	return Weights{
		Documentation: 0.3,
		Complexity:    0.25,
		Pattern:       0.25,
		Structure:     0.2,
	}
}

func (w Weights) sum() float64 {
	return w.Documentation + w.Complexity + w.Pattern + w.Structure
}

// validate enforces the invariant spec.md §4.9 states for weights: they
// must sum to 1.0 within 1e-6, or scoring is a Configuration error rather
// than a silently-wrong score.
func (w Weights) validate() error {
	if math.Abs(w.sum()-1.0) > 1e-6 {
		return corerr.New(corerr.Configuration,
			fmt.Sprintf("teaching value weights must sum to 1.0, got %v", w.sum()))
	}
	return nil
}

// Score is spec.md's TeachingValueScore: a total in [0,1] built from four
// component scores, each also in [0,1], plus a human-readable explanation
// and the raw factors that produced it.
type Score struct {
	Total              float64            `json:"total"`
	DocumentationScore float64            `json:"documentation_score"`
	ComplexityScore    float64            `json:"complexity_score"`
	PatternScore       float64            `json:"pattern_score"`
	StructureScore     float64            `json:"structure_score"`
	Explanation        string             `json:"explanation"`
	Factors            map[string]float64 `json:"factors"`
}

// Scorer computes TeachingValueScore for a single file.
type Scorer struct {
	weights Weights
}

// NewScorer builds a Scorer with spec.md §4.9's default weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// NewScorerWithWeights builds a Scorer with custom weights, validated
// up front so a misconfigured caller fails fast rather than at score time.
func NewScorerWithWeights(w Weights) (*Scorer, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Score computes the teaching-value score for one file. coveragePercentage
// and averageCyclomatic come from C8's CoverageAnalyzer/ComplexityAnalyzer
// outputs for this file; patterns comes from C9's Registry.DetectAll;
// symbols is the same ast.SymbolInfo C7 extracted for the file.
func (s *Scorer) Score(coveragePercentage, averageCyclomatic float64, patterns []detectors.DetectedPattern, symbols ast.SymbolInfo) (Score, error) {
	if err := s.weights.validate(); err != nil {
		return Score{}, err
	}

	documentationScore := utils.Clamp(coveragePercentage/100, 0, 1)
	complexityScore := utils.Clamp(metrics.ComplexityScore(averageCyclomatic), 0, 1)

	confidentPatterns := 0
	for _, p := range patterns {
		if p.Confidence >= 0.5 {
			confidentPatterns++
		}
	}
	patternScore := math.Min(1.0, 0.2*float64(confidentPatterns))

	structureScore := structureScore(symbols)

	total := s.weights.Documentation*documentationScore +
		s.weights.Complexity*complexityScore +
		s.weights.Pattern*patternScore +
		s.weights.Structure*structureScore

	return Score{
		Total:              total,
		DocumentationScore: documentationScore,
		ComplexityScore:    complexityScore,
		PatternScore:       patternScore,
		StructureScore:     structureScore,
		Explanation:        explain(documentationScore, complexityScore, patternScore, structureScore, s.weights),
		Factors: map[string]float64{
			"coverage_percentage":      coveragePercentage,
			"average_cyclomatic":       averageCyclomatic,
			"confident_pattern_count":  float64(confidentPatterns),
			"top_level_function_count": float64(len(symbols.Functions)),
			"top_level_class_count":    float64(len(symbols.Classes)),
		},
	}, nil
}

// structureScore implements spec.md §4.9's structure_score: 1.0 with at
// least one top-level class or three-plus top-level functions, 0.7 with
// one or two top-level functions, 0.4 otherwise.
func structureScore(symbols ast.SymbolInfo) float64 {
	switch {
	case len(symbols.Classes) >= 1 || len(symbols.Functions) >= 3:
		return 1.0
	case len(symbols.Functions) >= 1:
		return 0.7
	default:
		return 0.4
	}
}

// explain names the dominant weighted factor so callers get a reason, not
// just a number.
func explain(documentation, complexity, pattern, structure float64, w Weights) string {
	type contribution struct {
		name  string
		value float64
	}
	contributions := []contribution{
		{"documentation coverage", w.Documentation * documentation},
		{"complexity profile", w.Complexity * complexity},
		{"detected patterns", w.Pattern * pattern},
		{"file structure", w.Structure * structure},
	}

	dominant := contributions[0]
	for _, c := range contributions[1:] {
		if c.value > dominant.value {
			dominant = c
		}
	}

	return fmt.Sprintf("Largest contributor is %s (%.2f of total weighted score).", dominant.name, dominant.value)
}
