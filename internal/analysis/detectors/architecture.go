package detectors

import (
	"strings"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

// architecturalStyleDetector flags directory/naming conventions that signal
// a broader architectural style (MVC, clean architecture, component-based),
// adapted from the teacher's detectMVC/detectCleanArchitecture/
// detectComponentBased scoring functions. Confidence accumulates the same
// way the teacher's did: independent partial-evidence contributions summed
// into a single score, reported only past its threshold.
type architecturalStyleDetector struct{}

func (architecturalStyleDetector) Name() string                 { return "architecture.style" }
func (architecturalStyleDetector) ApplicableLanguages() []string { return nil }

func (architecturalStyleDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)
	var patterns []DetectedPattern

	if mvc, evidence := detectMVC(filePath, content); mvc > 0.6 {
		patterns = append(patterns, DetectedPattern{
			PatternType: "architecture.mvc",
			Confidence:  mvc,
			Evidence:    evidence,
			LineStart:   1,
		})
	}

	if clean, evidence := detectCleanArchitecture(filePath, content); clean > 0.6 {
		patterns = append(patterns, DetectedPattern{
			PatternType: "architecture.clean",
			Confidence:  clean,
			Evidence:    evidence,
			LineStart:   1,
		})
	}

	if comp, evidence := detectComponentBased(filePath, content); comp > 0.7 {
		patterns = append(patterns, DetectedPattern{
			PatternType: "architecture.component_based",
			Confidence:  comp,
			Evidence:    evidence,
			LineStart:   1,
		})
	}

	return patterns, nil
}

func detectMVC(filePath, content string) (float64, []string) {
	score := 0.0
	var evidence []string

	if strings.Contains(filePath, "controller") || strings.Contains(filePath, "model") || strings.Contains(filePath, "view") {
		score += 0.4
		evidence = append(evidence, "File path follows controller/model/view layout")
	}
	if strings.Contains(content, "Controller") || strings.Contains(content, "Model") || strings.Contains(content, "View") {
		score += 0.3
		evidence = append(evidence, "Declares Controller/Model/View-named types")
	}
	if strings.Contains(content, "render") && strings.Contains(content, "data") {
		score += 0.2
		evidence = append(evidence, "Separates render logic from data handling")
	}

	return clamp(score), evidence
}

func detectCleanArchitecture(filePath, content string) (float64, []string) {
	score := 0.0
	var evidence []string

	if strings.Contains(filePath, "entities") || strings.Contains(filePath, "domain") {
		score += 0.35
		evidence = append(evidence, "File path isolates a domain/entities layer")
	}
	if strings.Contains(filePath, "usecases") || strings.Contains(filePath, "services") {
		score += 0.35
		evidence = append(evidence, "File path isolates a use-case/service layer")
	}
	if strings.Contains(filePath, "adapters") || strings.Contains(filePath, "infrastructure") {
		score += 0.3
		evidence = append(evidence, "File path isolates an adapters/infrastructure layer")
	}

	return clamp(score), evidence
}

func detectComponentBased(filePath, content string) (float64, []string) {
	score := 0.0
	var evidence []string

	if strings.Contains(filePath, "components") {
		score += 0.4
		evidence = append(evidence, "File path places it under a components directory")
	}
	if strings.Contains(content, "props") || strings.Contains(content, "children") {
		score += 0.3
		evidence = append(evidence, "Accepts props/children for reuse")
	}
	if strings.Contains(content, "Component") && strings.Contains(content, "render") {
		score += 0.3
		evidence = append(evidence, "Composes child components via render")
	}

	return clamp(score), evidence
}

func clamp(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	return score
}

// designPatternDetector flags common OO/React design-pattern idioms,
// adapted from the teacher's detectFactory/detectRepository/detectObserver/
// detectHOC/detectHooksPattern scoring functions.
type designPatternDetector struct{}

func (designPatternDetector) Name() string                 { return "design_pattern" }
func (designPatternDetector) ApplicableLanguages() []string { return nil }

func (designPatternDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)
	var patterns []DetectedPattern

	type check struct {
		patternType string
		threshold   float64
		score       float64
		evidence    []string
	}

	checks := []check{}

	factoryScore, factoryEvidence := 0.0, []string(nil)
	if strings.Contains(content, "Factory") || strings.Contains(content, "create") {
		factoryScore += 0.5
		factoryEvidence = append(factoryEvidence, "Uses Factory-named type or create-prefixed constructor")
	}
	if strings.Contains(content, "interface") || strings.Contains(content, "abstract") {
		factoryScore += 0.3
		factoryEvidence = append(factoryEvidence, "Builds behind an interface/abstract type")
	}
	checks = append(checks, check{"design_pattern.factory", 0.7, factoryScore, factoryEvidence})

	repoScore, repoEvidence := 0.0, []string(nil)
	if strings.Contains(content, "Repository") {
		repoScore += 0.5
		repoEvidence = append(repoEvidence, "Declares a Repository-named type")
	}
	if strings.Contains(content, "find") && strings.Contains(content, "create") {
		repoScore += 0.3
		repoEvidence = append(repoEvidence, "Exposes find/create CRUD-shaped methods")
	}
	checks = append(checks, check{"design_pattern.repository", 0.7, repoScore, repoEvidence})

	observerScore, observerEvidence := 0.0, []string(nil)
	if strings.Contains(content, "addEventListener") || strings.Contains(content, "onClick") {
		observerScore += 0.4
		observerEvidence = append(observerEvidence, "Registers event listeners/handlers")
	}
	if strings.Contains(content, "subscribe") || strings.Contains(content, "observer") {
		observerScore += 0.4
		observerEvidence = append(observerEvidence, "Implements subscribe/observer idiom")
	}
	checks = append(checks, check{"design_pattern.observer", 0.6, observerScore, observerEvidence})

	hocScore, hocEvidence := 0.0, []string(nil)
	if strings.Contains(content, "with") && strings.Contains(content, "Component") {
		hocScore += 0.4
		hocEvidence = append(hocEvidence, "Defines a withX-prefixed component wrapper")
	}
	if strings.Contains(content, "return ") && strings.Contains(content, "Component") {
		hocScore += 0.4
		hocEvidence = append(hocEvidence, "Returns a composed Component")
	}
	checks = append(checks, check{"design_pattern.higher_order_component", 0.7, hocScore, hocEvidence})

	hooksScore, hooksEvidence := 0.0, []string(nil)
	if strings.Contains(content, "const use") || strings.Contains(content, "function use") {
		hooksScore += 0.4
		hooksEvidence = append(hooksEvidence, "Declares a custom useXxx hook")
	}
	if strings.Contains(content, "useEffect") || strings.Contains(content, "useLayoutEffect") {
		hooksScore += 0.3
		hooksEvidence = append(hooksEvidence, "Manages lifecycle via useEffect/useLayoutEffect")
	}
	checks = append(checks, check{"design_pattern.hooks", 0.6, hooksScore, hooksEvidence})

	for _, c := range checks {
		score := clamp(c.score)
		if score <= c.threshold || len(c.evidence) == 0 {
			continue
		}
		patterns = append(patterns, DetectedPattern{
			PatternType: c.patternType,
			Confidence:  score,
			Evidence:    c.evidence,
			LineStart:   1,
		})
	}

	return patterns, nil
}
