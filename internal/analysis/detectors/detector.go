// Package detectors implements the pluggable pattern-detector registry
// (C9): framework, architectural, and per-language idiom detectors that
// share one capability set and are run together for every analyzed file.
package detectors

import (
	"sort"
	"strconv"
	"sync"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

// DetectedPattern is one detector's finding in a single file.
type DetectedPattern struct {
	PatternType string                 `json:"pattern_type"`
	Confidence  float64                `json:"confidence"`
	Evidence    []string               `json:"evidence"`
	LineStart   int                    `json:"line_start"`
	LineEnd     int                    `json:"line_end,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Detector is the common capability set every pattern detector implements,
// per spec.md §4.8.
type Detector interface {
	Name() string
	ApplicableLanguages() []string
	Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error)
}

// Registry holds the set of registered detectors and runs the ones
// applicable to a given language against a file.
type Registry struct {
	mu        sync.RWMutex
	detectors []Detector
}

// NewRegistry creates a registry pre-loaded with every built-in detector.
func NewRegistry() *Registry {
	r := &Registry{}
	for _, d := range builtinDetectors() {
		r.Register(d)
	}
	return r
}

// Register adds a detector to the registry.
func (r *Registry) Register(d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors = append(r.detectors, d)
}

// applicable reports whether a detector applies to language, where an empty
// ApplicableLanguages list means "applies to every language".
func applicable(d Detector, language string) bool {
	langs := d.ApplicableLanguages()
	if len(langs) == 0 {
		return true
	}
	for _, l := range langs {
		if l == language {
			return true
		}
	}
	return false
}

var knownLanguages = map[string]bool{
	ast.LangJavaScript: true, ast.LangTypeScript: true, ast.LangTSX: true,
	ast.LangPython: true, ast.LangJava: true, ast.LangGo: true, ast.LangRust: true,
	ast.LangRuby: true, ast.LangPHP: true, ast.LangCSharp: true, ast.LangCPP: true,
}

// DetectAll runs every detector applicable to language against the file,
// concurrently (each built-in detector is stateless), and deduplicates
// results on (pattern_type, line_start). Unknown languages simply match no
// detector and yield an empty list, never an error.
func (r *Registry) DetectAll(filePath, language string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	if !knownLanguages[language] {
		return []DetectedPattern{}, nil
	}

	r.mu.RLock()
	var candidates []Detector
	for _, d := range r.detectors {
		if applicable(d, language) {
			candidates = append(candidates, d)
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return []DetectedPattern{}, nil
	}

	type outcome struct {
		patterns []DetectedPattern
		err      error
	}
	results := make([]outcome, len(candidates))

	var wg sync.WaitGroup
	for i, d := range candidates {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			patterns, err := d.Detect(filePath, source, symbols)
			results[i] = outcome{patterns: patterns, err: err}
		}(i, d)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var all []DetectedPattern
	for _, res := range results {
		if res.err != nil {
			continue
		}
		for _, p := range res.patterns {
			key := dedupeKey(p)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, p)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].LineStart != all[j].LineStart {
			return all[i].LineStart < all[j].LineStart
		}
		return all[i].PatternType < all[j].PatternType
	})

	if all == nil {
		all = []DetectedPattern{}
	}
	return all, nil
}

func dedupeKey(p DetectedPattern) string {
	return p.PatternType + "\x00" + strconv.Itoa(p.LineStart)
}
