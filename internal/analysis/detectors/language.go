package detectors

import (
	"strings"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

// idiomMarker pairs a source substring with the evidence description it
// contributes when found, keeping detection order fixed and reproducible.
type idiomMarker struct {
	marker string
	desc   string
}

// idiomDetector is a table-driven per-language idiom detector: each marker
// that appears in the source contributes one evidence line, grounded on
// spec.md §4.8's explicit per-language idiom list.
type idiomDetector struct {
	name     string
	language string
	markers  []idiomMarker
}

func (d idiomDetector) Name() string                 { return d.name }
func (d idiomDetector) ApplicableLanguages() []string { return []string{d.language} }

func (d idiomDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)
	var evidence []string
	for _, m := range d.markers {
		if strings.Contains(content, m.marker) {
			evidence = append(evidence, m.desc)
		}
	}
	if len(evidence) == 0 {
		return nil, nil
	}
	confidence := 0.3 + 0.15*float64(len(evidence))
	if confidence > 1.0 {
		confidence = 1.0
	}
	return []DetectedPattern{{
		PatternType: d.name,
		Confidence:  confidence,
		Evidence:    evidence,
		LineStart:   1,
	}}, nil
}

// builtinDetectors returns the registry's default detector set: the
// framework family, the architectural-style and design-pattern detectors
// adapted from the teacher's broader pattern detector, and one idiom
// detector per supported language, per spec.md §4.8's two detector
// families plus the architecture/design-pattern enrichment.
func builtinDetectors() []Detector {
	return []Detector{
		reactDetector{},
		httpRouteDetector{},
		databaseOperationDetector{},
		authenticationDetector{},
		architecturalStyleDetector{},
		designPatternDetector{},

		idiomDetector{
			name:     "idiom.python",
			language: ast.LangPython,
			markers: []idiomMarker{
				{"@", "Uses custom decorators"},
				{"async def", "Uses async/await"},
				{"yield", "Uses generators"},
				{"with ", "Uses context managers"},
				{" for ", "Uses comprehensions or generator expressions"},
			},
		},
		idiomDetector{
			name:     "idiom.javascript",
			language: ast.LangJavaScript,
			markers: []idiomMarker{
				{"Promise", "Uses promises"},
				{"async ", "Uses async/await"},
				{"=>", "Uses arrow functions"},
				{"...", "Uses spread/rest syntax"},
				{"const {", "Uses destructuring"},
			},
		},
		idiomDetector{
			name:     "idiom.typescript",
			language: ast.LangTypeScript,
			markers: []idiomMarker{
				{"Promise", "Uses promises"},
				{"async ", "Uses async/await"},
				{"=>", "Uses arrow functions"},
				{"interface ", "Uses interfaces"},
				{"<T>", "Uses generics"},
			},
		},
		idiomDetector{
			name:     "idiom.java",
			language: ast.LangJava,
			markers: []idiomMarker{
				{"@Override", "Uses annotations"},
				{"@Autowired", "Uses annotations"},
				{".stream()", "Uses streams"},
				{"<T>", "Uses generics"},
			},
		},
		idiomDetector{
			name:     "idiom.go",
			language: ast.LangGo,
			markers: []idiomMarker{
				{"go func(", "Uses goroutines"},
				{"chan ", "Uses channels"},
				{"defer ", "Uses defer"},
				{"select {", "Uses select statements"},
			},
		},
		idiomDetector{
			name:     "idiom.rust",
			language: ast.LangRust,
			markers: []idiomMarker{
				{"'a", "Uses explicit lifetimes"},
				{"impl ", "Uses trait implementations"},
				{"trait ", "Uses traits"},
				{"macro_rules!", "Uses macros"},
			},
		},
		idiomDetector{
			name:     "idiom.cpp",
			language: ast.LangCPP,
			markers: []idiomMarker{
				{"template<", "Uses templates"},
				{"template <", "Uses templates"},
				{"std::unique_ptr", "Uses smart pointers"},
				{"std::shared_ptr", "Uses smart pointers"},
				{"std::vector", "Uses STL containers"},
			},
		},
		idiomDetector{
			name:     "idiom.csharp",
			language: ast.LangCSharp,
			markers: []idiomMarker{
				{".Select(", "Uses LINQ"},
				{".Where(", "Uses LINQ"},
				{"async ", "Uses async/await"},
				{"=> ", "Uses auto-properties/lambdas"},
			},
		},
		idiomDetector{
			name:     "idiom.ruby",
			language: ast.LangRuby,
			markers: []idiomMarker{
				{"do |", "Uses blocks"},
				{"{ |", "Uses blocks"},
				{"define_method", "Uses metaprogramming"},
				{"attr_accessor", "Uses symbols via attr_accessor"},
			},
		},
		idiomDetector{
			name:     "idiom.php",
			language: ast.LangPHP,
			markers: []idiomMarker{
				{"namespace ", "Uses namespaces"},
				{"use ", "Uses traits/imports"},
				{"function (", "Uses closures"},
				{"trait ", "Uses traits"},
			},
		},
	}
}
