package detectors

import (
	"strings"

	"github.com/repoanalysis/engine/internal/analysis/ast"
)

// reactDetector flags React components via JSX nodes and hook-shaped
// function names, grounded on the teacher's substring-based React
// detection (detectReact/getReactEvidence in its original pattern
// detector), adapted to the Detector capability set.
type reactDetector struct{}

func (reactDetector) Name() string                   { return "framework.react" }
func (reactDetector) ApplicableLanguages() []string   { return []string{ast.LangJavaScript, ast.LangTypeScript, ast.LangTSX} }

func (reactDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)

	var evidence []string
	var hookCount int
	if strings.Contains(content, "</") && strings.Contains(content, "<") {
		evidence = append(evidence, "Contains JSX-shaped markup")
	}
	for _, fn := range symbols.Functions {
		if strings.HasPrefix(fn.Name, "use") && len(fn.Name) > 3 && strings.ToUpper(fn.Name[3:4]) == fn.Name[3:4] {
			hookCount++
		}
	}
	if hookCount > 0 {
		evidence = append(evidence, "Defines hook-shaped functions (useXxx)")
	}
	if strings.Contains(content, "useState") || strings.Contains(content, "useEffect") {
		evidence = append(evidence, "Calls built-in React hooks")
	}

	if len(evidence) == 0 {
		return nil, nil
	}

	confidence := 0.4 + 0.2*float64(len(evidence))
	if confidence > 1.0 {
		confidence = 1.0
	}

	return []DetectedPattern{{
		PatternType: "framework.react",
		Confidence:  confidence,
		Evidence:    evidence,
		LineStart:   1,
		Metadata:    map[string]interface{}{"hook_count": hookCount},
	}}, nil
}

// httpRouteDetector flags HTTP route declarations via common
// path-decorator/annotation/handler call shapes across languages.
type httpRouteDetector struct{}

func (httpRouteDetector) Name() string                 { return "framework.http_routes" }
func (httpRouteDetector) ApplicableLanguages() []string { return nil }

var routeMarkers = []string{
	"app.get(", "app.post(", "app.put(", "app.delete(", "router.", // JS/Express
	"@app.route", "@router.get", "@router.post", // Python/FastAPI
	"@GetMapping", "@PostMapping", "@RequestMapping", // Java/Spring
	"http.HandleFunc", "mux.HandleFunc", // Go
}

func (httpRouteDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)
	var evidence []string
	count := 0
	for _, marker := range routeMarkers {
		if strings.Contains(content, marker) {
			evidence = append(evidence, "Uses route-handler shape '"+marker+"'")
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	confidence := 0.5 + 0.1*float64(count)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return []DetectedPattern{{
		PatternType: "framework.http_routes",
		Confidence:  confidence,
		Evidence:    evidence,
		LineStart:   1,
		Metadata:    map[string]interface{}{"route_marker_count": count},
	}}, nil
}

// databaseOperationDetector flags ORM/query call idioms.
type databaseOperationDetector struct{}

func (databaseOperationDetector) Name() string                 { return "framework.database_operations" }
func (databaseOperationDetector) ApplicableLanguages() []string { return nil }

var dbMarkers = []string{
	"SELECT ", "INSERT INTO", "UPDATE ", "DELETE FROM",
	".query(", ".find(", ".findOne(", ".save(", ".exec(",
	"db.session", "Model.objects", "ActiveRecord",
}

func (databaseOperationDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)
	var evidence []string
	count := 0
	for _, marker := range dbMarkers {
		if strings.Contains(content, marker) {
			evidence = append(evidence, "Uses database-operation shape '"+strings.TrimSpace(marker)+"'")
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	confidence := 0.4 + 0.15*float64(count)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return []DetectedPattern{{
		PatternType: "framework.database_operations",
		Confidence:  confidence,
		Evidence:    evidence,
		LineStart:   1,
		Metadata:    map[string]interface{}{"marker_count": count},
	}}, nil
}

// authenticationDetector flags token/session/credential idioms.
type authenticationDetector struct{}

func (authenticationDetector) Name() string                 { return "framework.authentication" }
func (authenticationDetector) ApplicableLanguages() []string { return nil }

var authMarkers = []string{
	"jwt.sign", "jwt.verify", "passport.authenticate",
	"req.session", "bcrypt.compare", "bcrypt.hash",
	"OAuth", "Authorization: Bearer", "@login_required",
	"@PreAuthorize", "context.User",
}

func (authenticationDetector) Detect(filePath string, source []byte, symbols ast.SymbolInfo) ([]DetectedPattern, error) {
	content := string(source)
	var evidence []string
	count := 0
	for _, marker := range authMarkers {
		if strings.Contains(content, marker) {
			evidence = append(evidence, "Uses auth idiom '"+marker+"'")
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	confidence := 0.45 + 0.15*float64(count)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return []DetectedPattern{{
		PatternType: "framework.authentication",
		Confidence:  confidence,
		Evidence:    evidence,
		LineStart:   1,
		Metadata:    map[string]interface{}{"marker_count": count},
	}}, nil
}
