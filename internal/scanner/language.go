package scanner

import "path/filepath"

const (
	langJavaScript = "JavaScript"
	langTypeScript = "TypeScript"
	langPython     = "Python"
	langJava       = "Java"
	langGo         = "Go"
	langRust       = "Rust"
	langRuby       = "Ruby"
	langPHP        = "PHP"
	langCSharp     = "C#"
	langCPP        = "C++"
)

var extensionLanguage = map[string]string{
	".js":   langJavaScript,
	".jsx":  langJavaScript,
	".ts":   langTypeScript,
	".tsx":  langTypeScript,
	".py":   langPython,
	".java": langJava,
	".go":   langGo,
	".rs":   langRust,
	".rb":   langRuby,
	".php":  langPHP,
	".cs":   langCSharp,
	".cpp":  langCPP,
	".c":    langCPP,
	".cc":   langCPP,
	".cxx":  langCPP,
	".hpp":  langCPP,
}

// classify returns the language name for a file path's extension and
// whether the extension is recognized at all.
func classify(path string) (string, bool) {
	ext := filepath.Ext(path)
	lang, ok := extensionLanguage[ext]
	return lang, ok
}

var ignoreDirNames = map[string]bool{
	"node_modules":   true,
	".git":           true,
	"dist":           true,
	"build":          true,
	".next":          true,
	"__pycache__":    true,
	"venv":           true,
	"env":            true,
	".venv":          true,
	"target":         true,
	"out":            true,
	"coverage":       true,
	".pytest_cache":  true,
}
