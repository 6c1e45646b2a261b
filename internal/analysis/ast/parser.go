// Package ast implements the AST parser facade (C6) and symbol extractor
// (C7): language detection by extension, one tree-sitter parser instance
// per supported language, and tree-walking extraction into language-neutral
// symbol tables.
package ast

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/repoanalysis/engine/internal/corerr"
)

// Supported language identifiers, matching spec.md §4.2's extension table.
const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangPython     = "python"
	LangJava       = "java"
	LangGo         = "go"
	LangRust       = "rust"
	LangRuby       = "ruby"
	LangPHP        = "php"
	LangCSharp     = "csharp"
	LangCPP        = "cpp"
)

var extensionToLanguage = map[string]string{
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTSX,
	".py":   LangPython,
	".java": LangJava,
	".go":   LangGo,
	".rs":   LangRust,
	".rb":   LangRuby,
	".php":  LangPHP,
	".cs":   LangCSharp,
	".cpp":  LangCPP,
	".cc":   LangCPP,
	".cxx":  LangCPP,
	".c":    LangCPP,
	".hpp":  LangCPP,
}

// ParseResult is the opaque-tree output of a single file parse. The tree
// remains usable even when ParseErrors is non-empty; downstream extractors
// mark their own results as partial in that case.
type ParseResult struct {
	FilePath        string
	Language        string
	Tree            *sitter.Tree
	SourceBytes     []byte
	ParseDurationMs int64
	ParseErrors     []string
}

// HasErrors reports whether the parse accumulated any errors.
func (r *ParseResult) HasErrors() bool { return len(r.ParseErrors) > 0 }

// Close releases the underlying tree-sitter tree. Callers that keep a
// ParseResult beyond the current operation must call Close when done.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// parserSlot pairs a tree-sitter parser with the mutex that serializes
// access to it, since tree-sitter parser instances are not reentrant.
type parserSlot struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// Parser is the facade over all supported language grammars: one parser
// instance per language, accessed under a per-language lock. Its embedded
// ErrorHandler accumulates parse-error statistics across every file the
// Parser sees, for diagnostic reporting on large batch runs.
type Parser struct {
	slots  map[string]*parserSlot
	Errors *ErrorHandler
}

// NewParser constructs a Parser with every supported language grammar
// loaded.
func NewParser() *Parser {
	p := &Parser{
		slots:  make(map[string]*parserSlot),
		Errors: NewErrorHandler(ErrorConfig{EnablePartialParse: true}),
	}
	p.register(LangJavaScript, javascript.GetLanguage())
	p.register(LangTypeScript, typescript.GetLanguage())
	p.register(LangTSX, tsx.GetLanguage())
	p.register(LangPython, python.GetLanguage())
	p.register(LangJava, java.GetLanguage())
	p.register(LangGo, golang.GetLanguage())
	p.register(LangRust, rust.GetLanguage())
	p.register(LangRuby, ruby.GetLanguage())
	p.register(LangPHP, php.GetLanguage())
	p.register(LangCSharp, csharp.GetLanguage())
	p.register(LangCPP, cpp.GetLanguage())
	return p
}

func (p *Parser) register(lang string, grammar *sitter.Language) {
	sp := sitter.NewParser()
	sp.SetLanguage(grammar)
	p.slots[lang] = &parserSlot{parser: sp}
}

// LanguageForPath infers the language from a file's extension.
func LanguageForPath(path string) (string, bool) {
	lang, ok := extensionToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// IsSupported reports whether path's extension maps to a known language.
func (p *Parser) IsSupported(path string) bool {
	_, ok := LanguageForPath(path)
	return ok
}

// ParseFile parses content as languageHint (or the extension-inferred
// language when languageHint is empty). Parse errors accumulate without
// aborting; the tree is returned even when partial.
func (p *Parser) ParseFile(ctx context.Context, filePath string, content []byte, languageHint string) (*ParseResult, error) {
	language := languageHint
	if language == "" {
		lang, ok := LanguageForPath(filePath)
		if !ok {
			return nil, corerr.New(corerr.Unsupported, "unsupported file extension: "+filepath.Ext(filePath))
		}
		language = lang
	}

	slot, ok := p.slots[language]
	if !ok {
		return nil, corerr.New(corerr.Unsupported, "unsupported language: "+language)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	start := time.Now()
	tree, err := slot.parser.ParseCtx(ctx, nil, content)
	p.Errors.stats.TotalFiles++
	if err != nil {
		parseErr := p.Errors.HandleParseError(err, filePath, content)
		p.Errors.stats.FailedFiles++
		return nil, corerr.Wrap(corerr.BadInput, "failed to parse "+filePath, errors.New(parseErr.Message))
	}

	result := &ParseResult{
		FilePath:        filePath,
		Language:        language,
		Tree:            tree,
		SourceBytes:     content,
		ParseDurationMs: time.Since(start).Milliseconds(),
	}

	if tree.RootNode().HasError() {
		parseErr := p.Errors.HandleParseError(errSyntax, filePath, content)
		result.ParseErrors = append(result.ParseErrors, parseErr.Message)
		p.Errors.stats.PartialFiles++
	} else {
		p.Errors.stats.SuccessfulFiles++
	}

	return result, nil
}

// errSyntax is a sentinel used to route tree-sitter's own HasError() signal
// through the same classification path as parser-level errors.
var errSyntax = errors.New("syntax errors detected in parsed tree")

// Close releases every language parser.
func (p *Parser) Close() {
	for _, slot := range p.slots {
		slot.mu.Lock()
		slot.parser.Close()
		slot.mu.Unlock()
	}
}
