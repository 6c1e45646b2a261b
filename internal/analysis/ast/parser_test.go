package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/corerr"
)

func TestNewParser_RegistersEverySupportedLanguage(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	for _, lang := range []string{
		LangJavaScript, LangTypeScript, LangTSX, LangPython, LangJava,
		LangGo, LangRust, LangRuby, LangPHP, LangCSharp, LangCPP,
	} {
		_, ok := parser.slots[lang]
		assert.True(t, ok, "expected a parser slot for %s", lang)
	}
}

func TestLanguageForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
		ok       bool
	}{
		{"test.js", LangJavaScript, true},
		{"test.jsx", LangJavaScript, true},
		{"test.ts", LangTypeScript, true},
		{"test.tsx", LangTSX, true},
		{"test.py", LangPython, true},
		{"Main.java", LangJava, true},
		{"main.go", LangGo, true},
		{"lib.rs", LangRust, true},
		{"thing.rb", LangRuby, true},
		{"index.php", LangPHP, true},
		{"Program.cs", LangCSharp, true},
		{"engine.cpp", LangCPP, true},
		{"README.md", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			lang, ok := LanguageForPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, lang)
		})
	}
}

func TestParser_IsSupported(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	assert.True(t, parser.IsSupported("test.ts"))
	assert.False(t, parser.IsSupported("test.txt"))
}

func TestParser_ParseFile_JavaScript(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	jsCode := `
function greet(name) {
    return "Hello, " + name;
}

const add = (a, b) => a + b;

class Calculator {
    constructor() {
        this.value = 0;
    }

    add(x) {
        this.value += x;
        return this;
    }
}

export { greet, Calculator };
export default add;
`

	result, err := parser.ParseFile(context.Background(), "test.js", []byte(jsCode), "")
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()

	assert.Equal(t, "test.js", result.FilePath)
	assert.Equal(t, LangJavaScript, result.Language)
	assert.False(t, result.HasErrors())
	assert.Greater(t, result.ParseDurationMs, int64(-1))
}

func TestParser_ParseFile_Python(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseFile(context.Background(), "test.py", []byte("def greet(name):\n    return name\n"), "")
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()

	assert.Equal(t, LangPython, result.Language)
	assert.False(t, result.HasErrors())
}

func TestParser_ParseFile_FlagsSyntaxErrors(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	malformed := `
function incomplete( {
    return "missing closing brace"
`

	result, err := parser.ParseFile(context.Background(), "malformed.js", []byte(malformed), "")
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()

	assert.True(t, result.HasErrors())
}

func TestParser_ParseFile_UnsupportedExtension(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseFile(context.Background(), "test.unknownlang", []byte("whatever"), "")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, corerr.Is(err, corerr.Unsupported))
}

func TestParser_ParseFile_RespectsLanguageHintOverExtension(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseFile(context.Background(), "weird.ext", []byte("package main\n"), LangGo)
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()

	assert.Equal(t, LangGo, result.Language)
}
