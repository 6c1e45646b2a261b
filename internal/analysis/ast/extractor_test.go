package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAndExtract(t *testing.T, parser *Parser, filePath, lang string, src string) SymbolInfo {
	t.Helper()
	result, err := parser.ParseFile(context.Background(), filePath, []byte(src), lang)
	require.NoError(t, err)
	defer result.Close()
	return Extract(result)
}

func TestExtract_JavaScript_FunctionsAndClasses(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	code := `
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
`

	info := parseAndExtract(t, parser, "test.js", LangJavaScript, code)

	greet := findFunction(info.Functions, "greet")
	require.NotNil(t, greet)
	assert.Equal(t, []string{"name"}, greet.Parameters)
	assert.False(t, greet.IsAsync)

	add := findFunction(info.Functions, "add")
	require.NotNil(t, add)
	assert.Equal(t, []string{"a", "b"}, add.Parameters)

	require.Len(t, info.Classes, 1)
	calc := info.Classes[0]
	assert.Equal(t, "Calculator", calc.Name)
	assert.Len(t, calc.Methods, 2)
}

func TestExtract_JavaScript_Imports(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	cases := []struct {
		name     string
		code     string
		wantKind ImportKind
		wantSrc  string
		symbol   string
	}{
		{"named", `import { useState, useEffect } from 'react';`, ImportNamed, "react", "useState"},
		{"default", `import React from 'react';`, ImportDefault, "react", "React"},
		{"namespace", `import * as fs from 'fs';`, ImportNamespace, "fs", "fs"},
		{"side-effect", `import './polyfill.js';`, ImportSideEffect, "./polyfill.js", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := parseAndExtract(t, parser, "test.js", LangJavaScript, tc.code)
			require.Len(t, info.Imports, 1)
			imp := info.Imports[0]
			assert.Equal(t, tc.wantSrc, imp.Source)
			assert.Equal(t, tc.wantKind, imp.Kind)
			if tc.symbol != "" {
				assert.Contains(t, imp.Symbols, tc.symbol)
			}
		})
	}
}

func TestExtract_JavaScript_Exports(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	info := parseAndExtract(t, parser, "test.js", LangJavaScript, `
function add(a, b) { return a + b; }
export { add };
export default add;
`)

	var kinds []ExportKind
	for _, e := range info.Exports {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, ExportNamed)
	assert.Contains(t, kinds, ExportDefault)
}

func TestExtract_TypeScript_AsyncFunction(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	info := parseAndExtract(t, parser, "test.ts", LangTypeScript, `
async function fetchUser(id: number): Promise<User> {
    return null;
}
`)

	fn := findFunction(info.Functions, "fetchUser")
	require.NotNil(t, fn)
	assert.True(t, fn.IsAsync)
	assert.Equal(t, []string{"id"}, fn.Parameters)
}

func TestExtract_Python_DocstringsAndDecorators(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	code := `
import os
from typing import List

class Greeter:
    """Greets people."""

    def __init__(self, name):
        self.name = name

    @staticmethod
    def shout(text):
        """Shout text."""
        return text.upper()


def greet(name):
    """Return a greeting."""
    return "Hello, " + name
`

	info := parseAndExtract(t, parser, "test.py", LangPython, code)

	greet := findFunction(info.Functions, "greet")
	require.NotNil(t, greet)
	assert.Equal(t, "Return a greeting.", greet.Docstring)
	assert.Equal(t, []string{"name"}, greet.Parameters)

	require.Len(t, info.Classes, 1)
	class := info.Classes[0]
	assert.Equal(t, "Greeter", class.Name)
	assert.Equal(t, "Greets people.", class.Docstring)
	require.Len(t, class.Methods, 2)

	shout := findFunction(class.Methods, "shout")
	require.NotNil(t, shout)
	assert.Contains(t, shout.Decorators, "staticmethod")
	assert.Equal(t, "Shout text.", shout.Docstring)

	require.Len(t, info.Imports, 2)
}

func TestExtract_Go_FunctionsAndTypes(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	info := parseAndExtract(t, parser, "main.go", LangGo, `
package main

func Add(a int, b int) int {
	return a + b
}
`)

	fn := findFunction(info.Functions, "Add")
	require.NotNil(t, fn)
	assert.Len(t, fn.Parameters, 2)
}

func TestExtract_Java_ClassAndMethod(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	info := parseAndExtract(t, parser, "Greeter.java", LangJava, `
public class Greeter {
    public String greet(String name) {
        return "Hello, " + name;
    }
}
`)

	require.Len(t, info.Classes, 1)
	assert.Equal(t, "Greeter", info.Classes[0].Name)
	require.Len(t, info.Classes[0].Methods, 1)
	assert.Equal(t, "greet", info.Classes[0].Methods[0].Name)

	// A method recorded under Classes[0].Methods must not also surface as a
	// top-level function - it belongs to the class, not to info.Functions.
	assert.Empty(t, info.Functions)
}

func TestExtract_Java_MultiMethodClassDoesNotDoubleCountFunctions(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	info := parseAndExtract(t, parser, "Box.java", LangJava, `
public class Box {
    public int get() { return 0; }
    public void set(int v) {}
    public void clear() {}
}
`)

	require.Len(t, info.Classes, 1)
	assert.Len(t, info.Classes[0].Methods, 3)
	assert.Empty(t, info.Functions)
}

func findFunction(functions []FunctionInfo, name string) *FunctionInfo {
	for i := range functions {
		if functions[i].Name == name {
			return &functions[i]
		}
	}
	return nil
}
