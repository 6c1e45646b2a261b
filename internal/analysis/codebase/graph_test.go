package codebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/analysis/ast"
	"github.com/repoanalysis/engine/internal/analysis/file"
)

func TestResolveImport_RelativeImportResolvesWithinKnownSet(t *testing.T) {
	known := map[string]bool{"src/utils.ts": true}
	resolved, ok := resolveImport("src/main.ts", "./utils", known)
	require.True(t, ok)
	assert.Equal(t, "src/utils.ts", resolved)
}

func TestResolveImport_IndexFileResolution(t *testing.T) {
	known := map[string]bool{"src/widgets/index.js": true}
	resolved, ok := resolveImport("src/main.js", "./widgets", known)
	require.True(t, ok)
	assert.Equal(t, "src/widgets/index.js", resolved)
}

func TestResolveImport_BarePackageSpecifierIsExternal(t *testing.T) {
	_, ok := resolveImport("src/main.ts", "react", map[string]bool{})
	assert.False(t, ok)
}

func TestResolveImport_UnresolvableRelativeImportIsExternal(t *testing.T) {
	_, ok := resolveImport("src/main.ts", "./missing", map[string]bool{})
	assert.False(t, ok)
}

func TestBuildGraph_DetectsTwoFileCycle(t *testing.T) {
	analyses := map[string]*file.Analysis{
		"a.ts": {
			FilePath: "a.ts",
			Language: "typescript",
			Symbols:  ast.SymbolInfo{Imports: []ast.ImportInfo{{Source: "./b"}}},
		},
		"b.ts": {
			FilePath: "b.ts",
			Language: "typescript",
			Symbols:  ast.SymbolInfo{Imports: []ast.ImportInfo{{Source: "./a"}}},
		},
	}

	graph := buildGraph(analyses)
	require.Len(t, graph.CircularDependencies, 1)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, graph.CircularDependencies[0])
	assert.Empty(t, graph.ExternalDependencies)
}

func TestBuildGraph_AcyclicGraphHasNoCycles(t *testing.T) {
	analyses := map[string]*file.Analysis{
		"a.ts": {
			FilePath: "a.ts",
			Symbols:  ast.SymbolInfo{Imports: []ast.ImportInfo{{Source: "./b"}}},
		},
		"b.ts": {FilePath: "b.ts"},
	}

	graph := buildGraph(analyses)
	assert.Empty(t, graph.CircularDependencies)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "a.ts", graph.Edges[0].From)
	assert.Equal(t, "b.ts", graph.Edges[0].To)

	assert.Equal(t, 0, graph.Nodes["a.ts"].Depth, "a.ts is the root, nothing imports it")
	assert.Equal(t, 1, graph.Nodes["b.ts"].Depth, "b.ts is one import hop from the root")
	assert.Equal(t, 0.5, graph.Nodes["a.ts"].Weight, "a.ts has out-degree 1, in-degree 0")
	assert.Equal(t, 0.5, graph.Nodes["b.ts"].Weight, "b.ts has in-degree 1, out-degree 0")
}

func TestBuildGraph_SelfLoopIsACycle(t *testing.T) {
	analyses := map[string]*file.Analysis{
		"a.ts": {
			FilePath: "a.ts",
			Symbols:  ast.SymbolInfo{Imports: []ast.ImportInfo{{Source: "./a"}}},
		},
	}

	graph := buildGraph(analyses)
	require.Len(t, graph.CircularDependencies, 1)
	assert.Equal(t, []string{"a.ts"}, graph.CircularDependencies[0])
}

func TestBuildGraph_UnresolvedImportBecomesExternal(t *testing.T) {
	analyses := map[string]*file.Analysis{
		"a.ts": {
			FilePath: "a.ts",
			Symbols:  ast.SymbolInfo{Imports: []ast.ImportInfo{{Source: "lodash"}}},
		},
	}

	graph := buildGraph(analyses)
	assert.Empty(t, graph.Edges)
	assert.Equal(t, []string{"lodash"}, graph.ExternalDependencies)
}

func TestDetectCycles_NodesWithoutEdgesIsEmpty(t *testing.T) {
	nodes := map[string]GraphNode{"a.go": {Path: "a.go"}}
	cycles := detectCycles(nodes, map[string][]string{})
	assert.Empty(t, cycles)
}
