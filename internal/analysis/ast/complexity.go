package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// branchNodeTypes are node types that introduce a new decision point,
// shared loosely across the grammars this package supports (tree-sitter
// grammars name branching constructs consistently enough to share one set).
var branchNodeTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"else_clause":            true,
	"case_clause":            true,
	"switch_case":            true,
	"match_arm":              true,
	"for_statement":          true,
	"for_in_statement":       true,
	"for_each_statement":     true,
	"while_statement":        true,
	"do_statement":           true,
	"catch_clause":           true,
	"except_clause":          true,
	"rescue":                 true,
	"conditional_expression": true,
	"ternary_expression":     true,
}

// nestingNodeTypes are block/body containers whose entry increases the
// current nesting level for cognitive-complexity weighting.
var nestingNodeTypes = map[string]bool{
	"block":              true,
	"statement_block":    true,
	"compound_statement": true,
	"suite":              true,
	"else_clause":        true,
}

var logicalOperators = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true,
}

// computeComplexity walks node (the subtree for a single function or
// method) and derives the measures spec.md §4.7 names. Branching constructs
// add to both cyclomatic and cognitive complexity; cognitive complexity
// additionally weights each hit by its nesting depth.
func computeComplexity(node *sitter.Node, content []byte) ComplexityMetrics {
	m := ComplexityMetrics{Cyclomatic: 1}
	walkComplexity(node, content, 0, &m)
	m.LinesOfCode = countSourceLines(node, content)
	return m
}

func walkComplexity(node *sitter.Node, content []byte, depth int, m *ComplexityMetrics) {
	if node == nil {
		return
	}

	nextDepth := depth
	if branchNodeTypes[node.Type()] {
		m.Cyclomatic++
		m.Cognitive += 1 + depth
	}
	if nestingNodeTypes[node.Type()] {
		nextDepth = depth + 1
		if nextDepth > m.NestingDepth {
			m.NestingDepth = nextDepth
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if logicalOperators[strings.TrimSpace(nodeText(child, content))] && isOperatorToken(child) {
			m.Cyclomatic++
			m.Cognitive++
		}
		walkComplexity(child, content, nextDepth, m)
	}
}

// isOperatorToken reports whether node is a leaf token, distinguishing a
// bare `&&`/`and` operator node from a larger expression that merely
// contains that text.
func isOperatorToken(node *sitter.Node) bool {
	return node.ChildCount() == 0
}

func countSourceLines(node *sitter.Node, content []byte) int {
	text := nodeText(node, content)
	count := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") {
			continue
		}
		count++
	}
	return count
}
