package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Extract walks result.Tree and produces language-neutral SymbolInfo. The
// extraction strategy is dispatched by language: JavaScript/TypeScript/TSX
// get full-fidelity extraction, Python gets docstring-aware extraction, and
// the remaining supported languages share a generic node-type-table walker.
func Extract(result *ParseResult) SymbolInfo {
	root := result.Tree.RootNode()
	content := result.SourceBytes

	switch result.Language {
	case LangJavaScript, LangTypeScript, LangTSX:
		return extractJSFamily(root, content)
	case LangPython:
		return extractPython(root, content)
	default:
		return extractGeneric(result.Language, root, content)
	}
}

// Shared tree-sitter helpers used by every language-specific extractor.

func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}

func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var found []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == nodeType {
			found = append(found, child)
		}
	}
	return found
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

func line1(node *sitter.Node) int { return int(node.StartPoint().Row) + 1 }
func endLine1(node *sitter.Node) int { return int(node.EndPoint().Row) + 1 }

// walk calls visit for every node in the tree, depth-first. visit reports
// whether walk should descend into that node's children; returning false
// lets a caller that has already consumed a subtree (e.g. a class body
// scanned separately for its members) stop walk from visiting it again.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visit)
	}
}

// precedingDocComment returns the text of a `comment` node immediately
// preceding node among its siblings, or "" if none exists.
func precedingDocComment(node *sitter.Node, content []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	var prev *sitter.Node
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(i)
		if child == node {
			break
		}
		prev = child
	}
	if prev != nil && prev.Type() == "comment" {
		return nodeText(prev, content)
	}
	return ""
}

func isExported(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && (parent.Type() == "export_statement" || parent.Type() == "export_declaration")
}
