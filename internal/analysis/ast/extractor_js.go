package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractJSFamily extracts symbols shared by JavaScript, TypeScript and TSX
// grammars, whose node-type vocabulary is close enough (tree-sitter-typescript
// is a superset of tree-sitter-javascript) to walk with one function.
func extractJSFamily(root *sitter.Node, content []byte) SymbolInfo {
	var info SymbolInfo

	for i := 0; i < int(root.ChildCount()); i++ {
		collectJSScoped(root.Child(i), content, &info, "")
	}

	return info
}

// collectJSScoped records function/class declarations found under node.
// parent is the name of the nearest enclosing function or class; "" means
// node sits at true top level, so matches land in info.Functions/Classes.
// A non-empty parent means node was reached by recursing into a function
// or class body, so matches are nested definitions: recorded in
// info.NestedFunctions/NestedClasses and tagged with Parent, per spec.md's
// requirement that nested definitions are included, not dropped. Once a
// function is recorded, collectJSScoped recurses into its body with the
// function's name as the new parent; once a class is recorded,
// collectJSClassMethodBodies recurses into each method body with that
// method's name as the parent. Multiple levels of nesting are each
// captured exactly once.
func collectJSScoped(node *sitter.Node, content []byte, info *SymbolInfo, parent string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		fn := extractJSFunction(node, content, false)
		fn.Parent = parent
		addJSFunction(info, fn, parent)
		collectJSScoped(jsFunctionBody(node), content, info, fn.Name)
	case "class_declaration":
		cls := extractJSClass(node, content)
		cls.Parent = parent
		addJSClass(info, cls, parent)
		collectJSClassMethodBodies(node, content, info)
	case "import_statement":
		if parent == "" {
			if imp, ok := extractJSImport(node, content); ok {
				info.Imports = append(info.Imports, imp)
			}
		}
	case "export_statement":
		extractJSExport(node, content, info, parent)
	case "lexical_declaration", "variable_declaration":
		collectJSFunctionVariables(node, content, info, parent)
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			collectJSScoped(node.Child(i), content, info, parent)
		}
	}
}

func addJSFunction(info *SymbolInfo, fn FunctionInfo, parent string) {
	if parent == "" {
		info.Functions = append(info.Functions, fn)
	} else {
		info.NestedFunctions = append(info.NestedFunctions, fn)
	}
}

func addJSClass(info *SymbolInfo, cls ClassInfo, parent string) {
	if parent == "" {
		info.Classes = append(info.Classes, cls)
	} else {
		info.NestedClasses = append(info.NestedClasses, cls)
	}
}

// jsFunctionBody returns a function-like node's statement block, or nil for
// an expression-bodied arrow function (`x => x + 1`), which has no block to
// search for further nested definitions.
func jsFunctionBody(node *sitter.Node) *sitter.Node {
	return findChildByType(node, "statement_block")
}

// collectJSClassMethodBodies recurses into each method body of a class
// already recorded by extractJSClass, so a function nested inside a method
// is picked up as a NestedFunction parented to that method.
func collectJSClassMethodBodies(classNode *sitter.Node, content []byte, info *SymbolInfo) {
	body := findChildByType(classNode, "class_body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "method_definition" {
			continue
		}
		methodName := ""
		if nameNode := findChildByType(member, "property_identifier"); nameNode != nil {
			methodName = nodeText(nameNode, content)
		}
		collectJSScoped(jsFunctionBody(member), content, info, methodName)
	}
}

// collectJSFunctionVariables picks up `const foo = () => {}` / `function
// expression` bindings, which tree-sitter represents as variable
// declarations wrapping an arrow_function or function node.
func collectJSFunctionVariables(node *sitter.Node, content []byte, info *SymbolInfo, parent string) {
	for _, decl := range findChildrenByType(node, "variable_declarator") {
		nameNode := findChildByType(decl, "identifier")
		if nameNode == nil {
			continue
		}
		var fnNode *sitter.Node
		for i := 0; i < int(decl.ChildCount()); i++ {
			switch decl.Child(i).Type() {
			case "arrow_function", "function", "function_expression":
				fnNode = decl.Child(i)
			}
		}
		if fnNode == nil {
			continue
		}
		fn := extractJSFunction(fnNode, content, true)
		fn.Name = nodeText(nameNode, content)
		fn.StartLine = line1(node)
		fn.EndLine = endLine1(node)
		fn.Parent = parent
		addJSFunction(info, fn, parent)
		collectJSScoped(jsFunctionBody(fnNode), content, info, fn.Name)
	}
}

func extractJSFunction(node *sitter.Node, content []byte, anonymous bool) FunctionInfo {
	fn := FunctionInfo{
		StartLine: line1(node),
		EndLine:   endLine1(node),
		Docstring: precedingDocComment(node, content),
	}

	if !anonymous {
		if nameNode := findChildByType(node, "identifier"); nameNode != nil {
			fn.Name = nodeText(nameNode, content)
		}
	}

	if findChildByType(node, "async") != nil {
		fn.IsAsync = true
	}

	if paramsNode := findChildByType(node, "formal_parameters"); paramsNode != nil {
		fn.Parameters = extractJSParameterNames(paramsNode, content)
	}

	fn.Complexity = computeComplexity(node, content)

	return fn
}

func extractJSParameterNames(paramsNode *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "identifier":
			names = append(names, nodeText(child, content))
		case "required_parameter", "optional_parameter", "assignment_pattern", "rest_pattern":
			if id := findChildByType(child, "identifier"); id != nil {
				names = append(names, nodeText(id, content))
			}
		}
	}
	return names
}

func extractJSClass(node *sitter.Node, content []byte) ClassInfo {
	class := ClassInfo{
		StartLine: line1(node),
		EndLine:   endLine1(node),
		Docstring: precedingDocComment(node, content),
	}

	if nameNode := findChildByType(node, "identifier"); nameNode != nil {
		class.Name = nodeText(nameNode, content)
	}

	if heritage := findChildByType(node, "class_heritage"); heritage != nil {
		for _, id := range findChildrenByType(heritage, "identifier") {
			class.BaseNames = append(class.BaseNames, nodeText(id, content))
		}
	}

	if body := findChildByType(node, "class_body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			member := body.Child(i)
			if member.Type() != "method_definition" {
				continue
			}
			class.Methods = append(class.Methods, extractJSMethod(member, content))
		}
	}

	return class
}

func extractJSMethod(node *sitter.Node, content []byte) FunctionInfo {
	method := FunctionInfo{
		StartLine: line1(node),
		EndLine:   endLine1(node),
		Docstring: precedingDocComment(node, content),
	}

	if nameNode := findChildByType(node, "property_identifier"); nameNode != nil {
		method.Name = nodeText(nameNode, content)
	}
	if findChildByType(node, "async") != nil {
		method.IsAsync = true
	}
	if paramsNode := findChildByType(node, "formal_parameters"); paramsNode != nil {
		method.Parameters = extractJSParameterNames(paramsNode, content)
	}

	method.Complexity = computeComplexity(node, content)

	return method
}

func extractJSImport(node *sitter.Node, content []byte) (ImportInfo, bool) {
	imp := ImportInfo{Line: line1(node)}

	sourceNode := findChildByType(node, "string")
	if sourceNode == nil {
		return ImportInfo{}, false
	}
	imp.Source = strings.Trim(nodeText(sourceNode, content), `"'`)

	clause := findChildByType(node, "import_clause")
	if clause == nil {
		imp.Kind = ImportSideEffect
		return imp, true
	}

	if identifier := findChildByType(clause, "identifier"); identifier != nil {
		imp.Kind = ImportDefault
		imp.Symbols = append(imp.Symbols, nodeText(identifier, content))
		return imp, true
	}

	if namespace := findChildByType(clause, "namespace_import"); namespace != nil {
		imp.Kind = ImportNamespace
		if identifier := findChildByType(namespace, "identifier"); identifier != nil {
			imp.Symbols = append(imp.Symbols, nodeText(identifier, content))
		}
		return imp, true
	}

	if named := findChildByType(clause, "named_imports"); named != nil {
		imp.Kind = ImportNamed
		for _, spec := range findChildrenByType(named, "import_specifier") {
			if identifier := findChildByType(spec, "identifier"); identifier != nil {
				imp.Symbols = append(imp.Symbols, nodeText(identifier, content))
			}
		}
		return imp, true
	}

	imp.Kind = ImportSideEffect
	return imp, true
}

func extractJSExport(node *sitter.Node, content []byte, info *SymbolInfo, parent string) {
	line := line1(node)

	if findChildByType(node, "default") != nil {
		name := ""
		for i := 0; i < int(node.ChildCount()); i++ {
			switch node.Child(i).Type() {
			case "identifier", "function_declaration", "class_declaration":
				name = declarationName(node.Child(i), content)
			}
		}
		info.Exports = append(info.Exports, ExportInfo{Name: name, Kind: ExportDefault, Line: line})
		collectJSScoped(lastNonKeywordChild(node), content, info, parent)
		return
	}

	if clause := findChildByType(node, "export_clause"); clause != nil {
		for _, spec := range findChildrenByType(clause, "export_specifier") {
			if identifier := findChildByType(spec, "identifier"); identifier != nil {
				info.Exports = append(info.Exports, ExportInfo{Name: nodeText(identifier, content), Kind: ExportNamed, Line: line})
			}
		}
		return
	}

	if findChildByType(node, "*") != nil {
		info.Exports = append(info.Exports, ExportInfo{Kind: ExportAll, Line: line})
		return
	}

	// export function foo() {} / export class Bar {} / export const x = ...
	for i := 0; i < int(node.ChildCount()); i++ {
		decl := node.Child(i)
		switch decl.Type() {
		case "function_declaration", "class_declaration", "lexical_declaration", "variable_declaration":
			collectJSScoped(decl, content, info, parent)
			info.Exports = append(info.Exports, ExportInfo{Name: declarationName(decl, content), Kind: ExportNamed, Line: line})
		}
	}
}

func declarationName(node *sitter.Node, content []byte) string {
	if node.Type() == "identifier" {
		return nodeText(node, content)
	}
	if nameNode := findChildByType(node, "identifier"); nameNode != nil {
		return nodeText(nameNode, content)
	}
	return ""
}

func lastNonKeywordChild(node *sitter.Node) *sitter.Node {
	var last *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "export", "default", ";":
			continue
		}
		last = child
	}
	return last
}
