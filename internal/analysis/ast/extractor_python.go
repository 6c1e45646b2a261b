package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractPython walks a Python module, recording functions, classes and
// imports. Docstrings are taken from the first statement of a body when it
// is a bare string-literal expression, and decorators are read off the
// `decorated_definition` wrapper tree-sitter-python produces.
func extractPython(root *sitter.Node, content []byte) SymbolInfo {
	var info SymbolInfo

	for i := 0; i < int(root.ChildCount()); i++ {
		collectPythonScoped(root.Child(i), content, &info, nil, "")
	}

	return info
}

// collectPythonScoped records function/class definitions found under node.
// parent is the name of the nearest enclosing function or class; ""
// means node sits at true top level, so matches land in
// info.Functions/Classes. A non-empty parent means node was reached by
// recursing into a function body, so matches are nested definitions:
// recorded in info.NestedFunctions/NestedClasses and tagged with Parent,
// per spec.md's requirement that nested definitions are included, not
// dropped. A matched function recurses into its own block with its name
// as the new parent, so a def nested inside a def nested inside a def is
// still captured exactly once per level.
func collectPythonScoped(node *sitter.Node, content []byte, info *SymbolInfo, decorators []string, parent string) {
	switch node.Type() {
	case "decorated_definition":
		var decos []string
		var defNode *sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "decorator" {
				decos = append(decos, strings.TrimPrefix(strings.TrimSpace(nodeText(child, content)), "@"))
			} else if child.Type() == "function_definition" || child.Type() == "class_definition" {
				defNode = child
			}
		}
		if defNode != nil {
			collectPythonScoped(defNode, content, info, decos, parent)
		}
	case "function_definition":
		fn := extractPythonFunction(node, content, decorators)
		fn.Parent = parent
		if parent == "" {
			info.Functions = append(info.Functions, fn)
		} else {
			info.NestedFunctions = append(info.NestedFunctions, fn)
		}
		if body := findChildByType(node, "block"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				collectPythonScoped(body.Child(i), content, info, nil, fn.Name)
			}
		}
	case "class_definition":
		cls := extractPythonClass(node, content)
		cls.Parent = parent
		if parent == "" {
			info.Classes = append(info.Classes, cls)
		} else {
			info.NestedClasses = append(info.NestedClasses, cls)
		}
		collectPythonMethodBodies(node, content, info)
	case "import_statement":
		if parent == "" {
			info.Imports = append(info.Imports, extractPythonImport(node, content)...)
		}
	case "import_from_statement":
		if parent == "" {
			info.Imports = append(info.Imports, extractPythonImportFrom(node, content)...)
		}
	case "if_statement", "try_statement", "with_statement", "for_statement", "while_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child.Type() == "block" {
				for j := 0; j < int(child.ChildCount()); j++ {
					collectPythonScoped(child.Child(j), content, info, nil, parent)
				}
			}
		}
	}
}

// collectPythonMethodBodies recurses into each method body of a class
// already recorded by extractPythonClass, so a def nested inside a method
// is picked up as a NestedFunction parented to that method.
func collectPythonMethodBodies(classNode *sitter.Node, content []byte, info *SymbolInfo) {
	body := findChildByType(classNode, "block")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		defNode := child
		methodName := ""
		switch child.Type() {
		case "function_definition":
			if nameNode := findChildByType(child, "identifier"); nameNode != nil {
				methodName = nodeText(nameNode, content)
			}
		case "decorated_definition":
			for j := 0; j < int(child.ChildCount()); j++ {
				if inner := child.Child(j); inner.Type() == "function_definition" {
					defNode = inner
					if nameNode := findChildByType(inner, "identifier"); nameNode != nil {
						methodName = nodeText(nameNode, content)
					}
				}
			}
		default:
			continue
		}
		if methodName == "" {
			continue
		}
		if methodBody := findChildByType(defNode, "block"); methodBody != nil {
			for j := 0; j < int(methodBody.ChildCount()); j++ {
				collectPythonScoped(methodBody.Child(j), content, info, nil, methodName)
			}
		}
	}
}

func extractPythonFunction(node *sitter.Node, content []byte, decorators []string) FunctionInfo {
	fn := FunctionInfo{
		StartLine:  line1(node),
		EndLine:    endLine1(node),
		Decorators: decorators,
	}

	if nameNode := findChildByType(node, "identifier"); nameNode != nil {
		fn.Name = nodeText(nameNode, content)
	}

	for _, deco := range decorators {
		if deco == "asyncio.coroutine" {
			fn.IsAsync = true
		}
	}
	if prefix := nodeText(node, content); strings.HasPrefix(strings.TrimSpace(prefix), "async ") {
		fn.IsAsync = true
	}

	if paramsNode := findChildByType(node, "parameters"); paramsNode != nil {
		fn.Parameters = extractPythonParameterNames(paramsNode, content)
	}

	if body := findChildByType(node, "block"); body != nil {
		fn.Docstring = firstStatementDocstring(body, content)
	}

	fn.Complexity = computeComplexity(node, content)

	return fn
}

func extractPythonParameterNames(paramsNode *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "identifier":
			names = append(names, nodeText(child, content))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if id := findChildByType(child, "identifier"); id != nil {
				names = append(names, nodeText(id, content))
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if id := findChildByType(child, "identifier"); id != nil {
				names = append(names, "*"+nodeText(id, content))
			}
		}
	}
	return names
}

func extractPythonClass(node *sitter.Node, content []byte) ClassInfo {
	class := ClassInfo{
		StartLine: line1(node),
		EndLine:   endLine1(node),
	}

	if nameNode := findChildByType(node, "identifier"); nameNode != nil {
		class.Name = nodeText(nameNode, content)
	}

	if argList := findChildByType(node, "argument_list"); argList != nil {
		for i := 0; i < int(argList.ChildCount()); i++ {
			if child := argList.Child(i); child.Type() == "identifier" {
				class.BaseNames = append(class.BaseNames, nodeText(child, content))
			}
		}
	}

	body := findChildByType(node, "block")
	if body == nil {
		return class
	}
	class.Docstring = firstStatementDocstring(body, content)

	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "function_definition":
			class.Methods = append(class.Methods, extractPythonFunction(child, content, nil))
		case "decorated_definition":
			var decos []string
			var defNode *sitter.Node
			for j := 0; j < int(child.ChildCount()); j++ {
				inner := child.Child(j)
				if inner.Type() == "decorator" {
					decos = append(decos, strings.TrimPrefix(strings.TrimSpace(nodeText(inner, content)), "@"))
				} else if inner.Type() == "function_definition" {
					defNode = inner
				}
			}
			if defNode != nil {
				class.Methods = append(class.Methods, extractPythonFunction(defNode, content, decos))
			}
		}
	}

	return class
}

// firstStatementDocstring returns the string literal value of body's first
// statement when that statement is a bare string expression, per Python's
// docstring convention.
func firstStatementDocstring(body *sitter.Node, content []byte) string {
	if body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" {
		return ""
	}
	str := findChildByType(first, "string")
	if str == nil {
		return ""
	}
	return strings.Trim(nodeText(str, content), "\"'")
}

func extractPythonImport(node *sitter.Node, content []byte) []ImportInfo {
	var imports []ImportInfo
	line := line1(node)
	for _, name := range findChildrenByType(node, "dotted_name") {
		imports = append(imports, ImportInfo{Source: nodeText(name, content), Kind: ImportNamespace, Line: line})
	}
	for _, aliased := range findChildrenByType(node, "aliased_import") {
		if name := findChildByType(aliased, "dotted_name"); name != nil {
			imports = append(imports, ImportInfo{Source: nodeText(name, content), Kind: ImportNamespace, Line: line})
		}
	}
	return imports
}

func extractPythonImportFrom(node *sitter.Node, content []byte) []ImportInfo {
	line := line1(node)
	source := ""
	if name := findChildByType(node, "dotted_name"); name != nil {
		source = nodeText(name, content)
	} else if rel := findChildByType(node, "relative_import"); rel != nil {
		source = nodeText(rel, content)
	}

	if findChildByType(node, "wildcard_import") != nil {
		return []ImportInfo{{Source: source, Kind: ImportNamespace, Line: line}}
	}

	var symbols []string
	names := findChildrenByType(node, "dotted_name")
	for i, n := range names {
		if i == 0 && source != "" {
			continue // first dotted_name is the module source itself
		}
		symbols = append(symbols, nodeText(n, content))
	}
	for _, aliased := range findChildrenByType(node, "aliased_import") {
		if name := findChildByType(aliased, "identifier"); name != nil {
			symbols = append(symbols, nodeText(name, content))
		}
	}

	if len(symbols) == 0 {
		return []ImportInfo{{Source: source, Kind: ImportNamespace, Line: line}}
	}
	return []ImportInfo{{Source: source, Symbols: symbols, Kind: ImportNamed, Line: line}}
}
