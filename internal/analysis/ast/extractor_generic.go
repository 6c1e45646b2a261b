package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// genericNodeTypes maps a language to the node-type names its grammar uses
// for function-like and class-like declarations. Parameter/name extraction
// falls back to scanning for the first identifier/parameter-list child,
// which holds across these grammars for the common declaration shapes.
var genericNodeTypes = map[string]struct {
	functions []string
	classes   []string
	params    string
	name      string
}{
	LangJava: {
		functions: []string{"method_declaration", "constructor_declaration"},
		classes:   []string{"class_declaration", "interface_declaration", "enum_declaration"},
		params:    "formal_parameters",
		name:      "identifier",
	},
	LangGo: {
		functions: []string{"function_declaration", "method_declaration"},
		classes:   []string{"type_declaration"},
		params:    "parameter_list",
		name:      "identifier",
	},
	LangRust: {
		functions: []string{"function_item"},
		classes:   []string{"struct_item", "enum_item", "impl_item", "trait_item"},
		params:    "parameters",
		name:      "identifier",
	},
	LangRuby: {
		functions: []string{"method", "singleton_method"},
		classes:   []string{"class", "module"},
		params:    "method_parameters",
		name:      "identifier",
	},
	LangPHP: {
		functions: []string{"function_definition", "method_declaration"},
		classes:   []string{"class_declaration", "interface_declaration"},
		params:    "formal_parameters",
		name:      "name",
	},
	LangCSharp: {
		functions: []string{"method_declaration", "constructor_declaration"},
		classes:   []string{"class_declaration", "interface_declaration", "struct_declaration"},
		params:    "parameter_list",
		name:      "identifier",
	},
	LangCPP: {
		functions: []string{"function_definition"},
		classes:   []string{"class_specifier", "struct_specifier"},
		params:    "parameter_list",
		name:      "identifier",
	},
}

// extractGeneric walks languages that share a recognizably similar
// function/class declaration shape, using a per-language node-type table
// rather than one bespoke walker per grammar.
func extractGeneric(language string, root *sitter.Node, content []byte) SymbolInfo {
	table, ok := genericNodeTypes[language]
	if !ok {
		return SymbolInfo{}
	}

	var info SymbolInfo
	walk(root, func(node *sitter.Node) bool {
		t := node.Type()
		for _, ft := range table.functions {
			if t == ft {
				info.Functions = append(info.Functions, extractGenericFunction(node, content, table.name, table.params))
				return false
			}
		}
		for _, ct := range table.classes {
			if t == ct {
				info.Classes = append(info.Classes, extractGenericClass(node, content, table))
				return false
			}
		}
		return true
	})

	return info
}

func extractGenericFunction(node *sitter.Node, content []byte, nameType, paramsType string) FunctionInfo {
	fn := FunctionInfo{
		StartLine: line1(node),
		EndLine:   endLine1(node),
		Docstring: precedingDocComment(node, content),
	}

	if nameNode := findChildByType(node, nameType); nameNode != nil {
		fn.Name = nodeText(nameNode, content)
	}
	if paramsNode := findChildByType(node, paramsType); paramsNode != nil {
		fn.Parameters = extractGenericParameterNames(paramsNode, content)
	}

	fn.Complexity = computeComplexity(node, content)

	return fn
}

func extractGenericClass(node *sitter.Node, content []byte, table struct {
	functions []string
	classes   []string
	params    string
	name      string
}) ClassInfo {
	class := ClassInfo{
		StartLine: line1(node),
		EndLine:   endLine1(node),
		Docstring: precedingDocComment(node, content),
	}

	if nameNode := findChildByType(node, table.name); nameNode != nil {
		class.Name = nodeText(nameNode, content)
	}

	body := findChildByType(node, "class_body")
	if body == nil {
		body = findChildByType(node, "field_declaration_list")
	}
	if body == nil {
		body = findChildByType(node, "declaration_list")
	}
	if body == nil {
		return class
	}

	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		for _, ft := range table.functions {
			if member.Type() == ft {
				class.Methods = append(class.Methods, extractGenericFunction(member, content, table.name, table.params))
			}
		}
	}

	return class
}

func extractGenericParameterNames(paramsNode *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "identifier":
			names = append(names, nodeText(child, content))
		default:
			if id := findChildByType(child, "identifier"); id != nil {
				names = append(names, nodeText(id, content))
			}
		}
	}
	return names
}
