package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

var phpBranchKinds = map[string]bool{
	"if_statement":           true,
	"else_if_clause":         true,
	"for_statement":          true,
	"foreach_statement":      true,
	"while_statement":        true,
	"do_statement":           true,
	"case_statement":         true,
	"catch_clause":           true,
	"conditional_expression": true,
}

func isPHPComment(line string) bool {
	return isSlashComment(line) || strings.HasPrefix(line, "#")
}

// phpExtractor extracts structure from PHP sources.
type phpExtractor struct {
	*treeSitterExtractor
}

// NewPHPExtractor creates a new PHP structure extractor.
func NewPHPExtractor() Extractor {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &phpExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "php", ".php"),
	}
}

// Extract parses a PHP source file into a CodeFile.
func (e *phpExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "namespace_use_declaration":
				for _, clause := range findChildrenByKind(n, "namespace_use_clause") {
					cf.Imports = append(cf.Imports, strings.TrimSpace(nodeText(clause, source)))
				}
			case "function_definition":
				fn := e.extractFunction(n, source, lines, "public")
				cf.Functions = append(cf.Functions, fn)
				cf.Exports = append(cf.Exports, fn.Name)
				return false
			case "class_declaration":
				cls := e.extractClass(n, source, lines)
				cf.Classes = append(cf.Classes, cls)
				cf.Exports = append(cf.Exports, cls.Name)
				return false
			case "interface_declaration":
				iface := e.extractInterface(n, source, lines)
				cf.Interfaces = append(cf.Interfaces, iface)
				cf.Exports = append(cf.Exports, iface.Name)
				return false
			}
			return true
		})
	})
}

func (e *phpExtractor) extractFunction(node *sitter.Node, source []byte, lines []string, visibility string) FunctionSignature {
	return FunctionSignature{
		Name:         nodeText(node.ChildByFieldName("name"), source),
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:   nodeText(node.ChildByFieldName("return_type"), source),
		IsExported:   visibility == "public",
		IsPublic:     visibility == "public",
		DocComment:   docCommentAbove(lines, startLine(node), isPHPComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, phpBranchKinds),
		Dependencies: e.callees(node, source),
	}
}

func (e *phpExtractor) callees(node *sitter.Node, source []byte) []string {
	seen := make(map[string]bool)
	var deps []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	walkTree(node, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_call_expression":
			add(nodeText(n.ChildByFieldName("function"), source))
		case "member_call_expression", "scoped_call_expression":
			add(nodeText(n.ChildByFieldName("name"), source))
		}
		return true
	})
	return deps
}

func (e *phpExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		if child.Kind() != "simple_parameter" && child.Kind() != "variadic_parameter" {
			continue
		}
		p := Parameter{
			Name:     nodeText(child.ChildByFieldName("name"), source),
			Type:     nodeText(child.ChildByFieldName("type"), source),
			Optional: child.Kind() == "variadic_parameter",
		}
		if def := child.ChildByFieldName("default_value"); def != nil {
			p.Default = nodeText(def, source)
			p.Optional = true
		}
		result = append(result, p)
	}
	return result
}

func (e *phpExtractor) extractClass(node *sitter.Node, source []byte, lines []string) ClassInfo {
	cls := ClassInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: true,
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, startLine(node), isPHPComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	if base := findChildByKind(node, "base_clause"); base != nil {
		cls.Extends = strings.TrimSpace(strings.TrimPrefix(nodeText(base, source), "extends"))
	}
	if impl := findChildByKind(node, "class_interface_clause"); impl != nil {
		text := strings.TrimSpace(strings.TrimPrefix(nodeText(impl, source), "implements"))
		for _, name := range strings.Split(text, ",") {
			cls.Implements = append(cls.Implements, strings.TrimSpace(name))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(uint(i))
		switch member.Kind() {
		case "method_declaration":
			cls.Methods = append(cls.Methods, e.extractFunction(member, source, lines, phpVisibility(member, source)))
		case "property_declaration":
			visibility := phpVisibility(member, source)
			propType := nodeText(member.ChildByFieldName("type"), source)
			for _, elem := range findChildrenByKind(member, "property_element") {
				cls.Properties = append(cls.Properties, Property{
					Name:       strings.TrimPrefix(nodeText(elem, source), "$"),
					Type:       propType,
					Visibility: visibility,
				})
			}
		}
	}
	return cls
}

func (e *phpExtractor) extractInterface(node *sitter.Node, source []byte, lines []string) InterfaceInfo {
	iface := InterfaceInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: true,
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, startLine(node), isPHPComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return iface
	}
	for _, member := range findChildrenByKind(body, "method_declaration") {
		iface.Methods = append(iface.Methods, FunctionSignature{
			Name:       nodeText(member.ChildByFieldName("name"), source),
			Parameters: e.extractParameters(member.ChildByFieldName("parameters"), source),
			ReturnType: nodeText(member.ChildByFieldName("return_type"), source),
			IsPublic:   true,
			StartLine:  startLine(member),
			EndLine:    endLine(member),
			Complexity: 1,
		})
	}
	return iface
}

// phpVisibility resolves member visibility, defaulting to public.
func phpVisibility(node *sitter.Node, source []byte) string {
	if mod := findChildByKind(node, "visibility_modifier"); mod != nil {
		return nodeText(mod, source)
	}
	return "public"
}
