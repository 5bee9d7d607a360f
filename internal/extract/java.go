package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

var javaBranchKinds = map[string]bool{
	"if_statement":           true,
	"for_statement":          true,
	"enhanced_for_statement": true,
	"while_statement":        true,
	"do_statement":           true,
	"switch_label":           true,
	"catch_clause":           true,
	"ternary_expression":     true,
}

// javaExtractor extracts structure from Java sources.
type javaExtractor struct {
	*treeSitterExtractor
}

// NewJavaExtractor creates a new Java structure extractor.
func NewJavaExtractor() Extractor {
	lang := sitter.NewLanguage(java.Language())
	return &javaExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "java", ".java"),
	}
}

// Extract parses a Java source file into a CodeFile. Public top-level types
// are treated as exported.
func (e *javaExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "import_declaration":
				text := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(nodeText(n, source), "import")), ";")
				cf.Imports = append(cf.Imports, strings.TrimSpace(text))
			case "class_declaration", "enum_declaration":
				cls := e.extractClass(n, source, lines)
				cf.Classes = append(cf.Classes, cls)
				if cls.IsExported {
					cf.Exports = append(cf.Exports, cls.Name)
				}
				return false
			case "interface_declaration":
				iface := e.extractInterface(n, source, lines)
				cf.Interfaces = append(cf.Interfaces, iface)
				if iface.IsExported {
					cf.Exports = append(cf.Exports, iface.Name)
				}
				return false
			}
			return true
		})
	})
}

func (e *javaExtractor) extractClass(node *sitter.Node, source []byte, lines []string) ClassInfo {
	cls := ClassInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: javaVisibility(node, source) == "public",
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	if super := findChildByKind(node, "superclass"); super != nil {
		cls.Extends = strings.TrimSpace(strings.TrimPrefix(nodeText(super, source), "extends"))
	}
	if ifaces := findChildByKind(node, "super_interfaces"); ifaces != nil {
		text := strings.TrimSpace(strings.TrimPrefix(nodeText(ifaces, source), "implements"))
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
		case "method_declaration", "constructor_declaration":
			cls.Methods = append(cls.Methods, e.extractMethod(member, source, lines))
		case "field_declaration":
			e.extractField(member, source, &cls)
		}
	}
	return cls
}

func (e *javaExtractor) extractMethod(node *sitter.Node, source []byte, lines []string) FunctionSignature {
	visibility := javaVisibility(node, source)
	return FunctionSignature{
		Name:         nodeText(node.ChildByFieldName("name"), source),
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:   nodeText(node.ChildByFieldName("type"), source),
		IsExported:   visibility == "public",
		IsPublic:     visibility == "public",
		DocComment:   docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, javaBranchKinds),
		Dependencies: collectCallees(node, source, "method_invocation", "name"),
	}
}

func (e *javaExtractor) extractField(node *sitter.Node, source []byte, cls *ClassInfo) {
	fieldType := nodeText(node.ChildByFieldName("type"), source)
	visibility := javaVisibility(node, source)
	for _, decl := range findChildrenByKind(node, "variable_declarator") {
		cls.Properties = append(cls.Properties, Property{
			Name:       nodeText(decl.ChildByFieldName("name"), source),
			Type:       fieldType,
			Visibility: visibility,
		})
	}
}

func (e *javaExtractor) extractInterface(node *sitter.Node, source []byte, lines []string) InterfaceInfo {
	iface := InterfaceInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: javaVisibility(node, source) == "public",
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return iface
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(uint(i))
		if member.Kind() != "method_declaration" {
			continue
		}
		iface.Methods = append(iface.Methods, FunctionSignature{
			Name:       nodeText(member.ChildByFieldName("name"), source),
			Parameters: e.extractParameters(member.ChildByFieldName("parameters"), source),
			ReturnType: nodeText(member.ChildByFieldName("type"), source),
			IsPublic:   true,
			StartLine:  startLine(member),
			EndLine:    endLine(member),
			Complexity: 1,
		})
	}
	return iface
}

func (e *javaExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		if child.Kind() != "formal_parameter" && child.Kind() != "spread_parameter" {
			continue
		}
		result = append(result, Parameter{
			Name:     nodeText(child.ChildByFieldName("name"), source),
			Type:     nodeText(child.ChildByFieldName("type"), source),
			Optional: child.Kind() == "spread_parameter",
		})
	}
	return result
}

// javaVisibility resolves the access modifier of a declaration. Java members
// default to package-private, reported here as "protected".
func javaVisibility(node *sitter.Node, source []byte) string {
	mods := findChildByKind(node, "modifiers")
	if mods == nil {
		return "protected"
	}
	text := nodeText(mods, source)
	switch {
	case strings.Contains(text, "public"):
		return "public"
	case strings.Contains(text, "private"):
		return "private"
	default:
		return "protected"
	}
}
