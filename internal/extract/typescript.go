package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// tsBranchKinds are the node kinds counted toward cyclomatic complexity.
var tsBranchKinds = map[string]bool{
	"if_statement":       true,
	"for_statement":      true,
	"for_in_statement":   true,
	"while_statement":    true,
	"do_statement":       true,
	"switch_case":        true,
	"catch_clause":       true,
	"ternary_expression": true,
}

// TypeScriptExtractor extracts structure from TypeScript sources.
type typeScriptExtractor struct {
	*treeSitterExtractor
}

// NewTypeScriptExtractor creates a new TypeScript structure extractor.
func NewTypeScriptExtractor() Extractor {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "typescript", ".ts", ".tsx"),
	}
}

// NewJavaScriptExtractor creates a JavaScript extractor reusing the
// TypeScript grammar (same AST shape).
func NewJavaScriptExtractor() Extractor {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "javascript", ".js", ".jsx", ".mjs"),
	}
}

// Extract parses a TypeScript source file into a CodeFile.
func (e *typeScriptExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "import_statement":
				if src := n.ChildByFieldName("source"); src != nil {
					cf.Imports = append(cf.Imports, strings.Trim(nodeText(src, source), "\"'`"))
				}
			case "export_statement":
				e.extractExportClause(n, source, cf)
				return true // declarations under export are visited below
			case "function_declaration":
				fn := e.extractFunction(n, source, lines, isExportedDecl(n))
				cf.Functions = append(cf.Functions, fn)
				if fn.IsExported {
					cf.Exports = append(cf.Exports, fn.Name)
				}
				return false
			case "class_declaration":
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
			case "type_alias_declaration":
				alias := e.extractTypeAlias(n, source, lines)
				cf.Types = append(cf.Types, alias)
				if alias.IsExported {
					cf.Exports = append(cf.Exports, alias.Name)
				}
				return false
			case "lexical_declaration", "variable_declaration":
				e.extractArrowBindings(n, source, lines, cf)
				return false
			}
			return true
		})
	})
}

// isExportedDecl reports whether the declaration is wrapped in an export
// statement.
func isExportedDecl(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "export_statement"
}

// extractExportClause records names re-exported via `export { a, b }`.
func (e *typeScriptExtractor) extractExportClause(node *sitter.Node, source []byte, cf *CodeFile) {
	clause := findChildByKind(node, "export_clause")
	if clause == nil {
		return
	}
	for _, spec := range findChildrenByKind(clause, "export_specifier") {
		if name := spec.ChildByFieldName("name"); name != nil {
			cf.Exports = append(cf.Exports, nodeText(name, source))
		}
	}
}

// extractFunction extracts a function declaration with its full signature.
func (e *typeScriptExtractor) extractFunction(node *sitter.Node, source []byte, lines []string, exported bool) FunctionSignature {
	name := nodeText(node.ChildByFieldName("name"), source)
	fn := FunctionSignature{
		Name:         name,
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:   tsTypeText(node.ChildByFieldName("return_type"), source),
		IsAsync:      hasChildKind(node, source, "async"),
		IsExported:   exported,
		IsPublic:     !strings.HasPrefix(name, "_"),
		DocComment:   docCommentAbove(lines, declStartLine(node), isSlashComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, tsBranchKinds),
		Dependencies: collectCallees(node, source, "call_expression", "function"),
	}
	return fn
}

// extractArrowBindings captures const/let bindings whose value is an arrow
// function, treating them as function declarations.
func (e *typeScriptExtractor) extractArrowBindings(node *sitter.Node, source []byte, lines []string, cf *CodeFile) {
	exported := isExportedDecl(node)
	for _, decl := range findChildrenByKind(node, "variable_declarator") {
		value := decl.ChildByFieldName("value")
		if value == nil || (value.Kind() != "arrow_function" && value.Kind() != "function_expression") {
			continue
		}
		name := nodeText(decl.ChildByFieldName("name"), source)
		fn := FunctionSignature{
			Name:         name,
			Parameters:   e.extractParameters(value.ChildByFieldName("parameters"), source),
			ReturnType:   tsTypeText(value.ChildByFieldName("return_type"), source),
			IsAsync:      hasChildKind(value, source, "async"),
			IsExported:   exported,
			IsPublic:     !strings.HasPrefix(name, "_"),
			DocComment:   docCommentAbove(lines, declStartLine(node), isSlashComment),
			StartLine:    startLine(decl),
			EndLine:      endLine(decl),
			Complexity:   countComplexity(value, tsBranchKinds),
			Dependencies: collectCallees(value, source, "call_expression", "function"),
		}
		cf.Functions = append(cf.Functions, fn)
		if exported {
			cf.Exports = append(cf.Exports, name)
		}
	}
}

// extractParameters extracts parameters from a formal_parameters node,
// capturing optional markers and default values.
func (e *typeScriptExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		kind := child.Kind()
		if kind != "required_parameter" && kind != "optional_parameter" && kind != "rest_pattern" {
			continue
		}
		p := Parameter{
			Name:     nodeText(child.ChildByFieldName("pattern"), source),
			Type:     tsTypeText(child.ChildByFieldName("type"), source),
			Optional: kind == "optional_parameter",
		}
		if p.Name == "" {
			// rest_pattern has no pattern field
			p.Name = nodeText(child, source)
		}
		if def := child.ChildByFieldName("value"); def != nil {
			p.Default = nodeText(def, source)
			p.Optional = true
		}
		result = append(result, p)
	}
	return result
}

// extractClass extracts a class declaration with heritage, methods, and
// properties.
func (e *typeScriptExtractor) extractClass(node *sitter.Node, source []byte, lines []string) ClassInfo {
	cls := ClassInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: isExportedDecl(node),
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, declStartLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	if heritage := findChildByKind(node, "class_heritage"); heritage != nil {
		if ext := findChildByKind(heritage, "extends_clause"); ext != nil {
			parts := strings.Fields(nodeText(ext, source))
			if len(parts) > 1 {
				cls.Extends = parts[1]
			}
		}
		if impl := findChildByKind(heritage, "implements_clause"); impl != nil {
			text := strings.TrimSpace(strings.TrimPrefix(nodeText(impl, source), "implements"))
			for _, name := range strings.Split(text, ",") {
				cls.Implements = append(cls.Implements, strings.TrimSpace(name))
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(uint(i))
		switch member.Kind() {
		case "method_definition":
			cls.Methods = append(cls.Methods, e.extractMethod(member, source, lines))
		case "public_field_definition", "field_definition":
			name := nodeText(member.ChildByFieldName("name"), source)
			cls.Properties = append(cls.Properties, Property{
				Name:       name,
				Type:       tsTypeText(member.ChildByFieldName("type"), source),
				Visibility: tsVisibility(member, source, name),
			})
		}
	}
	return cls
}

// extractMethod extracts a method definition inside a class body.
func (e *typeScriptExtractor) extractMethod(node *sitter.Node, source []byte, lines []string) FunctionSignature {
	name := nodeText(node.ChildByFieldName("name"), source)
	visibility := tsVisibility(node, source, name)
	return FunctionSignature{
		Name:         name,
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:   tsTypeText(node.ChildByFieldName("return_type"), source),
		IsAsync:      hasChildKind(node, source, "async"),
		IsPublic:     visibility == "public",
		DocComment:   docCommentAbove(lines, declStartLine(node), isSlashComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, tsBranchKinds),
		Dependencies: collectCallees(node, source, "call_expression", "function"),
	}
}

// extractInterface extracts an interface declaration with property and
// method signatures.
func (e *typeScriptExtractor) extractInterface(node *sitter.Node, source []byte, lines []string) InterfaceInfo {
	iface := InterfaceInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: isExportedDecl(node),
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, declStartLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return iface
	}
	walkTree(body, func(member *sitter.Node) bool {
		switch member.Kind() {
		case "property_signature":
			iface.Properties = append(iface.Properties, Property{
				Name:       nodeText(member.ChildByFieldName("name"), source),
				Type:       tsTypeText(member.ChildByFieldName("type"), source),
				Visibility: "public",
				Optional:   hasChildKind(member, source, "?"),
			})
			return false
		case "method_signature":
			iface.Methods = append(iface.Methods, FunctionSignature{
				Name:       nodeText(member.ChildByFieldName("name"), source),
				Parameters: e.extractParameters(member.ChildByFieldName("parameters"), source),
				ReturnType: tsTypeText(member.ChildByFieldName("return_type"), source),
				IsPublic:   true,
				StartLine:  startLine(member),
				EndLine:    endLine(member),
				Complexity: 1,
			})
			return false
		}
		return true
	})
	return iface
}

// extractTypeAlias extracts a type alias declaration.
func (e *typeScriptExtractor) extractTypeAlias(node *sitter.Node, source []byte, lines []string) TypeInfo {
	return TypeInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: isExportedDecl(node),
		Definition: nodeText(node.ChildByFieldName("value"), source),
		DocComment: docCommentAbove(lines, declStartLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}
}

// tsVisibility resolves member visibility from an accessibility modifier,
// falling back to the # / _ name-prefix conventions.
func tsVisibility(node *sitter.Node, source []byte, name string) string {
	if mod := findChildByKind(node, "accessibility_modifier"); mod != nil {
		return nodeText(mod, source)
	}
	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "_") {
		return "private"
	}
	return "public"
}

// tsTypeText renders a type_annotation without its leading colon.
func tsTypeText(node *sitter.Node, source []byte) string {
	text := nodeText(node, source)
	return strings.TrimSpace(strings.TrimPrefix(text, ":"))
}

// declStartLine returns the line of the declaration itself, skipping an
// enclosing export statement so doc comments above `export` are found.
func declStartLine(node *sitter.Node) int {
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		return startLine(parent)
	}
	return startLine(node)
}
