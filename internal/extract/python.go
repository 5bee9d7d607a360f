package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pyBranchKinds = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"conditional_expression": true,
	"except_clause":          true,
	"case_clause":            true,
}

// pythonExtractor extracts structure from Python sources.
type pythonExtractor struct {
	*treeSitterExtractor
}

// NewPythonExtractor creates a new Python structure extractor.
func NewPythonExtractor() Extractor {
	lang := sitter.NewLanguage(python.Language())
	return &pythonExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "python", ".py"),
	}
}

// Extract parses a Python source file into a CodeFile. Module-level public
// names (no underscore prefix) are treated as exported, following Python
// convention.
func (e *pythonExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		for i := 0; i < int(root.ChildCount()); i++ {
			e.extractTopLevel(root.Child(uint(i)), source, lines, cf)
		}
	})
}

func (e *pythonExtractor) extractTopLevel(node *sitter.Node, source []byte, lines []string, cf *CodeFile) {
	switch node.Kind() {
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			e.extractTopLevel(def, source, lines, cf)
		}
	case "function_definition":
		fn := e.extractFunction(node, source, lines, true)
		cf.Functions = append(cf.Functions, fn)
		if fn.IsExported {
			cf.Exports = append(cf.Exports, fn.Name)
		}
	case "class_definition":
		cls := e.extractClass(node, source, lines)
		cf.Classes = append(cf.Classes, cls)
		if cls.IsExported {
			cf.Exports = append(cf.Exports, cls.Name)
		}
	case "import_statement", "import_from_statement":
		e.extractImport(node, source, cf)
	}
}

func (e *pythonExtractor) extractImport(node *sitter.Node, source []byte, cf *CodeFile) {
	if node.Kind() == "import_from_statement" {
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			cf.Imports = append(cf.Imports, nodeText(mod, source))
		}
		return
	}
	for _, name := range findChildrenByKind(node, "dotted_name") {
		cf.Imports = append(cf.Imports, nodeText(name, source))
	}
	for _, aliased := range findChildrenByKind(node, "aliased_import") {
		if name := aliased.ChildByFieldName("name"); name != nil {
			cf.Imports = append(cf.Imports, nodeText(name, source))
		}
	}
}

// extractFunction extracts a def (or async def). topLevel controls whether
// the function counts as exported.
func (e *pythonExtractor) extractFunction(node *sitter.Node, source []byte, lines []string, topLevel bool) FunctionSignature {
	name := nodeText(node.ChildByFieldName("name"), source)
	public := !strings.HasPrefix(name, "_")

	doc := e.docstring(node, source)
	if doc == "" {
		doc = docCommentAbove(lines, startLine(node), isHashComment)
	}

	return FunctionSignature{
		Name:         name,
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:   nodeText(node.ChildByFieldName("return_type"), source),
		IsAsync:      hasChildKind(node, source, "async"),
		IsExported:   topLevel && public,
		IsPublic:     public,
		DocComment:   doc,
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, pyBranchKinds),
		Dependencies: collectCallees(node, source, "call", "function"),
	}
}

// extractParameters extracts parameters, handling typed, default, and
// typed-default forms.
func (e *pythonExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		switch child.Kind() {
		case "identifier":
			name := nodeText(child, source)
			if name == "self" || name == "cls" {
				continue
			}
			result = append(result, Parameter{Name: name})
		case "typed_parameter":
			result = append(result, Parameter{
				Name: nodeText(findChildByKind(child, "identifier"), source),
				Type: nodeText(child.ChildByFieldName("type"), source),
			})
		case "default_parameter", "typed_default_parameter":
			result = append(result, Parameter{
				Name:     nodeText(child.ChildByFieldName("name"), source),
				Type:     nodeText(child.ChildByFieldName("type"), source),
				Default:  nodeText(child.ChildByFieldName("value"), source),
				Optional: true,
			})
		case "list_splat_pattern", "dictionary_splat_pattern":
			result = append(result, Parameter{Name: nodeText(child, source), Optional: true})
		}
	}
	return result
}

// extractClass extracts a class with superclasses, methods, and class-level
// assignments as properties.
func (e *pythonExtractor) extractClass(node *sitter.Node, source []byte, lines []string) ClassInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	cls := ClassInfo{
		Name:       name,
		IsExported: !strings.HasPrefix(name, "_"),
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: e.docstring(node, source),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.ChildCount()); i++ {
			child := supers.Child(uint(i))
			if child.Kind() == "identifier" || child.Kind() == "attribute" {
				if cls.Extends == "" {
					cls.Extends = nodeText(child, source)
				} else {
					cls.Implements = append(cls.Implements, nodeText(child, source))
				}
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(uint(i))
		switch stmt.Kind() {
		case "function_definition":
			cls.Methods = append(cls.Methods, e.extractFunction(stmt, source, lines, false))
		case "decorated_definition":
			if def := stmt.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
				cls.Methods = append(cls.Methods, e.extractFunction(def, source, lines, false))
			}
		case "expression_statement":
			e.extractClassProperty(stmt, source, &cls)
		}
	}
	return cls
}

func (e *pythonExtractor) extractClassProperty(stmt *sitter.Node, source []byte, cls *ClassInfo) {
	assign := findChildByKind(stmt, "assignment")
	if assign == nil {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := nodeText(left, source)
	visibility := "public"
	if strings.HasPrefix(name, "_") {
		visibility = "private"
	}
	cls.Properties = append(cls.Properties, Property{
		Name:       name,
		Type:       nodeText(assign.ChildByFieldName("type"), source),
		Visibility: visibility,
	})
}

// docstring returns the leading string literal of a def/class body, if any.
func (e *pythonExtractor) docstring(node *sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Kind() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str.Kind() != "string" {
		return ""
	}
	return strings.Trim(nodeText(str, source), "\"' \n")
}
