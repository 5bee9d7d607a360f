package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

var cBranchKinds = map[string]bool{
	"if_statement":           true,
	"for_statement":          true,
	"while_statement":        true,
	"do_statement":           true,
	"case_statement":         true,
	"conditional_expression": true,
}

// cExtractor extracts structure from C sources.
type cExtractor struct {
	*treeSitterExtractor
}

// NewCExtractor creates a new C structure extractor.
func NewCExtractor() Extractor {
	lang := sitter.NewLanguage(c.Language())
	return &cExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "c", ".c", ".h"),
	}
}

// Extract parses a C source file into a CodeFile. Structs map to classes,
// typedefs to types; non-static functions count as exported (external
// linkage).
func (e *cExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "preproc_include":
				if pathNode := n.ChildByFieldName("path"); pathNode != nil {
					cf.Imports = append(cf.Imports, strings.Trim(nodeText(pathNode, source), "\"<>"))
				}
			case "function_definition":
				if fn, ok := e.extractFunction(n, source, lines); ok {
					cf.Functions = append(cf.Functions, fn)
					if fn.IsExported {
						cf.Exports = append(cf.Exports, fn.Name)
					}
				}
				return false
			case "struct_specifier":
				// Only named definitions with bodies; bare references skip.
				if n.ChildByFieldName("body") == nil {
					return true
				}
				cls := e.extractStruct(n, source, lines)
				if cls.Name != "" {
					cf.Classes = append(cf.Classes, cls)
					cf.Exports = append(cf.Exports, cls.Name)
				}
				return false
			case "type_definition":
				if alias, ok := e.extractTypedef(n, source, lines); ok {
					cf.Types = append(cf.Types, alias)
					cf.Exports = append(cf.Exports, alias.Name)
				}
				return false
			}
			return true
		})
	})
}

func (e *cExtractor) extractFunction(node *sitter.Node, source []byte, lines []string) (FunctionSignature, bool) {
	declarator := e.functionDeclarator(node)
	if declarator == nil {
		return FunctionSignature{}, false
	}
	name := nodeText(declarator.ChildByFieldName("declarator"), source)
	if name == "" {
		return FunctionSignature{}, false
	}
	external := !hasChildKind(node, source, "static")

	return FunctionSignature{
		Name:         name,
		Parameters:   e.extractParameters(declarator.ChildByFieldName("parameters"), source),
		ReturnType:   nodeText(node.ChildByFieldName("type"), source),
		IsExported:   external,
		IsPublic:     external,
		DocComment:   docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, cBranchKinds),
		Dependencies: collectCallees(node, source, "call_expression", "function"),
	}, true
}

// functionDeclarator digs the function_declarator out of a definition,
// unwrapping pointer declarators (e.g., char *name(void)).
func (e *cExtractor) functionDeclarator(node *sitter.Node) *sitter.Node {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Kind() {
		case "function_declarator":
			return decl
		case "pointer_declarator":
			decl = decl.ChildByFieldName("declarator")
		default:
			return nil
		}
	}
	return nil
}

func (e *cExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for _, child := range findChildrenByKind(params, "parameter_declaration") {
		paramType := nodeText(child.ChildByFieldName("type"), source)
		name := nodeText(child.ChildByFieldName("declarator"), source)
		if strings.HasPrefix(name, "*") {
			paramType += " *"
			name = strings.TrimLeft(name, "* ")
		}
		if paramType == "void" && name == "" {
			continue
		}
		result = append(result, Parameter{Name: name, Type: paramType})
	}
	return result
}

func (e *cExtractor) extractStruct(node *sitter.Node, source []byte, lines []string) ClassInfo {
	cls := ClassInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: true,
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for _, field := range findChildrenByKind(body, "field_declaration") {
		cls.Properties = append(cls.Properties, Property{
			Name:       nodeText(field.ChildByFieldName("declarator"), source),
			Type:       nodeText(field.ChildByFieldName("type"), source),
			Visibility: "public",
		})
	}
	return cls
}

func (e *cExtractor) extractTypedef(node *sitter.Node, source []byte, lines []string) (TypeInfo, bool) {
	name := nodeText(node.ChildByFieldName("declarator"), source)
	if name == "" {
		return TypeInfo{}, false
	}
	return TypeInfo{
		Name:       name,
		IsExported: true,
		Definition: nodeText(node.ChildByFieldName("type"), source),
		DocComment: docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}, true
}
