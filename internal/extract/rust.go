package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

var rustBranchKinds = map[string]bool{
	"if_expression":    true,
	"match_arm":        true,
	"for_expression":   true,
	"while_expression": true,
	"loop_expression":  true,
}

// rustExtractor extracts structure from Rust sources.
type rustExtractor struct {
	*treeSitterExtractor
}

// NewRustExtractor creates a new Rust structure extractor.
func NewRustExtractor() Extractor {
	lang := sitter.NewLanguage(rust.Language())
	return &rustExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "rust", ".rs"),
	}
}

// Extract parses a Rust source file into a CodeFile. Structs and enums map
// to classes, traits to interfaces; impl-block methods are attached to the
// class for their self type. `pub` items are exported.
func (e *rustExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		// Collect type declarations first so impl methods find their class.
		for i := 0; i < int(root.ChildCount()); i++ {
			node := root.Child(uint(i))
			switch node.Kind() {
			case "use_declaration":
				if arg := node.ChildByFieldName("argument"); arg != nil {
					cf.Imports = append(cf.Imports, nodeText(arg, source))
				}
			case "struct_item", "enum_item":
				cls := e.extractStruct(node, source, lines)
				cf.Classes = append(cf.Classes, cls)
				if cls.IsExported {
					cf.Exports = append(cf.Exports, cls.Name)
				}
			case "trait_item":
				iface := e.extractTrait(node, source, lines)
				cf.Interfaces = append(cf.Interfaces, iface)
				if iface.IsExported {
					cf.Exports = append(cf.Exports, iface.Name)
				}
			case "type_item":
				alias := TypeInfo{
					Name:       nodeText(node.ChildByFieldName("name"), source),
					IsExported: rustIsPub(node),
					Definition: nodeText(node.ChildByFieldName("type"), source),
					DocComment: docCommentAbove(lines, startLine(node), isSlashComment),
					StartLine:  startLine(node),
					EndLine:    endLine(node),
				}
				cf.Types = append(cf.Types, alias)
				if alias.IsExported {
					cf.Exports = append(cf.Exports, alias.Name)
				}
			case "function_item":
				fn := e.extractFunction(node, source, lines)
				cf.Functions = append(cf.Functions, fn)
				if fn.IsExported {
					cf.Exports = append(cf.Exports, fn.Name)
				}
			}
		}

		// Attach impl-block methods.
		for i := 0; i < int(root.ChildCount()); i++ {
			node := root.Child(uint(i))
			if node.Kind() != "impl_item" {
				continue
			}
			e.extractImpl(node, source, lines, cf)
		}
	})
}

func (e *rustExtractor) extractFunction(node *sitter.Node, source []byte, lines []string) FunctionSignature {
	pub := rustIsPub(node)
	return FunctionSignature{
		Name:         nodeText(node.ChildByFieldName("name"), source),
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		ReturnType:   nodeText(node.ChildByFieldName("return_type"), source),
		IsAsync:      hasChildKind(node, source, "async"),
		IsExported:   pub,
		IsPublic:     pub,
		DocComment:   docCommentAbove(lines, startLine(node), isSlashComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, rustBranchKinds),
		Dependencies: collectCallees(node, source, "call_expression", "function"),
	}
}

func (e *rustExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		if child.Kind() != "parameter" {
			continue
		}
		result = append(result, Parameter{
			Name: nodeText(child.ChildByFieldName("pattern"), source),
			Type: nodeText(child.ChildByFieldName("type"), source),
		})
	}
	return result
}

func (e *rustExtractor) extractStruct(node *sitter.Node, source []byte, lines []string) ClassInfo {
	cls := ClassInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: rustIsPub(node),
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
		visibility := "private"
		if rustIsPub(field) {
			visibility = "public"
		}
		cls.Properties = append(cls.Properties, Property{
			Name:       nodeText(field.ChildByFieldName("name"), source),
			Type:       nodeText(field.ChildByFieldName("type"), source),
			Visibility: visibility,
		})
	}
	return cls
}

func (e *rustExtractor) extractTrait(node *sitter.Node, source []byte, lines []string) InterfaceInfo {
	iface := InterfaceInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: rustIsPub(node),
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
		if member.Kind() != "function_signature_item" && member.Kind() != "function_item" {
			continue
		}
		iface.Methods = append(iface.Methods, FunctionSignature{
			Name:       nodeText(member.ChildByFieldName("name"), source),
			Parameters: e.extractParameters(member.ChildByFieldName("parameters"), source),
			ReturnType: nodeText(member.ChildByFieldName("return_type"), source),
			IsAsync:    hasChildKind(member, source, "async"),
			IsPublic:   true,
			StartLine:  startLine(member),
			EndLine:    endLine(member),
			Complexity: 1,
		})
	}
	return iface
}

// extractImpl attaches the methods of an impl block to the class for its
// self type. A trait impl also records the trait on Implements.
func (e *rustExtractor) extractImpl(node *sitter.Node, source []byte, lines []string, cf *CodeFile) {
	selfType := nodeText(node.ChildByFieldName("type"), source)
	// Strip generics: Foo<T> matches class Foo.
	if idx := strings.Index(selfType, "<"); idx > 0 {
		selfType = selfType[:idx]
	}

	var cls *ClassInfo
	for i := range cf.Classes {
		if cf.Classes[i].Name == selfType {
			cls = &cf.Classes[i]
			break
		}
	}

	if trait := node.ChildByFieldName("trait"); trait != nil && cls != nil {
		cls.Implements = append(cls.Implements, nodeText(trait, source))
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, fn := range findChildrenByKind(body, "function_item") {
		method := e.extractFunction(fn, source, lines)
		if cls != nil {
			cls.Methods = append(cls.Methods, method)
			continue
		}
		// Self type declared elsewhere; keep as qualified function.
		method.Name = selfType + "::" + method.Name
		cf.Functions = append(cf.Functions, method)
	}
}

// rustIsPub reports whether the item carries a visibility modifier.
func rustIsPub(node *sitter.Node) bool {
	return findChildByKind(node, "visibility_modifier") != nil
}
