package extract

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
)

var rubyBranchKinds = map[string]bool{
	"if":          true,
	"elsif":       true,
	"unless":      true,
	"while":       true,
	"until":       true,
	"for":         true,
	"when":        true,
	"rescue":      true,
	"conditional": true,
}

// rubyExtractor extracts structure from Ruby sources.
type rubyExtractor struct {
	*treeSitterExtractor
}

// NewRubyExtractor creates a new Ruby structure extractor.
func NewRubyExtractor() Extractor {
	lang := sitter.NewLanguage(ruby.Language())
	return &rubyExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "ruby", ".rb"),
	}
}

// Extract parses a Ruby source file into a CodeFile. Visibility inside a
// class body follows the private/protected/public keyword sections.
func (e *rubyExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	return e.parse(ctx, path, func(root *sitter.Node, source []byte, lines []string, cf *CodeFile) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "call":
				e.extractRequire(n, source, cf)
			case "method":
				fn := e.extractMethod(n, source, lines, "public")
				cf.Functions = append(cf.Functions, fn)
				cf.Exports = append(cf.Exports, fn.Name)
				return false
			case "class", "module":
				cls := e.extractClass(n, source, lines)
				cf.Classes = append(cf.Classes, cls)
				cf.Exports = append(cf.Exports, cls.Name)
				return false
			}
			return true
		})
	})
}

func (e *rubyExtractor) extractRequire(node *sitter.Node, source []byte, cf *CodeFile) {
	method := node.ChildByFieldName("method")
	if method == nil {
		return
	}
	name := nodeText(method, source)
	if name != "require" && name != "require_relative" {
		return
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.ChildCount() == 0 {
		return
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		arg := args.Child(uint(i))
		if arg.Kind() == "string" {
			cf.Imports = append(cf.Imports, strings.Trim(nodeText(arg, source), "\"'"))
		}
	}
}

func (e *rubyExtractor) extractMethod(node *sitter.Node, source []byte, lines []string, visibility string) FunctionSignature {
	name := nodeText(node.ChildByFieldName("name"), source)
	public := visibility == "public" && !strings.HasPrefix(name, "_")
	return FunctionSignature{
		Name:         name,
		Parameters:   e.extractParameters(node.ChildByFieldName("parameters"), source),
		IsExported:   public,
		IsPublic:     public,
		DocComment:   docCommentAbove(lines, startLine(node), isHashComment),
		StartLine:    startLine(node),
		EndLine:      endLine(node),
		Complexity:   countComplexity(node, rubyBranchKinds),
		Dependencies: e.callees(node, source),
	}
}

// callees collects invoked method names; bare identifiers in Ruby can be
// calls too, but only explicit call nodes are counted to limit noise.
func (e *rubyExtractor) callees(node *sitter.Node, source []byte) []string {
	seen := make(map[string]bool)
	var deps []string
	walkTree(node, func(n *sitter.Node) bool {
		if n.Kind() != "call" {
			return true
		}
		method := n.ChildByFieldName("method")
		if method == nil {
			return true
		}
		name := nodeText(method, source)
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
		return true
	})
	return deps
}

func (e *rubyExtractor) extractParameters(params *sitter.Node, source []byte) []Parameter {
	result := []Parameter{}
	if params == nil {
		return result
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		switch child.Kind() {
		case "identifier":
			result = append(result, Parameter{Name: nodeText(child, source)})
		case "optional_parameter", "keyword_parameter":
			p := Parameter{
				Name:     nodeText(child.ChildByFieldName("name"), source),
				Optional: true,
			}
			if value := child.ChildByFieldName("value"); value != nil {
				p.Default = nodeText(value, source)
			}
			result = append(result, p)
		case "splat_parameter", "hash_splat_parameter", "block_parameter":
			result = append(result, Parameter{Name: nodeText(child, source), Optional: true})
		}
	}
	return result
}

func (e *rubyExtractor) extractClass(node *sitter.Node, source []byte, lines []string) ClassInfo {
	cls := ClassInfo{
		Name:       nodeText(node.ChildByFieldName("name"), source),
		IsExported: true,
		Methods:    []FunctionSignature{},
		Properties: []Property{},
		DocComment: docCommentAbove(lines, startLine(node), isHashComment),
		StartLine:  startLine(node),
		EndLine:    endLine(node),
	}

	if super := findChildByKind(node, "superclass"); super != nil {
		cls.Extends = strings.TrimSpace(strings.TrimPrefix(nodeText(super, source), "<"))
	}

	// Walk direct body statements tracking visibility sections.
	visibility := "public"
	for i := 0; i < int(node.ChildCount()); i++ {
		stmt := node.Child(uint(i))
		switch stmt.Kind() {
		case "identifier":
			switch nodeText(stmt, source) {
			case "private", "protected", "public":
				visibility = nodeText(stmt, source)
			}
		case "method":
			cls.Methods = append(cls.Methods, e.extractMethod(stmt, source, lines, visibility))
		case "body_statement":
			for j := 0; j < int(stmt.ChildCount()); j++ {
				inner := stmt.Child(uint(j))
				switch inner.Kind() {
				case "identifier":
					switch nodeText(inner, source) {
					case "private", "protected", "public":
						visibility = nodeText(inner, source)
					}
				case "method":
					cls.Methods = append(cls.Methods, e.extractMethod(inner, source, lines, visibility))
				}
			}
		}
	}
	return cls
}
