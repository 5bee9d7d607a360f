package extract

import (
	"context"
	"log"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterExtractor provides the parse/degrade loop shared by every
// tree-sitter backed language extractor.
type treeSitterExtractor struct {
	language *sitter.Language
	lang     string
	exts     []string
}

func newTreeSitterExtractor(language *sitter.Language, lang string, exts ...string) *treeSitterExtractor {
	return &treeSitterExtractor{language: language, lang: lang, exts: exts}
}

func (t *treeSitterExtractor) Language() string { return t.lang }

func (t *treeSitterExtractor) Extensions() []string { return t.exts }

// parse reads and parses the file, invoking visit on the root node. A parse
// failure is logged and the base model is returned with empty collections so
// one bad file never aborts a batch.
func (t *treeSitterExtractor) parse(ctx context.Context, path string, visit func(root *sitter.Node, source []byte, lines []string, cf *CodeFile)) (*CodeFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cf := newCodeFile(path, t.lang, source)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		log.Printf("Warning: failed to parse %s file %s, returning empty structure", t.lang, path)
		return cf, nil
	}
	defer tree.Close()

	lines := strings.Split(string(source), "\n")
	visit(tree.RootNode(), source, lines, cf)

	cf.Complexity = cf.TotalComplexity()
	return cf, nil
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

func startLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func endLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for
// each node. Returning false from the visitor prunes the subtree.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// findChildByKind finds the first direct child with the given kind.
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// findChildrenByKind finds all direct children with the given kind.
func findChildrenByKind(node *sitter.Node, kind string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			results = append(results, child)
		}
	}
	return results
}

// hasChildKind reports whether the node has a direct child of the given kind
// or a direct child whose text equals kind (keyword tokens).
func hasChildKind(node *sitter.Node, source []byte, kind string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind || nodeText(child, source) == kind {
			return true
		}
	}
	return false
}

// countComplexity computes cyclomatic complexity for a subtree:
// 1 + the number of branching constructs found in it.
func countComplexity(node *sitter.Node, branchKinds map[string]bool) int {
	complexity := 1
	walkTree(node, func(n *sitter.Node) bool {
		if branchKinds[n.Kind()] {
			complexity++
		}
		return true
	})
	return complexity
}

// collectCallees gathers the distinct names invoked in a subtree. callKind
// names the call node, funcField the field carrying the invoked expression.
func collectCallees(node *sitter.Node, source []byte, callKind, funcField string) []string {
	seen := make(map[string]bool)
	var deps []string
	walkTree(node, func(n *sitter.Node) bool {
		if n.Kind() != callKind {
			return true
		}
		target := n.ChildByFieldName(funcField)
		if target == nil {
			return true
		}
		name := nodeText(target, source)
		// For member calls keep only the final segment.
		if idx := strings.LastIndexAny(name, ".:"); idx >= 0 && idx < len(name)-1 {
			name = name[idx+1:]
		}
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
		return true
	})
	return deps
}

// docCommentAbove scans backward from the declaration's start line collecting
// the contiguous comment block immediately above it. isComment classifies a
// trimmed line; scanning stops at the first non-comment line.
func docCommentAbove(lines []string, declLine int, isComment func(string) bool) string {
	var block []string
	for i := declLine - 2; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" && len(block) == 0 {
			// Allow one blank line cushion directly above the declaration.
			continue
		}
		if !isComment(trimmed) {
			break
		}
		block = append([]string{trimmed}, block...)
	}
	return strings.Join(block, "\n")
}

// isSlashComment classifies C-style comment lines (//, /*, *, */).
func isSlashComment(line string) bool {
	return strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, "/*") ||
		strings.HasPrefix(line, "*")
}

// isHashComment classifies #-prefixed comment lines.
func isHashComment(line string) bool {
	return strings.HasPrefix(line, "#")
}
