package extract

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"strings"
)

// goExtractor extracts structure from Go sources using go/ast. There is no
// tree-sitter grammar in the stack for Go; the standard parser gives richer
// results anyway (doc comments, receiver resolution).
type goExtractor struct{}

// NewGoExtractor creates a new Go structure extractor.
func NewGoExtractor() Extractor {
	return &goExtractor{}
}

func (e *goExtractor) Language() string { return "go" }

func (e *goExtractor) Extensions() []string { return []string{".go"} }

// Extract parses a Go source file into a CodeFile. Methods are attached to
// the class entry for their receiver type; receiver-less functions go into
// the top-level function list.
func (e *goExtractor) Extract(ctx context.Context, path string) (*CodeFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cf := newCodeFile(path, "go", source)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, source, parser.ParseComments)
	if err != nil {
		log.Printf("Warning: failed to parse go file %s, returning empty structure: %v", path, err)
		return cf, nil
	}

	for _, imp := range file.Imports {
		cf.Imports = append(cf.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	// First pass: type declarations, so methods can find their receiver.
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			e.extractType(typeSpec, genDecl, fset, cf)
		}
	}

	// Second pass: functions and methods.
	for _, decl := range file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		e.extractFunc(funcDecl, fset, cf)
	}

	cf.Complexity = cf.TotalComplexity()
	return cf, nil
}

func (e *goExtractor) extractType(typeSpec *ast.TypeSpec, genDecl *ast.GenDecl, fset *token.FileSet, cf *CodeFile) {
	name := typeSpec.Name.Name
	exported := ast.IsExported(name)
	doc := docText(typeSpec.Doc)
	if doc == "" {
		doc = docText(genDecl.Doc)
	}
	start := fset.Position(typeSpec.Pos()).Line
	end := fset.Position(typeSpec.End()).Line

	switch t := typeSpec.Type.(type) {
	case *ast.InterfaceType:
		iface := InterfaceInfo{
			Name:       name,
			IsExported: exported,
			Methods:    []FunctionSignature{},
			Properties: []Property{},
			DocComment: doc,
			StartLine:  start,
			EndLine:    end,
		}
		if t.Methods != nil {
			for _, field := range t.Methods.List {
				funcType, ok := field.Type.(*ast.FuncType)
				if !ok {
					continue // embedded interface
				}
				for _, methodName := range field.Names {
					iface.Methods = append(iface.Methods, FunctionSignature{
						Name:       methodName.Name,
						Parameters: e.extractParams(funcType.Params),
						ReturnType: e.returnTypeString(funcType.Results),
						IsExported: ast.IsExported(methodName.Name),
						IsPublic:   ast.IsExported(methodName.Name),
						DocComment: docText(field.Doc),
						StartLine:  fset.Position(field.Pos()).Line,
						EndLine:    fset.Position(field.End()).Line,
						Complexity: 1,
					})
				}
			}
		}
		cf.Interfaces = append(cf.Interfaces, iface)
		if exported {
			cf.Exports = append(cf.Exports, name)
		}

	case *ast.StructType:
		cls := ClassInfo{
			Name:       name,
			IsExported: exported,
			Methods:    []FunctionSignature{},
			Properties: []Property{},
			DocComment: doc,
			StartLine:  start,
			EndLine:    end,
		}
		if t.Fields != nil {
			for _, field := range t.Fields.List {
				fieldType := typeString(field.Type)
				if len(field.Names) == 0 {
					cls.Extends = fieldType // embedded type
					continue
				}
				for _, fieldName := range field.Names {
					visibility := "private"
					if ast.IsExported(fieldName.Name) {
						visibility = "public"
					}
					cls.Properties = append(cls.Properties, Property{
						Name:       fieldName.Name,
						Type:       fieldType,
						Visibility: visibility,
					})
				}
			}
		}
		cf.Classes = append(cf.Classes, cls)
		if exported {
			cf.Exports = append(cf.Exports, name)
		}

	default:
		cf.Types = append(cf.Types, TypeInfo{
			Name:       name,
			IsExported: exported,
			Definition: typeString(typeSpec.Type),
			DocComment: doc,
			StartLine:  start,
			EndLine:    end,
		})
		if exported {
			cf.Exports = append(cf.Exports, name)
		}
	}
}

func (e *goExtractor) extractFunc(decl *ast.FuncDecl, fset *token.FileSet, cf *CodeFile) {
	name := decl.Name.Name
	exported := ast.IsExported(name)

	fn := FunctionSignature{
		Name:         name,
		Parameters:   e.extractParams(decl.Type.Params),
		ReturnType:   e.returnTypeString(decl.Type.Results),
		IsExported:   exported,
		IsPublic:     exported,
		DocComment:   docText(decl.Doc),
		StartLine:    fset.Position(decl.Pos()).Line,
		EndLine:      fset.Position(decl.End()).Line,
		Complexity:   goComplexity(decl),
		Dependencies: goCallees(decl),
	}

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		recvType := receiverTypeName(decl.Recv.List[0].Type)
		for i := range cf.Classes {
			if cf.Classes[i].Name == recvType {
				cf.Classes[i].Methods = append(cf.Classes[i].Methods, fn)
				return
			}
		}
		// Receiver type declared in another file; keep the method as a
		// plain function so it still participates in drift detection.
		fn.Name = recvType + "." + name
	}

	cf.Functions = append(cf.Functions, fn)
	if fn.IsExported {
		cf.Exports = append(cf.Exports, fn.Name)
	}
}

func (e *goExtractor) extractParams(fieldList *ast.FieldList) []Parameter {
	params := []Parameter{}
	if fieldList == nil {
		return params
	}
	for _, field := range fieldList.List {
		fieldType := typeString(field.Type)
		_, variadic := field.Type.(*ast.Ellipsis)
		if len(field.Names) == 0 {
			params = append(params, Parameter{Type: fieldType, Optional: variadic})
			continue
		}
		for _, name := range field.Names {
			params = append(params, Parameter{
				Name:     name.Name,
				Type:     fieldType,
				Optional: variadic,
			})
		}
	}
	return params
}

func (e *goExtractor) returnTypeString(results *ast.FieldList) string {
	if results == nil || results.NumFields() == 0 {
		return ""
	}
	var parts []string
	for _, field := range results.List {
		fieldType := typeString(field.Type)
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			parts = append(parts, fieldType)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// goComplexity computes cyclomatic complexity: 1 + branching statements.
func goComplexity(decl *ast.FuncDecl) int {
	complexity := 1
	if decl.Body == nil {
		return complexity
	}
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.CaseClause, *ast.CommClause:
			complexity++
		}
		return true
	})
	return complexity
}

// goCallees collects distinct called identifiers from a function body.
func goCallees(decl *ast.FuncDecl) []string {
	if decl.Body == nil {
		return nil
	}
	seen := make(map[string]bool)
	var deps []string
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		var name string
		switch fun := call.Fun.(type) {
		case *ast.Ident:
			name = fun.Name
		case *ast.SelectorExpr:
			name = fun.Sel.Name
		}
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
		return true
	})
	return deps
}

// receiverTypeName extracts the type name from a receiver expression.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	case *ast.IndexExpr:
		// Generic receiver: (r *T[P])
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return "unknown"
}

// typeString renders a type expression as source text.
func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeString(t.X)
	case *ast.ArrayType:
		return "[]" + typeString(t.Elt)
	case *ast.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	case *ast.Ellipsis:
		return "..." + typeString(t.Elt)
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.FuncType:
		return "func"
	case *ast.ChanType:
		return "chan " + typeString(t.Value)
	case *ast.IndexExpr:
		return typeString(t.X) + "[" + typeString(t.Index) + "]"
	}
	return "unknown"
}

func docText(group *ast.CommentGroup) string {
	if group == nil {
		return ""
	}
	return strings.TrimSpace(group.Text())
}
