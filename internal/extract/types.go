package extract

import "time"

// CodeFile represents the extracted structure of a single source file.
type CodeFile struct {
	Path         string              `json:"path"`
	Language     string              `json:"language"`
	Functions    []FunctionSignature `json:"functions"`
	Classes      []ClassInfo         `json:"classes"`
	Interfaces   []InterfaceInfo     `json:"interfaces"`
	Types        []TypeInfo          `json:"types"`
	Imports      []string            `json:"imports"`
	Exports      []string            `json:"exports"`
	ContentHash  string              `json:"content_hash"`
	LastModified time.Time           `json:"last_modified"`
	LinesOfCode  int                 `json:"lines_of_code"`
	Complexity   int                 `json:"complexity"`
}

// Parameter describes a single function parameter.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Default  string `json:"default,omitempty"`
}

// FunctionSignature describes a function or method declaration.
type FunctionSignature struct {
	Name         string      `json:"name"`
	Parameters   []Parameter `json:"parameters"`
	ReturnType   string      `json:"return_type,omitempty"`
	IsAsync      bool        `json:"is_async,omitempty"`
	IsExported   bool        `json:"is_exported,omitempty"`
	IsPublic     bool        `json:"is_public,omitempty"`
	DocComment   string      `json:"doc_comment,omitempty"`
	StartLine    int         `json:"start_line"`
	EndLine      int         `json:"end_line"`
	Complexity   int         `json:"complexity"`
	Dependencies []string    `json:"dependencies,omitempty"`
}

// Property describes a class or interface property.
type Property struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Visibility string `json:"visibility"` // "public", "private", "protected"
	Optional   bool   `json:"optional,omitempty"`
}

// ClassInfo describes a class (or struct) declaration.
type ClassInfo struct {
	Name       string              `json:"name"`
	IsExported bool                `json:"is_exported,omitempty"`
	Extends    string              `json:"extends,omitempty"`
	Implements []string            `json:"implements,omitempty"`
	Methods    []FunctionSignature `json:"methods"`
	Properties []Property          `json:"properties"`
	DocComment string              `json:"doc_comment,omitempty"`
	StartLine  int                 `json:"start_line"`
	EndLine    int                 `json:"end_line"`
}

// InterfaceInfo describes an interface (or trait) declaration.
type InterfaceInfo struct {
	Name       string              `json:"name"`
	IsExported bool                `json:"is_exported,omitempty"`
	Methods    []FunctionSignature `json:"methods"`
	Properties []Property          `json:"properties"`
	DocComment string              `json:"doc_comment,omitempty"`
	StartLine  int                 `json:"start_line"`
	EndLine    int                 `json:"end_line"`
}

// TypeInfo describes a type alias or standalone type declaration.
type TypeInfo struct {
	Name       string `json:"name"`
	IsExported bool   `json:"is_exported,omitempty"`
	Definition string `json:"definition,omitempty"`
	DocComment string `json:"doc_comment,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
}

// TotalComplexity sums the cyclomatic complexity of every function and
// method in the file.
func (cf *CodeFile) TotalComplexity() int {
	total := 0
	for _, fn := range cf.Functions {
		total += fn.Complexity
	}
	for _, cls := range cf.Classes {
		for _, m := range cls.Methods {
			total += m.Complexity
		}
	}
	return total
}
