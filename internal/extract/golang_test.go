package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the Go extractor:
// - Structs map to classes with field visibility from capitalization
// - Methods attach to their receiver's class entry
// - Interfaces carry method signatures with parameters and returns
// - Type declarations (non-struct, non-interface) land in Types
// - Imports, exports, doc comments, and complexity are captured
// - A file with syntax errors degrades to an empty structure, not an error

const goSample = `package store

import (
	"context"
	"fmt"
)

// Store persists widgets.
type Store interface {
	Get(ctx context.Context, id string) (*Widget, error)
	Put(ctx context.Context, w *Widget) error
}

// Widget is a storable thing.
type Widget struct {
	ID    string
	name  string
	Count int
}

type widgetID string

// Describe renders the widget.
func (w *Widget) Describe() string {
	if w.Count > 1 {
		return fmt.Sprintf("%s x%d", w.ID, w.Count)
	}
	return w.ID
}

// Open creates a store rooted at dir.
func Open(dir string, opts ...string) (*Widget, error) {
	for _, opt := range opts {
		switch opt {
		case "a":
			fmt.Println(opt)
		case "b":
			fmt.Println(opt)
		}
	}
	return nil, nil
}

func helper() {}
`

func extractGo(t *testing.T) *CodeFile {
	t.Helper()
	path := writeSource(t, "store.go", goSample)
	cf, err := NewGoExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	return cf
}

func TestGo_StructAndMethods(t *testing.T) {
	t.Parallel()

	cf := extractGo(t)
	assert.Equal(t, "go", cf.Language)

	require.Len(t, cf.Classes, 1)
	cls := cf.Classes[0]
	assert.Equal(t, "Widget", cls.Name)
	assert.True(t, cls.IsExported)
	assert.Equal(t, "Widget is a storable thing.", cls.DocComment)

	require.Len(t, cls.Properties, 3)
	assert.Equal(t, "public", cls.Properties[0].Visibility)
	assert.Equal(t, "private", cls.Properties[1].Visibility)

	require.Len(t, cls.Methods, 1)
	method := cls.Methods[0]
	assert.Equal(t, "Describe", method.Name)
	assert.Equal(t, "string", method.ReturnType)
	assert.Equal(t, 2, method.Complexity) // 1 + if
	assert.Contains(t, method.Dependencies, "Sprintf")
}

func TestGo_Interface(t *testing.T) {
	t.Parallel()

	cf := extractGo(t)
	require.Len(t, cf.Interfaces, 1)
	iface := cf.Interfaces[0]

	assert.Equal(t, "Store", iface.Name)
	assert.True(t, iface.IsExported)
	assert.Equal(t, "Store persists widgets.", iface.DocComment)
	require.Len(t, iface.Methods, 2)
	assert.Equal(t, "Get", iface.Methods[0].Name)
	assert.Equal(t, "(*Widget, error)", iface.Methods[0].ReturnType)
	require.Len(t, iface.Methods[0].Parameters, 2)
	assert.Equal(t, "context.Context", iface.Methods[0].Parameters[0].Type)
}

func TestGo_FunctionsAndTypes(t *testing.T) {
	t.Parallel()

	cf := extractGo(t)

	open := findFunction(t, cf, "Open")
	assert.True(t, open.IsExported)
	assert.Equal(t, "Open creates a store rooted at dir.", open.DocComment)
	require.Len(t, open.Parameters, 2)
	assert.True(t, open.Parameters[1].Optional) // variadic
	assert.Equal(t, "...string", open.Parameters[1].Type)
	// 1 + for + two case clauses
	assert.Equal(t, 4, open.Complexity)

	helper := findFunction(t, cf, "helper")
	assert.False(t, helper.IsExported)

	require.Len(t, cf.Types, 1)
	assert.Equal(t, "widgetID", cf.Types[0].Name)
	assert.False(t, cf.Types[0].IsExported)
	assert.Equal(t, "string", cf.Types[0].Definition)

	assert.Equal(t, []string{"context", "fmt"}, cf.Imports)
	assert.Contains(t, cf.Exports, "Widget")
	assert.Contains(t, cf.Exports, "Store")
	assert.Contains(t, cf.Exports, "Open")
	assert.NotContains(t, cf.Exports, "helper")
	assert.NotContains(t, cf.Exports, "widgetID")
}

func TestGo_ParseFailureDegrades(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "broken.go", "package {{{ nope")
	cf, err := NewGoExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, cf)

	assert.Empty(t, cf.Functions)
	assert.Empty(t, cf.Classes)
	assert.NotEmpty(t, cf.ContentHash)
	assert.Equal(t, 1, cf.LinesOfCode)
}
