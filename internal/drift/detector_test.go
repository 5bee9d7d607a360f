package drift

import (
	"testing"

	"github.com/docdrift/docdrift/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN: Drift Detector
//
// Detect compares two structural models of the same file and reports every
// added, removed, and modified entity with a severity ranking.
//
// Test Cases:
// 1. Identical models produce no diffs
// 2. Exported function gains a parameter and changes return type (breaking)
// 3. Private function becomes exported with no signature change (minor)
// 4. Removed exported function is breaking; removed private is minor
// 5. Added entities are patch-level and auto-applicable
// 6. Async toggle without other changes is major
// 7. Class rollup takes the most severe member change
// 8. New required method on an exported interface is major
// 9. Exported type alias redefinition is breaking
// 10. Import add/remove diffs
// 11. Re-export surface changes, entity-covered names skipped
// 12. Project-level detection: hash fast-path, added/removed files, ordering
// 13. Symmetry: adds of Detect(a,b) mirror removes of Detect(b,a)

func fn(name string, exported, async bool, returnType string, params ...string) extract.FunctionSignature {
	sig := extract.FunctionSignature{
		Name:       name,
		IsExported: exported,
		IsPublic:   exported,
		IsAsync:    async,
		ReturnType: returnType,
	}
	for _, p := range params {
		sig.Parameters = append(sig.Parameters, extract.Parameter{Name: p})
	}
	return sig
}

func file(path string, fns ...extract.FunctionSignature) *extract.CodeFile {
	return &extract.CodeFile{Path: path, Language: "typescript", Functions: fns}
}

// Test 1: identical models produce no diffs.
func TestDetect_Identical(t *testing.T) {
	t.Parallel()

	a := file("src/api.ts",
		fn("f", true, false, "void", "x"),
		fn("g", false, false, "", "a", "b"),
	)
	assert.Empty(t, Detect(a, a))
}

// Test 2: exported function gains a parameter and changes return type.
func TestDetect_ExportedSignatureChangeIsBreaking(t *testing.T) {
	t.Parallel()

	oldFile := file("src/api.ts", fn("f", true, false, "void", "x"))
	newFile := file("src/api.ts", fn("f", true, false, "Promise<void>", "x", "y"))

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)

	d := diffs[0]
	assert.Equal(t, DiffModified, d.Type)
	assert.Equal(t, CategoryFunction, d.Category)
	assert.Equal(t, "f", d.Name)
	assert.Equal(t, ImpactBreaking, d.Impact)
	assert.False(t, d.AutoApplicable)
	require.NotNil(t, d.OldSignature)
	require.NotNil(t, d.NewSignature)
	assert.Len(t, d.NewSignature.Parameters, 2)
	assert.Contains(t, d.Details, "parameter count 1 -> 2")
	assert.Contains(t, d.Details, `return type "void" -> "Promise<void>"`)
}

// Test 3: a private function becoming exported, signature unchanged.
func TestDetect_GainingExportIsMinor(t *testing.T) {
	t.Parallel()

	oldFile := file("src/api.ts", fn("g", false, false, "void"))
	newFile := file("src/api.ts", fn("g", true, false, "void"))

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)
	assert.Equal(t, DiffModified, diffs[0].Type)
	assert.Equal(t, ImpactMinor, diffs[0].Impact)
}

// Losing export is the inverse and breaks callers.
func TestDetect_LosingExportIsBreaking(t *testing.T) {
	t.Parallel()

	oldFile := file("src/api.ts", fn("g", true, false, "void"))
	newFile := file("src/api.ts", fn("g", false, false, "void"))

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)
	assert.Equal(t, ImpactBreaking, diffs[0].Impact)
}

// Test 4: removals rank by the visibility of what was removed.
func TestDetect_Removals(t *testing.T) {
	t.Parallel()

	oldFile := file("src/api.ts",
		fn("pub", true, false, "void"),
		fn("priv", false, false, "void"),
	)
	newFile := file("src/api.ts")

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 2)

	// Deterministic name ordering within the category.
	assert.Equal(t, "priv", diffs[0].Name)
	assert.Equal(t, ImpactMinor, diffs[0].Impact)
	assert.Equal(t, "pub", diffs[1].Name)
	assert.Equal(t, ImpactBreaking, diffs[1].Impact)
	for _, d := range diffs {
		assert.Equal(t, DiffRemoved, d.Type)
		assert.False(t, d.AutoApplicable)
	}
}

// Test 5: additions are always patch-level and safe to apply.
func TestDetect_AddedIsPatch(t *testing.T) {
	t.Parallel()

	oldFile := file("src/api.ts")
	newFile := file("src/api.ts", fn("fresh", true, false, "void"))

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)
	assert.Equal(t, DiffAdded, diffs[0].Type)
	assert.Equal(t, ImpactPatch, diffs[0].Impact)
	assert.True(t, diffs[0].AutoApplicable)
}

// Test 6: sync/async toggle changes the calling convention.
func TestDetect_AsyncToggleIsMajor(t *testing.T) {
	t.Parallel()

	oldFile := file("src/api.ts", fn("h", false, false, "void"))
	newFile := file("src/api.ts", fn("h", false, true, "void"))

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)
	assert.Equal(t, ImpactMajor, diffs[0].Impact)
}

// Test 7: class diffs roll member changes into one entry at max severity.
func TestDetect_ClassRollup(t *testing.T) {
	t.Parallel()

	oldFile := &extract.CodeFile{Path: "src/svc.ts", Classes: []extract.ClassInfo{{
		Name:       "UserService",
		IsExported: true,
		Methods: []extract.FunctionSignature{
			fn("find", true, false, "User", "id"),
			fn("evict", true, false, "void"),
		},
	}}}
	newFile := &extract.CodeFile{Path: "src/svc.ts", Classes: []extract.ClassInfo{{
		Name:       "UserService",
		IsExported: true,
		Methods: []extract.FunctionSignature{
			fn("find", true, false, "User", "id"),
			fn("warm", true, false, "void"),
		},
	}}}

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)

	d := diffs[0]
	assert.Equal(t, DiffModified, d.Type)
	assert.Equal(t, CategoryClass, d.Category)
	assert.Equal(t, ImpactBreaking, d.Impact) // public method removed
	assert.Contains(t, d.Details, "method evict removed")
	assert.Contains(t, d.Details, "method warm added")
}

// Test 8: adding a required method breaks implementors, ranked major.
func TestDetect_InterfaceMethodAdded(t *testing.T) {
	t.Parallel()

	oldFile := &extract.CodeFile{Path: "src/cache.ts", Interfaces: []extract.InterfaceInfo{{
		Name:       "Cache",
		IsExported: true,
		Methods:    []extract.FunctionSignature{fn("get", true, false, "string", "key")},
	}}}
	newFile := &extract.CodeFile{Path: "src/cache.ts", Interfaces: []extract.InterfaceInfo{{
		Name:       "Cache",
		IsExported: true,
		Methods: []extract.FunctionSignature{
			fn("get", true, false, "string", "key"),
			fn("purge", true, false, "void"),
		},
	}}}

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)
	assert.Equal(t, CategoryInterface, diffs[0].Category)
	assert.Equal(t, ImpactMajor, diffs[0].Impact)
}

// Test 9: redefining an exported alias is breaking.
func TestDetect_TypeRedefinition(t *testing.T) {
	t.Parallel()

	oldFile := &extract.CodeFile{Path: "src/types.ts", Types: []extract.TypeInfo{
		{Name: "UserID", IsExported: true, Definition: "string"},
	}}
	newFile := &extract.CodeFile{Path: "src/types.ts", Types: []extract.TypeInfo{
		{Name: "UserID", IsExported: true, Definition: "number"},
	}}

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 1)
	assert.Equal(t, CategoryType, diffs[0].Category)
	assert.Equal(t, ImpactBreaking, diffs[0].Impact)
	assert.Contains(t, diffs[0].Details, `"string" -> "number"`)
}

// Test 10: import surface changes.
func TestDetect_Imports(t *testing.T) {
	t.Parallel()

	oldFile := &extract.CodeFile{Path: "src/a.ts", Imports: []string{"axios", "./logger"}}
	newFile := &extract.CodeFile{Path: "src/a.ts", Imports: []string{"./logger", "zod"}}

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 2)
	assert.Equal(t, DiffRemoved, diffs[0].Type)
	assert.Equal(t, "axios", diffs[0].Name)
	assert.Equal(t, ImpactMinor, diffs[0].Impact)
	assert.Equal(t, DiffAdded, diffs[1].Type)
	assert.Equal(t, "zod", diffs[1].Name)
	assert.True(t, diffs[1].AutoApplicable)
}

// Test 11: re-exported names with no local declaration; names already
// covered by an entity diff are not double-reported.
func TestDetect_Exports(t *testing.T) {
	t.Parallel()

	oldFile := &extract.CodeFile{
		Path:      "src/index.ts",
		Functions: []extract.FunctionSignature{fn("local", true, false, "void")},
		Exports:   []string{"local", "Reexported"},
	}
	newFile := &extract.CodeFile{
		Path:    "src/index.ts",
		Exports: []string{},
	}

	diffs := Detect(oldFile, newFile)
	require.Len(t, diffs, 2)

	// "local" surfaces once, as a removed function.
	assert.Equal(t, CategoryFunction, diffs[0].Category)
	assert.Equal(t, "local", diffs[0].Name)

	assert.Equal(t, CategoryExport, diffs[1].Category)
	assert.Equal(t, "Reexported", diffs[1].Name)
	assert.Equal(t, DiffRemoved, diffs[1].Type)
	assert.Equal(t, ImpactBreaking, diffs[1].Impact)
}

// Test 12: project-level detection across snapshot maps.
func TestDetectProject(t *testing.T) {
	t.Parallel()

	unchanged := &extract.CodeFile{Path: "src/same.ts", ContentHash: "abc",
		Functions: []extract.FunctionSignature{fn("stable", true, false, "void")}}
	oldOnly := file("src/gone.ts", fn("dead", true, false, "void"))
	newOnly := file("src/new.ts", fn("born", true, false, "void"))

	oldSnap := map[string]*extract.CodeFile{
		"src/same.ts": unchanged,
		"src/gone.ts": oldOnly,
	}
	newSnap := map[string]*extract.CodeFile{
		"src/same.ts": unchanged,
		"src/new.ts":  newOnly,
	}

	diffs := DetectProject(oldSnap, newSnap)
	require.Len(t, diffs, 2)

	// Paths sort lexicographically, so the removal comes first.
	assert.Equal(t, "src/gone.ts", diffs[0].FilePath)
	assert.Equal(t, DiffRemoved, diffs[0].Type)
	assert.Equal(t, "dead", diffs[0].Name)
	assert.Equal(t, "src/new.ts", diffs[1].FilePath)
	assert.Equal(t, DiffAdded, diffs[1].Type)
	assert.Equal(t, "born", diffs[1].Name)
}

// Test 13: added names in one direction equal removed names in the other.
func TestDetect_Symmetry(t *testing.T) {
	t.Parallel()

	a := file("src/api.ts",
		fn("shared", true, false, "void"),
		fn("onlyA", false, false, "void"),
	)
	b := file("src/api.ts",
		fn("shared", true, false, "void"),
		fn("onlyB", true, false, "void"),
	)

	forward := Detect(a, b)
	backward := Detect(b, a)

	added := func(diffs []CodeDiff) []string {
		var names []string
		for _, d := range diffs {
			if d.Type == DiffAdded {
				names = append(names, d.Name)
			}
		}
		return names
	}
	removed := func(diffs []CodeDiff) []string {
		var names []string
		for _, d := range diffs {
			if d.Type == DiffRemoved {
				names = append(names, d.Name)
			}
		}
		return names
	}

	assert.Equal(t, added(forward), removed(backward))
	assert.Equal(t, removed(forward), added(backward))
}
