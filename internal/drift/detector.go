package drift

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docdrift/docdrift/internal/extract"
)

// Detect diffs two structural models of the same file and returns every
// change, grouped by category and ordered by entity name. Deterministic:
// identical inputs always yield identical output. A nil old or new model is
// treated as empty, so newly added and deleted files reduce to per-entity
// adds and removes.
func Detect(oldFile, newFile *extract.CodeFile) []CodeDiff {
	if oldFile == nil {
		oldFile = &extract.CodeFile{Path: pathOf(newFile)}
	}
	if newFile == nil {
		newFile = &extract.CodeFile{Path: pathOf(oldFile)}
	}
	path := newFile.Path
	if path == "" {
		path = oldFile.Path
	}

	var diffs []CodeDiff
	diffs = append(diffs, diffFunctions(path, oldFile.Functions, newFile.Functions)...)
	diffs = append(diffs, diffClasses(path, oldFile.Classes, newFile.Classes)...)
	diffs = append(diffs, diffInterfaces(path, oldFile.Interfaces, newFile.Interfaces)...)
	diffs = append(diffs, diffTypes(path, oldFile.Types, newFile.Types)...)
	diffs = append(diffs, diffImports(path, oldFile.Imports, newFile.Imports)...)

	covered := make(map[string]bool, len(diffs))
	for _, d := range diffs {
		covered[d.Name] = true
	}
	diffs = append(diffs, diffExports(path, oldFile.Exports, newFile.Exports, covered)...)
	return diffs
}

// DetectProject diffs two snapshot maps of path -> CodeFile. Files present
// in both with identical content hashes are skipped without re-diffing.
func DetectProject(oldFiles, newFiles map[string]*extract.CodeFile) []CodeDiff {
	var diffs []CodeDiff

	paths := make([]string, 0, len(oldFiles)+len(newFiles))
	seen := make(map[string]bool)
	for path := range oldFiles {
		paths = append(paths, path)
		seen[path] = true
	}
	for path := range newFiles {
		if !seen[path] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		oldFile := oldFiles[path]
		newFile := newFiles[path]
		if oldFile != nil && newFile != nil && oldFile.ContentHash == newFile.ContentHash {
			continue
		}
		diffs = append(diffs, Detect(oldFile, newFile)...)
	}
	return diffs
}

func pathOf(cf *extract.CodeFile) string {
	if cf == nil {
		return ""
	}
	return cf.Path
}

func diffFunctions(path string, oldFns, newFns []extract.FunctionSignature) []CodeDiff {
	oldByName := indexFunctions(oldFns)
	newByName := indexFunctions(newFns)

	var diffs []CodeDiff
	for _, name := range sortedKeys(oldByName, newByName) {
		oldFn, inOld := oldByName[name]
		newFn, inNew := newByName[name]

		switch {
		case inOld && !inNew:
			diffs = append(diffs, removedDiff(path, CategoryFunction, name, oldFn.IsExported, &oldFn))
		case !inOld && inNew:
			diffs = append(diffs, addedDiff(path, CategoryFunction, name, &newFn))
		default:
			if diff, changed := compareFunctions(path, CategoryFunction, oldFn, newFn); changed {
				diffs = append(diffs, diff)
			}
		}
	}
	return diffs
}

// compareFunctions records a modification only when parameter count, return
// type, async flag, or export flag differ. Impact precedence, highest first:
// exported signature change or export loss is breaking, async toggle is
// major, gaining export is minor, everything else is patch.
func compareFunctions(path string, category Category, oldFn, newFn extract.FunctionSignature) (CodeDiff, bool) {
	paramsChanged := len(oldFn.Parameters) != len(newFn.Parameters)
	returnChanged := oldFn.ReturnType != newFn.ReturnType
	asyncChanged := oldFn.IsAsync != newFn.IsAsync
	exportChanged := oldFn.IsExported != newFn.IsExported

	if !paramsChanged && !returnChanged && !asyncChanged && !exportChanged {
		return CodeDiff{}, false
	}

	impact := classifyImpact(oldFn, newFn, paramsChanged, returnChanged, asyncChanged)
	o, n := oldFn, newFn
	return CodeDiff{
		Type:           DiffModified,
		Category:       category,
		FilePath:       path,
		Name:           oldFn.Name,
		Details:        describeChange(oldFn, newFn, paramsChanged, returnChanged, asyncChanged, exportChanged),
		OldSignature:   &o,
		NewSignature:   &n,
		Impact:         impact,
		AutoApplicable: impact == ImpactPatch,
	}, true
}

func classifyImpact(oldFn, newFn extract.FunctionSignature, paramsChanged, returnChanged, asyncChanged bool) Impact {
	switch {
	case oldFn.IsExported && newFn.IsExported && (paramsChanged || returnChanged):
		return ImpactBreaking
	case oldFn.IsExported && !newFn.IsExported:
		return ImpactBreaking
	case asyncChanged:
		return ImpactMajor
	case !oldFn.IsExported && newFn.IsExported:
		return ImpactMinor
	default:
		return ImpactPatch
	}
}

func describeChange(oldFn, newFn extract.FunctionSignature, paramsChanged, returnChanged, asyncChanged, exportChanged bool) string {
	var parts []string
	if paramsChanged {
		parts = append(parts, fmt.Sprintf("parameter count %d -> %d", len(oldFn.Parameters), len(newFn.Parameters)))
	}
	if returnChanged {
		parts = append(parts, fmt.Sprintf("return type %q -> %q", oldFn.ReturnType, newFn.ReturnType))
	}
	if asyncChanged {
		parts = append(parts, fmt.Sprintf("async %t -> %t", oldFn.IsAsync, newFn.IsAsync))
	}
	if exportChanged {
		parts = append(parts, fmt.Sprintf("exported %t -> %t", oldFn.IsExported, newFn.IsExported))
	}
	return joinDetails(parts)
}

func diffClasses(path string, oldClasses, newClasses []extract.ClassInfo) []CodeDiff {
	oldByName := make(map[string]extract.ClassInfo, len(oldClasses))
	for _, cls := range oldClasses {
		oldByName[cls.Name] = cls
	}
	newByName := make(map[string]extract.ClassInfo, len(newClasses))
	for _, cls := range newClasses {
		newByName[cls.Name] = cls
	}

	var diffs []CodeDiff
	for _, name := range sortedClassKeys(oldByName, newByName) {
		oldCls, inOld := oldByName[name]
		newCls, inNew := newByName[name]

		switch {
		case inOld && !inNew:
			diffs = append(diffs, removedDiff(path, CategoryClass, name, oldCls.IsExported, nil))
		case !inOld && inNew:
			diffs = append(diffs, addedDiff(path, CategoryClass, name, nil))
		default:
			if diff, changed := compareClasses(path, oldCls, newCls); changed {
				diffs = append(diffs, diff)
			}
		}
	}
	return diffs
}

// compareClasses rolls per-method comparisons and membership changes into a
// single modified diff whose impact is the most severe member change.
func compareClasses(path string, oldCls, newCls extract.ClassInfo) (CodeDiff, bool) {
	impact := ImpactPatch
	var parts []string
	changed := false

	if oldCls.IsExported != newCls.IsExported {
		changed = true
		parts = append(parts, fmt.Sprintf("exported %t -> %t", oldCls.IsExported, newCls.IsExported))
		if oldCls.IsExported && !newCls.IsExported {
			impact = ImpactBreaking
		} else if ImpactMinor.MoreSevere(impact) {
			impact = ImpactMinor
		}
	}
	if oldCls.Extends != newCls.Extends {
		changed = true
		parts = append(parts, fmt.Sprintf("extends %q -> %q", oldCls.Extends, newCls.Extends))
		if newCls.IsExported && ImpactMajor.MoreSevere(impact) {
			impact = ImpactMajor
		}
	}

	oldMethods := indexFunctions(oldCls.Methods)
	newMethods := indexFunctions(newCls.Methods)
	for _, name := range sortedKeys(oldMethods, newMethods) {
		oldM, inOld := oldMethods[name]
		newM, inNew := newMethods[name]

		switch {
		case inOld && !inNew:
			changed = true
			parts = append(parts, fmt.Sprintf("method %s removed", name))
			memberImpact := ImpactMinor
			if oldCls.IsExported && oldM.IsPublic {
				memberImpact = ImpactBreaking
			}
			if memberImpact.MoreSevere(impact) {
				impact = memberImpact
			}
		case !inOld && inNew:
			changed = true
			parts = append(parts, fmt.Sprintf("method %s added", name))
		default:
			// Methods follow function comparison semantics, with
			// IsPublic standing in for export on exported classes.
			oldM.IsExported = oldCls.IsExported && oldM.IsPublic
			newM.IsExported = newCls.IsExported && newM.IsPublic
			if diff, methodChanged := compareFunctions(path, CategoryClass, oldM, newM); methodChanged {
				changed = true
				parts = append(parts, fmt.Sprintf("method %s: %s", name, diff.Details))
				if diff.Impact.MoreSevere(impact) {
					impact = diff.Impact
				}
			}
		}
	}

	if !changed {
		return CodeDiff{}, false
	}
	return CodeDiff{
		Type:           DiffModified,
		Category:       CategoryClass,
		FilePath:       path,
		Name:           oldCls.Name,
		Details:        joinDetails(parts),
		Impact:         impact,
		AutoApplicable: impact == ImpactPatch,
	}, true
}

func diffInterfaces(path string, oldIfaces, newIfaces []extract.InterfaceInfo) []CodeDiff {
	oldByName := make(map[string]extract.InterfaceInfo, len(oldIfaces))
	for _, iface := range oldIfaces {
		oldByName[iface.Name] = iface
	}
	newByName := make(map[string]extract.InterfaceInfo, len(newIfaces))
	for _, iface := range newIfaces {
		newByName[iface.Name] = iface
	}

	var diffs []CodeDiff
	for _, name := range sortedInterfaceKeys(oldByName, newByName) {
		oldIf, inOld := oldByName[name]
		newIf, inNew := newByName[name]

		switch {
		case inOld && !inNew:
			diffs = append(diffs, removedDiff(path, CategoryInterface, name, oldIf.IsExported, nil))
		case !inOld && inNew:
			diffs = append(diffs, addedDiff(path, CategoryInterface, name, nil))
		default:
			if diff, changed := compareInterfaces(path, oldIf, newIf); changed {
				diffs = append(diffs, diff)
			}
		}
	}
	return diffs
}

func compareInterfaces(path string, oldIf, newIf extract.InterfaceInfo) (CodeDiff, bool) {
	impact := ImpactPatch
	var parts []string
	changed := false

	if oldIf.IsExported != newIf.IsExported {
		changed = true
		parts = append(parts, fmt.Sprintf("exported %t -> %t", oldIf.IsExported, newIf.IsExported))
		if oldIf.IsExported && !newIf.IsExported {
			impact = ImpactBreaking
		} else if ImpactMinor.MoreSevere(impact) {
			impact = ImpactMinor
		}
	}

	oldMethods := indexFunctions(oldIf.Methods)
	newMethods := indexFunctions(newIf.Methods)
	for _, name := range sortedKeys(oldMethods, newMethods) {
		oldM, inOld := oldMethods[name]
		newM, inNew := newMethods[name]

		switch {
		case inOld && !inNew:
			changed = true
			parts = append(parts, fmt.Sprintf("method %s removed", name))
			if oldIf.IsExported && ImpactBreaking.MoreSevere(impact) {
				impact = ImpactBreaking
			} else if ImpactMinor.MoreSevere(impact) {
				impact = ImpactMinor
			}
		case !inOld && inNew:
			changed = true
			parts = append(parts, fmt.Sprintf("method %s added", name))
			// A new required method breaks implementors of an
			// exported interface.
			if newIf.IsExported && ImpactMajor.MoreSevere(impact) {
				impact = ImpactMajor
			}
		default:
			if len(oldM.Parameters) != len(newM.Parameters) || oldM.ReturnType != newM.ReturnType {
				changed = true
				parts = append(parts, fmt.Sprintf("method %s signature changed", name))
				if newIf.IsExported && ImpactBreaking.MoreSevere(impact) {
					impact = ImpactBreaking
				}
			}
		}
	}

	if !changed {
		return CodeDiff{}, false
	}
	return CodeDiff{
		Type:           DiffModified,
		Category:       CategoryInterface,
		FilePath:       path,
		Name:           oldIf.Name,
		Details:        joinDetails(parts),
		Impact:         impact,
		AutoApplicable: impact == ImpactPatch,
	}, true
}

func diffTypes(path string, oldTypes, newTypes []extract.TypeInfo) []CodeDiff {
	oldByName := make(map[string]extract.TypeInfo, len(oldTypes))
	for _, typ := range oldTypes {
		oldByName[typ.Name] = typ
	}
	newByName := make(map[string]extract.TypeInfo, len(newTypes))
	for _, typ := range newTypes {
		newByName[typ.Name] = typ
	}

	var diffs []CodeDiff
	for _, name := range sortedTypeKeys(oldByName, newByName) {
		oldT, inOld := oldByName[name]
		newT, inNew := newByName[name]

		switch {
		case inOld && !inNew:
			diffs = append(diffs, removedDiff(path, CategoryType, name, oldT.IsExported, nil))
		case !inOld && inNew:
			diffs = append(diffs, addedDiff(path, CategoryType, name, nil))
		default:
			if oldT.Definition == newT.Definition && oldT.IsExported == newT.IsExported {
				continue
			}
			impact := ImpactPatch
			if oldT.IsExported && newT.IsExported && oldT.Definition != newT.Definition {
				impact = ImpactBreaking
			} else if oldT.IsExported && !newT.IsExported {
				impact = ImpactBreaking
			} else if !oldT.IsExported && newT.IsExported {
				impact = ImpactMinor
			}
			diffs = append(diffs, CodeDiff{
				Type:           DiffModified,
				Category:       CategoryType,
				FilePath:       path,
				Name:           name,
				Details:        fmt.Sprintf("definition %q -> %q", oldT.Definition, newT.Definition),
				Impact:         impact,
				AutoApplicable: impact == ImpactPatch,
			})
		}
	}
	return diffs
}

func diffImports(path string, oldImports, newImports []string) []CodeDiff {
	oldSet := make(map[string]bool, len(oldImports))
	for _, imp := range oldImports {
		oldSet[imp] = true
	}
	newSet := make(map[string]bool, len(newImports))
	for _, imp := range newImports {
		newSet[imp] = true
	}

	names := make([]string, 0, len(oldSet)+len(newSet))
	for imp := range oldSet {
		names = append(names, imp)
	}
	for imp := range newSet {
		if !oldSet[imp] {
			names = append(names, imp)
		}
	}
	sort.Strings(names)

	var diffs []CodeDiff
	for _, name := range names {
		switch {
		case oldSet[name] && !newSet[name]:
			diffs = append(diffs, CodeDiff{
				Type:           DiffRemoved,
				Category:       CategoryImport,
				FilePath:       path,
				Name:           name,
				Details:        "import removed",
				Impact:         ImpactMinor,
				AutoApplicable: false,
			})
		case !oldSet[name] && newSet[name]:
			diffs = append(diffs, CodeDiff{
				Type:           DiffAdded,
				Category:       CategoryImport,
				FilePath:       path,
				Name:           name,
				Details:        "import added",
				Impact:         ImpactPatch,
				AutoApplicable: true,
			})
		}
	}
	return diffs
}

// diffExports covers names in the export surface with no declared entity in
// the file, typically re-exports. Entity-level diffs already account for the
// rest, so covered names are skipped.
func diffExports(path string, oldExports, newExports []string, covered map[string]bool) []CodeDiff {
	oldSet := make(map[string]bool, len(oldExports))
	for _, name := range oldExports {
		oldSet[name] = true
	}
	newSet := make(map[string]bool, len(newExports))
	for _, name := range newExports {
		newSet[name] = true
	}

	names := make([]string, 0, len(oldSet)+len(newSet))
	for name := range oldSet {
		names = append(names, name)
	}
	for name := range newSet {
		if !oldSet[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var diffs []CodeDiff
	for _, name := range names {
		if covered[name] {
			continue
		}
		switch {
		case oldSet[name] && !newSet[name]:
			diffs = append(diffs, CodeDiff{
				Type:     DiffRemoved,
				Category: CategoryExport,
				FilePath: path,
				Name:     name,
				Details:  "export removed",
				Impact:   ImpactBreaking,
			})
		case !oldSet[name] && newSet[name]:
			diffs = append(diffs, CodeDiff{
				Type:           DiffAdded,
				Category:       CategoryExport,
				FilePath:       path,
				Name:           name,
				Details:        "export added",
				Impact:         ImpactPatch,
				AutoApplicable: true,
			})
		}
	}
	return diffs
}

func removedDiff(path string, category Category, name string, exported bool, sig *extract.FunctionSignature) CodeDiff {
	impact := ImpactMinor
	if exported {
		impact = ImpactBreaking
	}
	return CodeDiff{
		Type:         DiffRemoved,
		Category:     category,
		FilePath:     path,
		Name:         name,
		Details:      string(category) + " removed",
		OldSignature: sig,
		Impact:       impact,
	}
}

func addedDiff(path string, category Category, name string, sig *extract.FunctionSignature) CodeDiff {
	return CodeDiff{
		Type:           DiffAdded,
		Category:       category,
		FilePath:       path,
		Name:           name,
		Details:        string(category) + " added",
		NewSignature:   sig,
		Impact:         ImpactPatch,
		AutoApplicable: true,
	}
}

func indexFunctions(fns []extract.FunctionSignature) map[string]extract.FunctionSignature {
	byName := make(map[string]extract.FunctionSignature, len(fns))
	for _, fn := range fns {
		byName[fn.Name] = fn
	}
	return byName
}

func sortedKeys(oldM, newM map[string]extract.FunctionSignature) []string {
	return mergeKeys(keysOfFn(oldM), keysOfFn(newM))
}

func sortedClassKeys(oldM, newM map[string]extract.ClassInfo) []string {
	oldKeys := make([]string, 0, len(oldM))
	for k := range oldM {
		oldKeys = append(oldKeys, k)
	}
	newKeys := make([]string, 0, len(newM))
	for k := range newM {
		newKeys = append(newKeys, k)
	}
	return mergeKeys(oldKeys, newKeys)
}

func sortedInterfaceKeys(oldM, newM map[string]extract.InterfaceInfo) []string {
	oldKeys := make([]string, 0, len(oldM))
	for k := range oldM {
		oldKeys = append(oldKeys, k)
	}
	newKeys := make([]string, 0, len(newM))
	for k := range newM {
		newKeys = append(newKeys, k)
	}
	return mergeKeys(oldKeys, newKeys)
}

func sortedTypeKeys(oldM, newM map[string]extract.TypeInfo) []string {
	oldKeys := make([]string, 0, len(oldM))
	for k := range oldM {
		oldKeys = append(oldKeys, k)
	}
	newKeys := make([]string, 0, len(newM))
	for k := range newM {
		newKeys = append(newKeys, k)
	}
	return mergeKeys(oldKeys, newKeys)
}

func keysOfFn(m map[string]extract.FunctionSignature) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func mergeKeys(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, k := range a {
		if !seen[k] {
			seen[k] = true
			merged = append(merged, k)
		}
	}
	for _, k := range b {
		if !seen[k] {
			seen[k] = true
			merged = append(merged, k)
		}
	}
	sort.Strings(merged)
	return merged
}

func joinDetails(parts []string) string {
	return strings.Join(parts, "; ")
}
