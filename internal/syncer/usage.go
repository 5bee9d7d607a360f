package syncer

import (
	"time"

	"github.com/docdrift/docdrift/internal/drift"
	"github.com/docdrift/docdrift/internal/extract"
	"github.com/docdrift/docdrift/internal/score"
	"github.com/docdrift/docdrift/internal/snapshot"
)

// usageIndex aggregates project-wide reference counts and normalization
// ceilings from one snapshot. Built once per run, then consulted per diff.
type usageIndex struct {
	refCounts         map[string]int
	maxRefCount       int
	complexityCeiling int
}

// buildUsageIndex counts textual references to each symbol: call-site
// dependencies recorded by extraction plus import statements.
func buildUsageIndex(snap *snapshot.Snapshot) *usageIndex {
	idx := &usageIndex{refCounts: make(map[string]int)}

	bump := func(name string) {
		if name == "" {
			return
		}
		idx.refCounts[name]++
		if idx.refCounts[name] > idx.maxRefCount {
			idx.maxRefCount = idx.refCounts[name]
		}
	}

	for _, cf := range snap.Files {
		for _, fn := range cf.Functions {
			for _, dep := range fn.Dependencies {
				bump(dep)
			}
			if fn.Complexity > idx.complexityCeiling {
				idx.complexityCeiling = fn.Complexity
			}
		}
		for _, cls := range cf.Classes {
			for _, m := range cls.Methods {
				for _, dep := range m.Dependencies {
					bump(dep)
				}
				if m.Complexity > idx.complexityCeiling {
					idx.complexityCeiling = m.Complexity
				}
			}
			bump(cls.Extends)
		}
		for _, imp := range cf.Imports {
			bump(lastPathSegment(imp))
		}
	}
	return idx
}

func lastPathSegment(imp string) string {
	last := imp
	for i := len(imp) - 1; i >= 0; i-- {
		if imp[i] == '/' {
			last = imp[i+1:]
			break
		}
	}
	return last
}

// metadataFor assembles the scoring context for one diff: its reference
// counts, the changed entity's complexity, and the freshness and coverage
// of the documentation that mentions it.
func (idx *usageIndex) metadataFor(diff drift.CodeDiff, snap *snapshot.Snapshot, capDays float64) score.UsageMetadata {
	meta := score.UsageMetadata{
		CallCount:         idx.refCounts[diff.Name],
		ProjectMaxUsage:   idx.maxRefCount,
		ComplexityCeiling: idx.complexityCeiling,
		StalenessCapDays:  capDays,
	}

	meta.Complexity = entityComplexity(diff, snap.Files[diff.FilePath])

	var covered, hasDocComment bool
	var newest time.Time
	for _, sections := range snap.Docs {
		for _, section := range sections {
			if !sectionMentions(&section, diff) {
				continue
			}
			covered = true
			if section.LastUpdated.After(newest) {
				newest = section.LastUpdated
			}
		}
	}
	if cf := snap.Files[diff.FilePath]; cf != nil {
		hasDocComment = entityHasDocComment(diff, cf)
	}

	switch {
	case covered && hasDocComment:
		meta.DocCoverage = 1.0
	case covered || hasDocComment:
		meta.DocCoverage = 0.5
	}

	if newest.IsZero() {
		// Undocumented or never-updated docs saturate staleness.
		meta.DaysSinceDocUpdate = capDaysOrDefault(capDays)
	} else {
		meta.DaysSinceDocUpdate = time.Since(newest).Hours() / 24
	}
	return meta
}

func capDaysOrDefault(capDays float64) float64 {
	if capDays <= 0 {
		return score.DefaultStalenessCapDays
	}
	return capDays
}

func entityComplexity(diff drift.CodeDiff, cf *extract.CodeFile) int {
	if cf == nil {
		return 0
	}
	switch diff.Category {
	case drift.CategoryFunction:
		for _, fn := range cf.Functions {
			if fn.Name == diff.Name {
				return fn.Complexity
			}
		}
	case drift.CategoryClass:
		for _, cls := range cf.Classes {
			if cls.Name != diff.Name {
				continue
			}
			total := 0
			for _, m := range cls.Methods {
				total += m.Complexity
			}
			return total
		}
	}
	return 0
}

func entityHasDocComment(diff drift.CodeDiff, cf *extract.CodeFile) bool {
	switch diff.Category {
	case drift.CategoryFunction:
		for _, fn := range cf.Functions {
			if fn.Name == diff.Name {
				return fn.DocComment != ""
			}
		}
	case drift.CategoryClass:
		for _, cls := range cf.Classes {
			if cls.Name == diff.Name {
				return cls.DocComment != ""
			}
		}
	case drift.CategoryInterface:
		for _, iface := range cf.Interfaces {
			if iface.Name == diff.Name {
				return iface.DocComment != ""
			}
		}
	case drift.CategoryType:
		for _, typ := range cf.Types {
			if typ.Name == diff.Name {
				return typ.DocComment != ""
			}
		}
	}
	return false
}
