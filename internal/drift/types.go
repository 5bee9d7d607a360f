package drift

import "github.com/docdrift/docdrift/internal/extract"

// DiffType classifies what happened to an entity between two snapshots.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// Category identifies the kind of entity a diff refers to.
type Category string

const (
	CategoryFunction  Category = "function"
	CategoryClass     Category = "class"
	CategoryInterface Category = "interface"
	CategoryType      Category = "type"
	CategoryImport    Category = "import"
	CategoryExport    Category = "export"
)

// Impact ranks the severity of a structural change.
type Impact string

const (
	ImpactBreaking Impact = "breaking"
	ImpactMajor    Impact = "major"
	ImpactMinor    Impact = "minor"
	ImpactPatch    Impact = "patch"
)

// rank orders impacts for comparison; higher is more severe.
var impactRank = map[Impact]int{
	ImpactPatch:    0,
	ImpactMinor:    1,
	ImpactMajor:    2,
	ImpactBreaking: 3,
}

// MoreSevere reports whether i outranks other.
func (i Impact) MoreSevere(other Impact) bool {
	return impactRank[i] > impactRank[other]
}

// CodeDiff is one detected structural change. Immutable once produced.
type CodeDiff struct {
	Type     DiffType `json:"type"`
	Category Category `json:"category"`
	FilePath string   `json:"file_path"`
	Name     string   `json:"name"`
	Details  string   `json:"details"`

	OldSignature *extract.FunctionSignature `json:"old_signature,omitempty"`
	NewSignature *extract.FunctionSignature `json:"new_signature,omitempty"`

	Impact Impact `json:"impact_level"`

	// AutoApplicable marks changes whose documentation edits are mechanical
	// (additions and patch-level tweaks) and safe to apply unattended.
	AutoApplicable bool `json:"auto_applicable"`
}
