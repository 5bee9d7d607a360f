// Package docs models documentation content and extracts structured
// sections from markdown files, including the code symbols each section
// claims to describe.
package docs

import "time"

// Category is the Diátaxis-style documentation type of a section.
type Category string

const (
	CategoryTutorial    Category = "tutorial"
	CategoryHowTo       Category = "how-to"
	CategoryReference   Category = "reference"
	CategoryExplanation Category = "explanation"
)

// DocumentationSection is one header-delimited region of a documentation
// file, with textual references to the code it documents.
type DocumentationSection struct {
	FilePath     string `json:"file_path"`
	SectionTitle string `json:"section_title"`
	ContentHash  string `json:"content_hash"`

	ReferencedCodeFiles []string `json:"referenced_code_files,omitempty"`
	ReferencedFunctions []string `json:"referenced_functions,omitempty"`
	ReferencedClasses   []string `json:"referenced_classes,omitempty"`

	Category        Category  `json:"category"`
	LastUpdated     time.Time `json:"last_updated"`
	HasCodeExamples bool      `json:"has_code_examples"`

	// EffectivenessScore (0-100) estimates how useful the section is as
	// documentation: concrete examples and code references score higher
	// than prose alone.
	EffectivenessScore float64 `json:"effectiveness_score"`

	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// ReferencesSymbol reports whether the section mentions the named function
// or class.
func (s *DocumentationSection) ReferencesSymbol(name string) bool {
	for _, fn := range s.ReferencedFunctions {
		if fn == name {
			return true
		}
	}
	for _, cls := range s.ReferencedClasses {
		if cls == name {
			return true
		}
	}
	return false
}
