package docs

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/docdrift/docdrift/internal/extract"
)

// SectionExtractor parses one documentation file into sections.
type SectionExtractor interface {
	ExtractSections(ctx context.Context, filePath string) ([]DocumentationSection, error)
}

// markdownExtractor implements SectionExtractor for markdown files.
type markdownExtractor struct{}

// NewMarkdownExtractor creates the default markdown section extractor.
func NewMarkdownExtractor() SectionExtractor {
	return &markdownExtractor{}
}

var (
	headerPattern     = regexp.MustCompile(`^(#{1,2})\s+(.*)`)
	inlineCodePattern = regexp.MustCompile("`([^`\n]+)`")
	classNamePattern  = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)
	identPattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// sourceExtensions marks inline code spans that name source files rather
// than symbols.
var sourceExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".go", ".py", ".java",
	".rs", ".rb", ".php", ".c", ".h",
}

// ExtractSections splits a markdown file into sections by top-level and
// second-level headers, tracking line spans. Header markers inside fenced
// code blocks are ignored.
func (m *markdownExtractor) ExtractSections(ctx context.Context, filePath string) ([]DocumentationSection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return []DocumentationSection{}, nil
	}

	modTime := time.Now()
	if info, err := os.Stat(filePath); err == nil {
		modTime = info.ModTime()
	}

	lines := strings.Split(string(data), "\n")

	type rawSection struct {
		title     string
		startLine int
		lines     []string
	}

	sections := []rawSection{}
	current := rawSection{title: "", startLine: 1}
	inFence := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			current.lines = append(current.lines, line)
			continue
		}
		match := headerPattern.FindStringSubmatch(line)
		if match != nil && !inFence {
			if len(current.lines) > 0 || current.title != "" {
				sections = append(sections, current)
			}
			current = rawSection{
				title:     strings.TrimSpace(match[2]),
				startLine: i + 1,
				lines:     []string{line},
			}
			continue
		}
		current.lines = append(current.lines, line)
	}
	if len(current.lines) > 0 || current.title != "" {
		sections = append(sections, current)
	}

	result := make([]DocumentationSection, 0, len(sections))
	for _, raw := range sections {
		text := strings.Join(raw.lines, "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}

		section := DocumentationSection{
			FilePath:     filePath,
			SectionTitle: raw.title,
			ContentHash:  extract.HashBytes([]byte(text)),
			Category:     classify(raw.title, text),
			LastUpdated:  modTime,
			StartLine:    raw.startLine,
			EndLine:      raw.startLine + len(raw.lines) - 1,
		}
		section.HasCodeExamples = strings.Contains(text, "```")
		collectReferences(&section, text)
		section.EffectivenessScore = effectiveness(&section, text)
		result = append(result, section)
	}
	return result, nil
}

// collectReferences scans inline code spans for file paths, function names
// and class names. Results are deduplicated and sorted.
func collectReferences(section *DocumentationSection, text string) {
	files := map[string]bool{}
	functions := map[string]bool{}
	classes := map[string]bool{}

	for _, match := range inlineCodePattern.FindAllStringSubmatch(text, -1) {
		span := strings.TrimSpace(match[1])
		if span == "" {
			continue
		}
		switch {
		case looksLikeSourceFile(span):
			files[span] = true
		case strings.HasSuffix(span, "()"):
			name := strings.TrimSuffix(span, "()")
			if base := lastSegment(name); identPattern.MatchString(name) && base != "" {
				functions[base] = true
			}
		case classNamePattern.MatchString(span):
			classes[span] = true
		}
	}

	section.ReferencedCodeFiles = sortedSet(files)
	section.ReferencedFunctions = sortedSet(functions)
	section.ReferencedClasses = sortedSet(classes)
}

func looksLikeSourceFile(span string) bool {
	if strings.ContainsAny(span, " \t") {
		return false
	}
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(span, ext) {
			return true
		}
	}
	return false
}

// lastSegment strips qualifying prefixes, "svc.fetchUser" -> "fetchUser".
func lastSegment(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// categoryKeywords maps each category to title/content cues. Explanation is
// the fallback when nothing matches.
var categoryKeywords = map[Category][]string{
	CategoryTutorial:  {"tutorial", "getting started", "quickstart", "first steps", "walkthrough"},
	CategoryHowTo:     {"how to", "how-to", "guide", "recipe", "troubleshooting"},
	CategoryReference: {"reference", "api", "options", "parameters", "configuration", "cli"},
}

func classify(title, text string) Category {
	lowerTitle := strings.ToLower(title)
	lowerText := strings.ToLower(text)

	best := CategoryExplanation
	bestScore := 0
	// Fixed evaluation order keeps classification deterministic on ties.
	for _, category := range []Category{CategoryTutorial, CategoryHowTo, CategoryReference} {
		score := 0
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lowerTitle, keyword) {
				score += 3
			}
			if strings.Contains(lowerText, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

// effectiveness scores how actionable a section is: code examples and
// concrete symbol references are worth more than prose volume.
func effectiveness(section *DocumentationSection, text string) float64 {
	score := 20.0
	if section.HasCodeExamples {
		score += 30
	}
	refs := len(section.ReferencedCodeFiles) + len(section.ReferencedFunctions) + len(section.ReferencedClasses)
	score += float64(refs * 10)

	words := len(strings.Fields(text))
	if words >= 50 {
		score += 10
	}
	if words >= 200 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
