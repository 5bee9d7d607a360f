package syncer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docdrift/docdrift/internal/docs"
	"github.com/docdrift/docdrift/internal/drift"
	"github.com/docdrift/docdrift/internal/score"
	"github.com/docdrift/docdrift/internal/snapshot"
)

// sectionMentions reports whether a documentation section claims to
// describe the diffed entity or its file.
func sectionMentions(section *docs.DocumentationSection, diff drift.CodeDiff) bool {
	if section.ReferencesSymbol(diff.Name) {
		return true
	}
	for _, path := range section.ReferencedCodeFiles {
		if path == diff.FilePath {
			return true
		}
	}
	return false
}

// buildChanges turns scored diffs into per-section suggestions. A diff with
// no referencing section yields no change: there is nothing to update, the
// drift itself is still recorded and persisted.
func buildChanges(diffs []drift.CodeDiff, priorities []score.PriorityScore, snap *snapshot.Snapshot) []Change {
	var changes []Change
	for i, diff := range diffs {
		for _, docPath := range sortedDocPaths(snap) {
			for _, section := range snap.Docs[docPath] {
				if !sectionMentions(&section, diff) {
					continue
				}
				changes = append(changes, Change{
					DocPath:      docPath,
					SectionTitle: section.SectionTitle,
					Symbol:       diff.Name,
					Description:  renderSuggestion(diff, section.SectionTitle),
					Diff:         diff,
					Priority:     priorities[i],
				})
			}
		}
	}
	return changes
}

func sortedDocPaths(snap *snapshot.Snapshot) []string {
	paths := make([]string, 0, len(snap.Docs))
	for path := range snap.Docs {
		paths = append(paths, path)
	}
	// Deterministic suggestion order across runs.
	sort.Strings(paths)
	return paths
}

func renderSuggestion(diff drift.CodeDiff, sectionTitle string) string {
	switch diff.Type {
	case drift.DiffRemoved:
		return fmt.Sprintf("remove or rewrite references to deleted %s %q in section %q",
			diff.Category, diff.Name, sectionTitle)
	case drift.DiffAdded:
		return fmt.Sprintf("document new %s %q in section %q",
			diff.Category, diff.Name, sectionTitle)
	default:
		return fmt.Sprintf("update section %q for changed %s %q: %s",
			sectionTitle, diff.Category, diff.Name, diff.Details)
	}
}

// noticeMarker identifies docdrift-managed lines in documentation files.
const noticeMarker = "<!-- docdrift:"

// applyChange mutates the target documentation file: a freshness marker
// recording the revision and timestamp the section was validated against,
// followed by the update note, is inserted (or refreshed) directly under
// the section header. Returns an error when the section cannot be located;
// the caller demotes the change to pending.
func applyChange(rootDir string, change *Change, revision string, now time.Time) error {
	path := filepath.Join(rootDir, filepath.FromSlash(change.DocPath))
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", change.DocPath, err)
	}

	lines := strings.Split(string(data), "\n")
	headerIdx := findSectionHeader(lines, change.SectionTitle)
	if headerIdx < 0 {
		return fmt.Errorf("section %q not found in %s", change.SectionTitle, change.DocPath)
	}

	notice := fmt.Sprintf("%s validated rev=%s at=%s note=%q -->",
		noticeMarker, revision, now.UTC().Format(time.RFC3339), change.Description)

	// Refresh an existing notice in place; otherwise insert after the
	// header.
	if headerIdx+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[headerIdx+1]), noticeMarker) {
		lines[headerIdx+1] = notice
	} else {
		updated := make([]string, 0, len(lines)+1)
		updated = append(updated, lines[:headerIdx+1]...)
		updated = append(updated, notice)
		updated = append(updated, lines[headerIdx+1:]...)
		lines = updated
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("write %s: %w", change.DocPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", change.DocPath, err)
	}
	return nil
}

func findSectionHeader(lines []string, title string) int {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		header := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if header == title {
			return i
		}
	}
	return -1
}
