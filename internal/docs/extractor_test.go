package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN: Markdown Section Extractor
//
// Test Cases:
// 1. Header splitting with line tracking
// 2. Headers inside fenced code blocks are not section boundaries
// 3. Symbol reference detection: files, functions, classes
// 4. Category classification from title and content cues
// 5. Empty files yield no sections
// 6. Effectiveness rewards examples and references
// 7. Context cancellation

const apiDoc = "# API Reference\n" +
	"\n" +
	"The client exposes `fetchUser()` on `UserService`, defined in `src/api.ts`.\n" +
	"\n" +
	"## Getting Started\n" +
	"\n" +
	"A quickstart tutorial for new users.\n" +
	"\n" +
	"```ts\n" +
	"## not a header, just a comment inside code\n" +
	"const user = await fetchUser(\"1\");\n" +
	"```\n" +
	"\n" +
	"## Errors\n" +
	"\n" +
	"Plain prose about error semantics.\n"

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Tests 1-4 share the fixture document.
func TestExtractSections(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, apiDoc)
	sections, err := NewMarkdownExtractor().ExtractSections(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	ref := sections[0]
	assert.Equal(t, "API Reference", ref.SectionTitle)
	assert.Equal(t, 1, ref.StartLine)
	assert.Equal(t, CategoryReference, ref.Category)
	assert.Equal(t, []string{"src/api.ts"}, ref.ReferencedCodeFiles)
	assert.Equal(t, []string{"fetchUser"}, ref.ReferencedFunctions)
	assert.Equal(t, []string{"UserService"}, ref.ReferencedClasses)
	assert.True(t, ref.ReferencesSymbol("fetchUser"))
	assert.True(t, ref.ReferencesSymbol("UserService"))
	assert.False(t, ref.ReferencesSymbol("nothing"))
	assert.False(t, ref.HasCodeExamples)
	assert.NotEmpty(t, ref.ContentHash)

	started := sections[1]
	assert.Equal(t, "Getting Started", started.SectionTitle)
	assert.Equal(t, 5, started.StartLine)
	assert.Equal(t, CategoryTutorial, started.Category)
	assert.True(t, started.HasCodeExamples)

	// The fenced "## not a header" line stayed inside this section.
	errors := sections[2]
	assert.Equal(t, "Errors", errors.SectionTitle)
	assert.Equal(t, 14, errors.StartLine)
	assert.Equal(t, CategoryExplanation, errors.Category)
	assert.False(t, errors.HasCodeExamples)
}

// Test 5: empty content.
func TestExtractSections_Empty(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "   \n\n")
	sections, err := NewMarkdownExtractor().ExtractSections(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestExtractSections_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewMarkdownExtractor().ExtractSections(context.Background(), "/no/such/doc.md")
	require.Error(t, err)
}

// Test 6: examples and references outrank prose.
func TestEffectiveness(t *testing.T) {
	t.Parallel()

	rich := writeDoc(t, "## Usage\n\nCall `connect()` from `src/client.ts`.\n\n```go\nconnect()\n```\n")
	prose := filepath.Join(t.TempDir(), "prose.md")
	require.NoError(t, os.WriteFile(prose, []byte("## Thoughts\n\nSome prose.\n"), 0644))

	richSections, err := NewMarkdownExtractor().ExtractSections(context.Background(), rich)
	require.NoError(t, err)
	proseSections, err := NewMarkdownExtractor().ExtractSections(context.Background(), prose)
	require.NoError(t, err)

	require.Len(t, richSections, 1)
	require.Len(t, proseSections, 1)
	assert.Greater(t, richSections[0].EffectivenessScore, proseSections[0].EffectivenessScore)
	assert.LessOrEqual(t, richSections[0].EffectivenessScore, 100.0)
}

// Test 7: cancelled contexts stop before any file I/O.
func TestExtractSections_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMarkdownExtractor().ExtractSections(ctx, writeDoc(t, apiDoc))
	assert.ErrorIs(t, err, context.Canceled)
}
