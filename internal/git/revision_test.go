package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Outside a repository every lookup falls back to "unknown" rather than
// failing; freshness metadata simply records that nothing was resolvable.
func TestRevisionReader_NotARepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := NewRevisionReader()

	assert.Equal(t, "unknown", r.CurrentRevision(dir))
	assert.False(t, r.IsRepository(dir))
}

func TestMockRevisionReader(t *testing.T) {
	t.Parallel()

	m := NewMockRevisionReader()
	assert.Equal(t, "main", m.CurrentBranch("anywhere"))
	assert.True(t, m.IsRepo)
	assert.Len(t, m.CurrentRevision("anywhere"), 40)
}
