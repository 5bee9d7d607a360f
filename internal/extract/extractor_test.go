package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the extractor registry:
// - Unsupported extensions return ErrUnsupportedLanguage, never panic
// - Supported reports registration correctly
// - Content hashing is idempotent (same bytes, same digest)
// - Re-extracting an unchanged file yields a structurally identical CodeFile
// - Missing files surface the read error

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	path := writeSource(t, "diagram.svg", "<svg></svg>")

	_, err := r.Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestRegistry_Supported(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.True(t, r.Supported("main.go"))
	assert.True(t, r.Supported("app.ts"))
	assert.True(t, r.Supported("script.PY"))
	assert.False(t, r.Supported("notes.txt"))
	assert.False(t, r.Supported("Makefile"))
}

func TestRegistry_MissingFile(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
}

func TestHashBytes_Idempotent(t *testing.T) {
	t.Parallel()

	content := []byte("package main\n\nfunc main() {}\n")
	first := HashBytes(content)
	second := HashBytes(content)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded sha256

	assert.NotEqual(t, first, HashBytes([]byte("package main\n")))
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	path := writeSource(t, "service.go", `package service

// Fetch returns the thing.
func Fetch(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	return id, nil
}
`)

	first, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	second, err := r.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ContentHash, second.ContentHash)
}

func TestExtract_ContextCancelled(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	path := writeSource(t, "main.go", "package main\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Extract(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
