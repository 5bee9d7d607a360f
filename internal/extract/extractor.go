package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrUnsupportedLanguage is returned when no extractor is registered for a
// file's extension. Callers should treat it as a skip, not a failure.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Extractor parses one source file into a structural model.
// Implementations degrade gracefully: a parse failure on a supported
// language yields a CodeFile with empty collections, not an error.
type Extractor interface {
	// Extract parses the file at path and returns its structure.
	Extract(ctx context.Context, path string) (*CodeFile, error)

	// Language returns the language identifier (e.g., "typescript").
	Language() string

	// Extensions returns the file extensions this extractor handles,
	// with leading dot.
	Extensions() []string
}

// Registry dispatches extraction to per-language extractors by extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates a registry with all built-in language extractors.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(NewGoExtractor())
	r.Register(NewTypeScriptExtractor())
	r.Register(NewJavaScriptExtractor())
	r.Register(NewPythonExtractor())
	r.Register(NewJavaExtractor())
	r.Register(NewRustExtractor())
	r.Register(NewRubyExtractor())
	r.Register(NewPHPExtractor())
	r.Register(NewCExtractor())
	return r
}

// Register adds an extractor for its extensions, replacing any previous
// registration for the same extensions.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[ext] = e
	}
}

// Extensions returns every registered extension, sorted, with leading dot.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether the file's extension has a registered extractor.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract parses the file at path with the extractor registered for its
// extension. Returns ErrUnsupportedLanguage (wrapped) for unknown extensions.
func (r *Registry) Extract(ctx context.Context, path string) (*CodeFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}
	return e.Extract(ctx, path)
}

// HashBytes returns the hex-encoded sha256 digest of content. Identical
// content always yields an identical hash.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// newCodeFile builds the base model shared by every extractor: hash, line
// count, modification time, and empty collections.
func newCodeFile(path, language string, source []byte) *CodeFile {
	cf := &CodeFile{
		Path:        path,
		Language:    language,
		Functions:   []FunctionSignature{},
		Classes:     []ClassInfo{},
		Interfaces:  []InterfaceInfo{},
		Types:       []TypeInfo{},
		Imports:     []string{},
		Exports:     []string{},
		ContentHash: HashBytes(source),
		LinesOfCode: countLines(source),
	}
	if info, err := os.Stat(path); err == nil {
		cf.LastModified = info.ModTime()
	} else {
		cf.LastModified = time.Now()
	}
	return cf
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}
