package snapshot

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery walks a project tree and classifies files as code or
// documentation by glob patterns, honoring ignore rules.
type FileDiscovery struct {
	rootDir        string
	codePatterns   []compiledPattern
	docPatterns    []compiledPattern
	ignorePatterns []compiledPattern
}

// NewFileDiscovery compiles the given glob patterns. Patterns match against
// slash-normalized paths relative to rootDir.
func NewFileDiscovery(rootDir string, codePatterns, docPatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	var err error
	if fd.codePatterns, err = compilePatterns(codePatterns); err != nil {
		return nil, err
	}
	if fd.docPatterns, err = compilePatterns(docPatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

// compilePatterns compiles each pattern; a "**/" prefix additionally
// compiles the bare variant so "**/*.md" matches a root-level README.md.
func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var compiled []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})

		if trimmed, ok := strings.CutPrefix(pattern, "**/"); ok {
			g, err := glob.Compile(trimmed, '/')
			if err != nil {
				return nil, err
			}
			compiled = append(compiled, compiledPattern{pattern: trimmed, glob: g})
		}
	}
	return compiled, nil
}

// Discover returns absolute paths of code and documentation files.
func (fd *FileDiscovery) Discover() (codeFiles, docFiles []string, err error) {
	err = filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath) && relPath != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if fd.shouldIgnore(relPath) {
			return nil
		}

		if matchesAny(relPath, fd.codePatterns) {
			codeFiles = append(codeFiles, path)
		} else if matchesAny(relPath, fd.docPatterns) {
			docFiles = append(docFiles, path)
		}
		return nil
	})
	return codeFiles, docFiles, err
}

func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	// The state directory is never part of the project surface.
	if relPath == ".docdrift" || strings.HasPrefix(relPath, ".docdrift/") {
		return true
	}
	if matchesAny(relPath, fd.ignorePatterns) {
		return true
	}
	// A directory should match its own "dir/**" ignore pattern.
	return matchesAny(relPath+"/**", fd.ignorePatterns)
}

func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	return false
}
