// Package snapshot captures the structural state of a whole project: every
// code file's extracted model plus every documentation file's sections.
// Snapshots are the diff baseline for drift detection.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"github.com/docdrift/docdrift/internal/docs"
	"github.com/docdrift/docdrift/internal/extract"
)

// BaselineFileName is the snapshot file under the state directory.
const BaselineFileName = "snapshot.json"

const defaultCacheCapacity = 10_000

// Snapshot is the structural state of a project at one instant.
type Snapshot struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Files map[string]*extract.CodeFile           `json:"files"`
	Docs  map[string][]docs.DocumentationSection `json:"docs"`
}

// Capturer builds snapshots. Extraction runs across a bounded worker pool
// and re-extraction of unchanged content is served from a hash-keyed cache.
type Capturer struct {
	registry  *extract.Registry
	sections  docs.SectionExtractor
	discovery *FileDiscovery
	rootDir   string
	workers   int
	progress  ProgressReporter

	cache otter.Cache[string, *extract.CodeFile]
}

// CapturerOptions configures a Capturer. Zero values pick defaults.
type CapturerOptions struct {
	CodePatterns   []string
	DocPatterns    []string
	IgnorePatterns []string

	// Workers bounds extraction concurrency; defaults to GOMAXPROCS.
	Workers int

	// CacheCapacity bounds the extraction cache entry count.
	CacheCapacity int

	// Progress, when set, receives capture progress callbacks.
	Progress ProgressReporter
}

// ProgressReporter receives capture progress. Implementations must be safe
// for concurrent OnFileExtracted calls.
type ProgressReporter interface {
	OnDiscoveryComplete(codeFiles, docFiles int)
	OnFileExtracted(path string)
	OnCaptureComplete(files, sections int, elapsed time.Duration)
}

// DefaultIgnorePatterns excludes dependency and build output trees.
var DefaultIgnorePatterns = []string{
	"node_modules/**",
	".git/**",
	"vendor/**",
	"dist/**",
	"build/**",
	"target/**",
}

// NewCapturer creates a Capturer rooted at rootDir.
func NewCapturer(rootDir string, opts CapturerOptions) (*Capturer, error) {
	registry := extract.NewRegistry()

	codePatterns := opts.CodePatterns
	if len(codePatterns) == 0 {
		for _, ext := range registry.Extensions() {
			codePatterns = append(codePatterns, "**/*"+ext)
		}
	}
	docPatterns := opts.DocPatterns
	if len(docPatterns) == 0 {
		docPatterns = []string{"**/*.md"}
	}
	ignorePatterns := opts.IgnorePatterns
	if len(ignorePatterns) == 0 {
		ignorePatterns = DefaultIgnorePatterns
	}

	discovery, err := NewFileDiscovery(rootDir, codePatterns, docPatterns, ignorePatterns)
	if err != nil {
		return nil, fmt.Errorf("compile discovery patterns: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	capacity := opts.CacheCapacity
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	cache, err := otter.MustBuilder[string, *extract.CodeFile](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("build extraction cache: %w", err)
	}

	return &Capturer{
		registry:  registry,
		sections:  docs.NewMarkdownExtractor(),
		discovery: discovery,
		rootDir:   rootDir,
		workers:   workers,
		progress:  opts.Progress,
		cache:     cache,
	}, nil
}

// Close releases the extraction cache.
func (c *Capturer) Close() {
	c.cache.Close()
}

// Capture walks the project and extracts every discovered file. Individual
// file failures are logged and skipped; the capture never aborts on one bad
// file. Snapshot keys are slash-normalized paths relative to the root.
func (c *Capturer) Capture(ctx context.Context) (*Snapshot, error) {
	started := time.Now()
	codePaths, docPaths, err := c.discovery.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	if c.progress != nil {
		c.progress.OnDiscoveryComplete(len(codePaths), len(docPaths))
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Files:     make(map[string]*extract.CodeFile, len(codePaths)),
		Docs:      make(map[string][]docs.DocumentationSection, len(docPaths)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	paths := make(chan string)

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				cf, err := c.extractOne(ctx, path)
				if err != nil {
					log.Printf("warning: extract %s: %v", path, err)
					continue
				}
				rel := c.relKey(path)
				cf.Path = rel
				mu.Lock()
				snap.Files[rel] = cf
				mu.Unlock()
				if c.progress != nil {
					c.progress.OnFileExtracted(rel)
				}
			}
		}()
	}

feed:
	for _, path := range codePaths {
		select {
		case paths <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(paths)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, path := range docPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sections, err := c.sections.ExtractSections(ctx, path)
		if err != nil {
			log.Printf("warning: extract sections %s: %v", path, err)
			continue
		}
		rel := c.relKey(path)
		for i := range sections {
			sections[i].FilePath = rel
		}
		snap.Docs[rel] = sections
	}

	if c.progress != nil {
		sections := 0
		for _, s := range snap.Docs {
			sections += len(s)
		}
		c.progress.OnCaptureComplete(len(snap.Files), sections, time.Since(started))
	}
	return snap, nil
}

// extractOne serves unchanged content from the cache, keyed by content
// hash, so repeated captures only pay for parsing changed files.
func (c *Capturer) extractOne(ctx context.Context, path string) (*extract.CodeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hash := extract.HashBytes(data)

	if cached, ok := c.cache.Get(hash); ok {
		copied := *cached
		return &copied, nil
	}

	cf, err := c.registry.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	stored := *cf
	c.cache.Set(hash, &stored)
	return cf, nil
}

func (c *Capturer) relKey(path string) string {
	rel, err := filepath.Rel(c.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// SaveBaseline writes the snapshot atomically under stateDir, replacing the
// previous baseline.
func SaveBaseline(stateDir string, snap *Snapshot) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tempPath := filepath.Join(stateDir, BaselineFileName+".tmp")
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tempPath, filepath.Join(stateDir, BaselineFileName)); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadBaseline reads the previous baseline. A missing file returns nil
// without error: a first run simply has no baseline yet.
func LoadBaseline(stateDir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, BaselineFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}
