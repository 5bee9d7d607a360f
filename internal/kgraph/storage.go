package kgraph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// Stream file names under the store directory.
	entitiesFile      = "entities.jsonl"
	relationshipsFile = "relationships.jsonl"

	// Versioned marker lines. A foreign file is never silently mistaken
	// for a store stream.
	entitiesMarker      = "docdrift:entities:v1"
	relationshipsMarker = "docdrift:relationships:v1"

	backupsDirName = "backups"
	tempDirName    = ".tmp"

	// DefaultBackupLimit is how many rotating backups are retained.
	DefaultBackupLimit = 10

	// backupTimeFormat names backup directories; sortable and filesystem
	// safe.
	backupTimeFormat = "20060102T150405.000000000"
)

// diskStore handles the on-disk representation: two append-only JSONL
// streams plus a rotating backup directory. All writes are atomic via a
// temp file and rename.
type diskStore struct {
	dir         string
	backupLimit int
}

func newDiskStore(dir string, backupLimit int) (*diskStore, error) {
	if backupLimit <= 0 {
		backupLimit = DefaultBackupLimit
	}
	for _, sub := range []string{"", tempDirName, backupsDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, &StorageError{Op: "init", Err: err}
		}
	}
	return &diskStore{dir: dir, backupLimit: backupLimit}, nil
}

func (d *diskStore) entitiesPath() string {
	return filepath.Join(d.dir, entitiesFile)
}

func (d *diskStore) relationshipsPath() string {
	return filepath.Join(d.dir, relationshipsFile)
}

// load reads both streams. Missing files mean an empty store, not an error.
func (d *diskStore) load() ([]*Node, []*Edge, error) {
	var nodes []*Node
	err := readStream(d.entitiesPath(), entitiesMarker, func(line []byte) error {
		var n Node
		if err := json.Unmarshal(line, &n); err != nil {
			return err
		}
		nodes = append(nodes, &n)
		return nil
	})
	if err != nil {
		return nil, nil, &StorageError{Op: "load entities", Err: err}
	}

	var edges []*Edge
	err = readStream(d.relationshipsPath(), relationshipsMarker, func(line []byte) error {
		var e Edge
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		edges = append(edges, &e)
		return nil
	})
	if err != nil {
		return nil, nil, &StorageError{Op: "load relationships", Err: err}
	}
	return nodes, edges, nil
}

func readStream(path, marker string, each func(line []byte) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%s: empty stream, missing marker %q", path, marker)
	}
	if got := strings.TrimSpace(scanner.Text()); got != marker {
		return fmt.Errorf("%s: unrecognized marker %q, want %q", path, got, marker)
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := each(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// save persists both streams. A backup of the current live files is taken
// first, then each stream is written to the temp directory and renamed over
// the live file.
func (d *diskStore) save(nodes []*Node, edges []*Edge) error {
	if err := d.backup(); err != nil {
		return err
	}

	nodeLines := make([][]byte, 0, len(nodes))
	for _, n := range nodes {
		b, err := json.Marshal(n)
		if err != nil {
			return &StorageError{Op: "marshal entities", Err: err}
		}
		nodeLines = append(nodeLines, b)
	}
	edgeLines := make([][]byte, 0, len(edges))
	for _, e := range edges {
		b, err := json.Marshal(e)
		if err != nil {
			return &StorageError{Op: "marshal relationships", Err: err}
		}
		edgeLines = append(edgeLines, b)
	}

	if err := d.writeStream(entitiesFile, entitiesMarker, nodeLines); err != nil {
		return &StorageError{Op: "write entities", Err: err}
	}
	if err := d.writeStream(relationshipsFile, relationshipsMarker, edgeLines); err != nil {
		return &StorageError{Op: "write relationships", Err: err}
	}
	return nil
}

func (d *diskStore) writeStream(name, marker string, lines [][]byte) error {
	var buf strings.Builder
	buf.WriteString(marker)
	buf.WriteByte('\n')
	for _, line := range lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}

	tempPath := filepath.Join(d.dir, tempDirName, name)
	if err := os.WriteFile(tempPath, []byte(buf.String()), 0644); err != nil {
		return err
	}
	// Atomic rename (POSIX guarantees atomicity).
	return os.Rename(tempPath, filepath.Join(d.dir, name))
}

// backup copies the current live streams into a timestamped directory, then
// prunes old backups beyond the retention limit. A store with no live files
// yet takes no backup.
func (d *diskStore) backup() error {
	if _, err := os.Stat(d.entitiesPath()); os.IsNotExist(err) {
		return nil
	}

	stamp := time.Now().UTC().Format(backupTimeFormat)
	backupDir := filepath.Join(d.dir, backupsDirName, stamp)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return &StorageError{Op: "backup", Err: err}
	}

	for _, name := range []string{entitiesFile, relationshipsFile} {
		src := filepath.Join(d.dir, name)
		data, err := os.ReadFile(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return &StorageError{Op: "backup", Err: err}
		}
		if err := os.WriteFile(filepath.Join(backupDir, name), data, 0644); err != nil {
			return &StorageError{Op: "backup", Err: err}
		}
	}
	return d.pruneBackups()
}

func (d *diskStore) pruneBackups() error {
	stamps, err := d.listBackups()
	if err != nil {
		return err
	}
	for len(stamps) > d.backupLimit {
		oldest := stamps[0]
		if err := os.RemoveAll(filepath.Join(d.dir, backupsDirName, oldest)); err != nil {
			return &StorageError{Op: "prune backups", Err: err}
		}
		stamps = stamps[1:]
	}
	return nil
}

// listBackups returns backup directory names sorted oldest first.
func (d *diskStore) listBackups() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.dir, backupsDirName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "list backups", Err: err}
	}
	var stamps []string
	for _, e := range entries {
		if e.IsDir() {
			stamps = append(stamps, e.Name())
		}
	}
	sort.Strings(stamps)
	return stamps, nil
}

// restore copies the named backup's streams over the live files, atomically
// per stream, and returns the restored contents.
func (d *diskStore) restore(stamp string) ([]*Node, []*Edge, error) {
	backupDir := filepath.Join(d.dir, backupsDirName, stamp)
	if _, err := os.Stat(backupDir); err != nil {
		return nil, nil, &StorageError{Op: "restore", Err: fmt.Errorf("no backup %q: %w", stamp, err)}
	}

	for _, name := range []string{entitiesFile, relationshipsFile} {
		data, err := os.ReadFile(filepath.Join(backupDir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, nil, &StorageError{Op: "restore", Err: err}
		}
		tempPath := filepath.Join(d.dir, tempDirName, name)
		if err := os.WriteFile(tempPath, data, 0644); err != nil {
			return nil, nil, &StorageError{Op: "restore", Err: err}
		}
		if err := os.Rename(tempPath, filepath.Join(d.dir, name)); err != nil {
			return nil, nil, &StorageError{Op: "restore", Err: err}
		}
	}
	return d.load()
}

// storageBytes sums the live stream sizes.
func (d *diskStore) storageBytes() int64 {
	var total int64
	for _, path := range []string{d.entitiesPath(), d.relationshipsPath()} {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}
