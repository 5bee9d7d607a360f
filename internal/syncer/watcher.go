package syncer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before a
// sync run is triggered.
const DefaultDebounce = 500 * time.Millisecond

// Watcher runs a Syncer whenever watched source or documentation files
// settle after a burst of changes.
type Watcher interface {
	// Start begins watching; onRun is invoked after each triggered run.
	Start(ctx context.Context, onRun func(*Result, error)) error
	// Stop halts watching. Safe to call more than once.
	Stop() error
}

type watcher struct {
	fsw        *fsnotify.Watcher
	syncer     *Syncer
	rootDir    string
	extensions map[string]bool
	skipDirs   map[string]bool
	debounce   time.Duration
	onRun      func(*Result, error)

	ctx    context.Context
	cancel context.CancelFunc

	dirtyMu sync.Mutex
	dirty   map[string]bool

	timerMu sync.Mutex
	timer   *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewWatcher creates a Watcher over rootDir. extensions lists the file
// suffixes that trigger runs (e.g. ".ts", ".py", ".md"); skipDirs names
// directory basenames never descended into.
func NewWatcher(rootDir string, syncer *Syncer, extensions, skipDirs []string) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extMap[ext] = true
	}
	skipMap := map[string]bool{".docdrift": true, ".git": true}
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}

	w := &watcher{
		fsw:        fsw,
		syncer:     syncer,
		rootDir:    rootDir,
		extensions: extMap,
		skipDirs:   skipMap,
		debounce:   DefaultDebounce,
		dirty:      make(map[string]bool),
		doneCh:     make(chan struct{}),
	}

	if err := w.addTree(rootDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) Start(ctx context.Context, onRun func(*Result, error)) error {
	w.onRun = onRun
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.loop()
	return nil
}

func (w *watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *watcher) loop() {
	defer close(w.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// New directories join the watch set immediately.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.skipDirs[filepath.Base(event.Name)] {
						if err := w.addTree(event.Name); err != nil {
							log.Printf("warning: watch new directory %s: %v", event.Name, err)
						}
					}
					continue
				}
			}

			if !w.wants(event) {
				continue
			}

			w.dirtyMu.Lock()
			w.dirty[event.Name] = true
			w.dirtyMu.Unlock()

			w.resetTimer(fireCh)

		case <-fireCh:
			w.runOnce()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// runOnce fires one sync run for the accumulated changes.
func (w *watcher) runOnce() {
	w.dirtyMu.Lock()
	if len(w.dirty) == 0 {
		w.dirtyMu.Unlock()
		return
	}
	n := len(w.dirty)
	w.dirty = make(map[string]bool)
	w.dirtyMu.Unlock()

	log.Printf("change burst settled (%d files), running sync", n)
	result, err := w.syncer.Run(w.ctx)
	if w.onRun != nil {
		w.onRun(result, err)
	}
}

func (w *watcher) resetTimer(fireCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (w *watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *watcher) wants(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(event.Name), "/") {
		if w.skipDirs[seg] {
			return false
		}
	}
	return w.extensions[filepath.Ext(event.Name)]
}

func (w *watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("warning: access %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.skipDirs[info.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("warning: watch directory %s: %v", path, err)
		}
		return nil
	})
}
