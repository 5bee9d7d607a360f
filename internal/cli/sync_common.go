package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/docdrift/docdrift/internal/config"
	"github.com/docdrift/docdrift/internal/git"
	"github.com/docdrift/docdrift/internal/kgraph"
	"github.com/docdrift/docdrift/internal/snapshot"
	"github.com/docdrift/docdrift/internal/syncer"
)

// graphDirName is the knowledge graph directory under the state dir.
const graphDirName = "graph"

// buildSyncer assembles a configured syncer and its dependencies. The
// returned cleanup closes the capturer cache and the graph store.
func buildSyncer(rootDir string, cfg *config.Config, progress snapshot.ProgressReporter) (*syncer.Syncer, func(), error) {
	stateDir, err := cfg.EnsureStateDir(rootDir)
	if err != nil {
		return nil, nil, err
	}

	capturer, err := snapshot.NewCapturer(rootDir, snapshot.CapturerOptions{
		CodePatterns:   cfg.Paths.Code,
		DocPatterns:    cfg.Paths.Docs,
		IgnorePatterns: cfg.Paths.Ignore,
		Workers:        cfg.Sync.Workers,
		Progress:       progress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create capturer: %w", err)
	}

	store, err := openStore(stateDir, cfg)
	if err != nil {
		capturer.Close()
		return nil, nil, err
	}

	opts := syncer.Options{
		Mode:               syncer.Mode(cfg.Sync.Mode),
		AutoApplyThreshold: cfg.Sync.AutoApplyThreshold,
		CreateSnapshot:     cfg.Sync.CreateSnapshot,
		Workers:            cfg.Sync.Workers,
		StalenessCapDays:   cfg.Sync.StalenessCapDays,
		Weights:            cfg.Weights,
	}

	s, err := syncer.New(rootDir, stateDir, capturer, store, git.NewRevisionReader(), opts)
	if err != nil {
		capturer.Close()
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		capturer.Close()
		store.Close()
	}
	return s, cleanup, nil
}

func openStore(stateDir string, cfg *config.Config) (kgraph.Store, error) {
	policy := kgraph.RejectDangling
	if cfg.Storage.IntegrityPolicy == "admit" {
		policy = kgraph.AdmitAndFlag
	}
	store, err := kgraph.Open(filepath.Join(stateDir, graphDirName),
		kgraph.WithIntegrityPolicy(policy),
		kgraph.WithBackupLimit(cfg.Storage.BackupLimit),
		kgraph.WithStaleThreshold(time.Duration(cfg.Storage.StaleNodeDays)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge graph: %w", err)
	}
	return store, nil
}
