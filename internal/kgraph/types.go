// Package kgraph is a typed knowledge-graph store with durable persistence.
// Nodes carry schema-validated properties; edges relate them with weights
// and confidence. Every write goes to disk atomically, with rotating
// backups taken before each write.
package kgraph

import (
	"fmt"
	"time"
)

// NodeType tags the use-case a node represents. The set is open: callers
// may store types without a registered schema, which then skip property
// validation.
type NodeType string

const (
	NodeCodeFile             NodeType = "code_file"
	NodeDocumentationSection NodeType = "documentation_section"
	NodeDriftEvent           NodeType = "drift_event"
	NodePriorityScore        NodeType = "priority_score"
)

// EdgeType classifies a relationship between two nodes.
type EdgeType string

const (
	EdgeDocuments  EdgeType = "documents"  // doc section -> code file
	EdgeDrifted    EdgeType = "drifted"    // drift event -> code file
	EdgeScored     EdgeType = "scored"     // priority score -> drift event
	EdgeReferences EdgeType = "references" // doc section -> doc section
)

// Node is one graph entity. Created on first observation, updated in place
// on re-analysis, never hard-deleted except by explicit repair.
type Node struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Label       string         `json:"label"`
	Properties  map[string]any `json:"properties,omitempty"`
	Weight      float64        `json:"weight"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Edge is one directed relationship between two nodes.
type Edge struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Target      string         `json:"target"`
	Type        EdgeType       `json:"type"`
	Weight      float64        `json:"weight"`
	Confidence  float64        `json:"confidence"`
	Properties  map[string]any `json:"properties,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Path is one simple path discovered by FindPaths: n nodes joined by n-1
// edges in traversal order.
type Path struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NodeCriteria selects nodes. Zero-valued fields match anything; Properties
// entries must all match exactly.
type NodeCriteria struct {
	ID         string
	Type       NodeType
	Label      string
	Properties map[string]any
}

// EdgeCriteria selects edges by any combination of source, target and type.
type EdgeCriteria struct {
	Source string
	Target string
	Type   EdgeType
}

// Stats summarizes store contents and on-disk footprint.
type Stats struct {
	TotalNodes   int              `json:"total_nodes"`
	TotalEdges   int              `json:"total_edges"`
	NodesByType  map[NodeType]int `json:"nodes_by_type"`
	EdgesByType  map[EdgeType]int `json:"edges_by_type"`
	StorageBytes int64            `json:"storage_bytes"`
	BackupCount  int              `json:"backup_count"`
}

// IntegrityReport counts problems found by VerifyIntegrity. Nothing is
// auto-repaired.
type IntegrityReport struct {
	OrphanedEdges int      `json:"orphaned_edges"`
	DuplicateIDs  int      `json:"duplicate_ids"`
	StaleNodes    int      `json:"stale_nodes"`
	Details       []string `json:"details,omitempty"`
}

// Clean reports whether the store passed every check.
func (r IntegrityReport) Clean() bool {
	return r.OrphanedEdges == 0 && r.DuplicateIDs == 0 && r.StaleNodes == 0
}

// ValidationError rejects a node or edge whose properties do not match the
// schema registered for its type. The offending field is named.
type ValidationError struct {
	EntityID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q: field %q %s", e.EntityID, e.Field, e.Reason)
}

// DanglingReferenceError rejects an edge whose source or target node does
// not exist, under the strict integrity policy.
type DanglingReferenceError struct {
	EdgeID  string
	Missing string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("edge %q references missing node %q", e.EdgeID, e.Missing)
}

// StorageError wraps a persistence failure. The atomic write pattern
// guarantees the prior on-disk state is intact when one is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
