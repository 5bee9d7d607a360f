package kgraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
)

// IntegrityPolicy decides what happens to an edge referencing a missing
// node at insert time.
type IntegrityPolicy int

const (
	// RejectDangling refuses the insert with a DanglingReferenceError.
	// This is the default.
	RejectDangling IntegrityPolicy = iota

	// AdmitAndFlag accepts the edge; VerifyIntegrity reports it as
	// orphaned until the missing node appears or the edge is repaired.
	AdmitAndFlag
)

// DefaultStaleThreshold is how long a node may go untouched before
// VerifyIntegrity counts it as stale.
const DefaultStaleThreshold = 90 * 24 * time.Hour

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a durable typed graph. A single writer per storage directory is
// assumed; concurrent processes need an external lock.
type Store interface {
	// AddNode validates and upserts a node. Existing nodes are updated in
	// place; insertion order is preserved for queries.
	AddNode(node *Node) error

	// AddEdge validates endpoint references per the integrity policy and
	// inserts the edge. An empty edge ID is assigned automatically.
	AddEdge(edge *Edge) error

	// FindNode returns the first node matching the criteria in insertion
	// order.
	FindNode(criteria NodeCriteria) (*Node, bool)

	// FindNodes returns all matching nodes in insertion order. Results
	// are detached copies; mutating them does not affect the store.
	FindNodes(criteria NodeCriteria) []*Node

	// FindEdges returns all edges matching any combination of source,
	// target and type, in insertion order. Results are detached copies.
	FindEdges(criteria EdgeCriteria) []*Edge

	// FindPaths returns every simple path from start to end using at most
	// maxDepth edges. Parallel edges between the same node pair yield one
	// path per edge. Missing endpoints yield an empty result, not an
	// error.
	FindPaths(startID, endID string, maxDepth int) ([]Path, error)

	// Statistics reports node/edge counts by type and storage footprint.
	Statistics() (Stats, error)

	// VerifyIntegrity detects orphaned edges, duplicate ids and stale
	// nodes. Counts only; nothing is repaired.
	VerifyIntegrity() IntegrityReport

	// Backups lists available backup timestamps, oldest first.
	Backups() ([]string, error)

	// Restore rolls the whole store back to the named backup.
	Restore(stamp string) error

	// Export writes a single-file JSON dump of the store to path.
	Export(path string) error

	// Close releases the store. Further operations fail with ErrClosed;
	// query methods without an error return yield no results.
	Close() error
}

// Option configures a store at Open time.
type Option func(*store)

// WithIntegrityPolicy selects the dangling-edge policy.
func WithIntegrityPolicy(p IntegrityPolicy) Option {
	return func(s *store) { s.policy = p }
}

// WithBackupLimit overrides the rotating backup retention count.
func WithBackupLimit(n int) Option {
	return func(s *store) { s.backupLimit = n }
}

// WithStaleThreshold overrides the node staleness threshold used by
// VerifyIntegrity.
func WithStaleThreshold(d time.Duration) Option {
	return func(s *store) { s.staleAfter = d }
}

// WithSchemaRegistry replaces the built-in schema registry.
func WithSchemaRegistry(r *SchemaRegistry) Option {
	return func(s *store) { s.registry = r }
}

type store struct {
	mu sync.RWMutex

	disk        *diskStore
	registry    *SchemaRegistry
	policy      IntegrityPolicy
	staleAfter  time.Duration
	backupLimit int
	closed      bool

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	// g mirrors nodes and resolvable edges for traversal. Edges with a
	// missing endpoint (admit policy) live only in the edge maps.
	g graph.Graph[string, *Node]

	// loadDuplicates counts duplicate ids seen in the streams at Open.
	loadDuplicates int

	now func() time.Time
}

// Open loads or creates a store in dir. The caller owns the instance and
// must Close it; there is no ambient global store.
func Open(dir string, opts ...Option) (Store, error) {
	s := &store{
		registry:   NewSchemaRegistry(),
		policy:     RejectDangling,
		staleAfter: DefaultStaleThreshold,
		nodes:      make(map[string]*Node),
		edges:      make(map[string]*Edge),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	disk, err := newDiskStore(dir, s.backupLimit)
	if err != nil {
		return nil, err
	}
	s.disk = disk

	nodes, edges, err := disk.load()
	if err != nil {
		return nil, err
	}

	s.g = graph.New(func(n *Node) string { return n.ID }, graph.Directed())
	for _, n := range nodes {
		if _, dup := s.nodes[n.ID]; dup {
			s.loadDuplicates++
			*s.nodes[n.ID] = *n // later record wins, order kept
			continue
		}
		s.nodes[n.ID] = n
		s.nodeOrder = append(s.nodeOrder, n.ID)
		_ = s.g.AddVertex(n)
	}
	for _, e := range edges {
		if _, dup := s.edges[e.ID]; dup {
			s.loadDuplicates++
			*s.edges[e.ID] = *e
			continue
		}
		s.edges[e.ID] = e
		s.edgeOrder = append(s.edgeOrder, e.ID)
		s.linkEdge(e)
	}
	return s, nil
}

// linkEdge mirrors an edge into the traversal graph when both endpoints
// exist. Parallel edges collapse to one adjacency entry, which is enough
// for path finding; the concrete Edge is resolved from the edge index.
func (s *store) linkEdge(e *Edge) {
	if _, ok := s.nodes[e.Source]; !ok {
		return
	}
	if _, ok := s.nodes[e.Target]; !ok {
		return
	}
	if err := s.g.AddEdge(e.Source, e.Target); err != nil &&
		!errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return
	}
}

func (s *store) AddNode(node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if node.ID == "" {
		return &ValidationError{EntityID: "", Field: "id", Reason: "is required"}
	}
	if err := s.registry.Validate(node); err != nil {
		return err
	}

	node.LastUpdated = s.now()
	if existing, ok := s.nodes[node.ID]; ok {
		*existing = *node
	} else {
		stored := *node
		s.nodes[node.ID] = &stored
		s.nodeOrder = append(s.nodeOrder, node.ID)
		_ = s.g.AddVertex(s.nodes[node.ID])
		// A node appearing may resolve previously dangling edges.
		for _, id := range s.edgeOrder {
			e := s.edges[id]
			if e.Source == node.ID || e.Target == node.ID {
				s.linkEdge(e)
			}
		}
	}
	return s.persist()
}

func (s *store) AddEdge(edge *Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.Source == "" || edge.Target == "" {
		return &ValidationError{EntityID: edge.ID, Field: "source/target", Reason: "is required"}
	}

	if s.policy == RejectDangling {
		if _, ok := s.nodes[edge.Source]; !ok {
			return &DanglingReferenceError{EdgeID: edge.ID, Missing: edge.Source}
		}
		if _, ok := s.nodes[edge.Target]; !ok {
			return &DanglingReferenceError{EdgeID: edge.ID, Missing: edge.Target}
		}
	}

	edge.LastUpdated = s.now()
	if existing, ok := s.edges[edge.ID]; ok {
		*existing = *edge
	} else {
		stored := *edge
		s.edges[edge.ID] = &stored
		s.edgeOrder = append(s.edgeOrder, edge.ID)
	}
	s.linkEdge(s.edges[edge.ID])
	return s.persist()
}

// persist must be called with the write lock held.
func (s *store) persist() error {
	nodes := make([]*Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		nodes = append(nodes, s.nodes[id])
	}
	edges := make([]*Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		edges = append(edges, s.edges[id])
	}
	return s.disk.save(nodes, edges)
}

func (s *store) FindNode(criteria NodeCriteria) (*Node, bool) {
	matches := s.FindNodes(criteria)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}

func (s *store) FindNodes(criteria NodeCriteria) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}

	var matches []*Node
	for _, id := range s.nodeOrder {
		n := s.nodes[id]
		if criteria.ID != "" && n.ID != criteria.ID {
			continue
		}
		if criteria.Type != "" && n.Type != criteria.Type {
			continue
		}
		if criteria.Label != "" && n.Label != criteria.Label {
			continue
		}
		if !propertiesMatch(n.Properties, criteria.Properties) {
			continue
		}
		matches = append(matches, copyNode(n))
	}
	return matches
}

// copyNode detaches a node from store state: the Properties map is cloned
// so callers can mutate results without corrupting what persist() writes.
func copyNode(n *Node) *Node {
	copied := *n
	if n.Properties != nil {
		copied.Properties = make(map[string]any, len(n.Properties))
		for key, value := range n.Properties {
			copied.Properties[key] = value
		}
	}
	return &copied
}

func copyEdge(e *Edge) *Edge {
	copied := *e
	if e.Properties != nil {
		copied.Properties = make(map[string]any, len(e.Properties))
		for key, value := range e.Properties {
			copied.Properties[key] = value
		}
	}
	return &copied
}

func propertiesMatch(have, want map[string]any) bool {
	for field, expected := range want {
		actual, ok := have[field]
		if !ok || fmt.Sprint(actual) != fmt.Sprint(expected) {
			return false
		}
	}
	return true
}

func (s *store) FindEdges(criteria EdgeCriteria) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}

	var matches []*Edge
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		if criteria.Source != "" && e.Source != criteria.Source {
			continue
		}
		if criteria.Target != "" && e.Target != criteria.Target {
			continue
		}
		if criteria.Type != "" && e.Type != criteria.Type {
			continue
		}
		matches = append(matches, copyEdge(e))
	}
	return matches
}

// FindPaths enumerates simple paths breadth-first over the adjacency map,
// bounded by maxDepth edges so cyclic graphs always terminate. Neighbor
// order is sorted for deterministic output.
func (s *store) FindPaths(startID, endID string, maxDepth int) ([]Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	if _, ok := s.nodes[startID]; !ok {
		return nil, nil
	}
	if _, ok := s.nodes[endID]; !ok {
		return nil, nil
	}
	if maxDepth <= 0 {
		return nil, nil
	}

	adjacency, err := s.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}

	// Breadth-first over partial trails: shorter paths surface first and
	// the simple-path constraint bounds each trail, so cycles terminate.
	var paths []Path
	frontier := [][]string{{startID}}
	for len(frontier) > 0 {
		trail := frontier[0]
		frontier = frontier[1:]

		current := trail[len(trail)-1]
		if current == endID && len(trail) > 1 {
			paths = append(paths, s.materializePaths(trail)...)
			continue
		}
		if len(trail)-1 >= maxDepth {
			continue
		}
		for _, next := range sortedNeighbors(adjacency[current]) {
			if containsID(trail, next) {
				continue
			}
			extended := make([]string, len(trail), len(trail)+1)
			copy(extended, trail)
			frontier = append(frontier, append(extended, next))
		}
	}
	return paths, nil
}

func containsID(trail []string, id string) bool {
	for _, t := range trail {
		if t == id {
			return true
		}
	}
	return false
}

func sortedNeighbors(out map[string]graph.Edge[string]) []string {
	neighbors := make([]string, 0, len(out))
	for id := range out {
		neighbors = append(neighbors, id)
	}
	sort.Strings(neighbors)
	return neighbors
}

// materializePaths resolves a node-id trail into paths. Parallel edges
// between the same hop expand combinatorially, so a trail yields one path
// per edge combination, with edges in insertion order.
func (s *store) materializePaths(trail []string) []Path {
	hops := make([][]*Edge, len(trail)-1)
	for i := 0; i < len(trail)-1; i++ {
		for _, edgeID := range s.edgeOrder {
			e := s.edges[edgeID]
			if e.Source == trail[i] && e.Target == trail[i+1] {
				hops[i] = append(hops[i], e)
			}
		}
	}

	combos := [][]*Edge{{}}
	for _, candidates := range hops {
		next := make([][]*Edge, 0, len(combos)*len(candidates))
		for _, prefix := range combos {
			for _, e := range candidates {
				extended := make([]*Edge, len(prefix), len(prefix)+1)
				copy(extended, prefix)
				next = append(next, append(extended, copyEdge(e)))
			}
		}
		combos = next
	}

	paths := make([]Path, 0, len(combos))
	for _, edges := range combos {
		p := Path{
			Nodes: make([]*Node, 0, len(trail)),
			Edges: edges,
		}
		for _, id := range trail {
			p.Nodes = append(p.Nodes, copyNode(s.nodes[id]))
		}
		paths = append(paths, p)
	}
	return paths
}

func (s *store) Statistics() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}

	stats := Stats{
		TotalNodes:  len(s.nodes),
		TotalEdges:  len(s.edges),
		NodesByType: make(map[NodeType]int),
		EdgesByType: make(map[EdgeType]int),
	}
	for _, n := range s.nodes {
		stats.NodesByType[n.Type]++
	}
	for _, e := range s.edges {
		stats.EdgesByType[e.Type]++
	}
	stats.StorageBytes = s.disk.storageBytes()

	backups, err := s.disk.listBackups()
	if err != nil {
		return Stats{}, err
	}
	stats.BackupCount = len(backups)
	return stats, nil
}

func (s *store) VerifyIntegrity() IntegrityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := IntegrityReport{DuplicateIDs: s.loadDuplicates}
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		if _, ok := s.nodes[e.Source]; !ok {
			report.OrphanedEdges++
			report.Details = append(report.Details,
				fmt.Sprintf("edge %s: missing source %s", e.ID, e.Source))
			continue
		}
		if _, ok := s.nodes[e.Target]; !ok {
			report.OrphanedEdges++
			report.Details = append(report.Details,
				fmt.Sprintf("edge %s: missing target %s", e.ID, e.Target))
		}
	}

	cutoff := s.now().Add(-s.staleAfter)
	for _, id := range s.nodeOrder {
		if s.nodes[id].LastUpdated.Before(cutoff) {
			report.StaleNodes++
		}
	}
	return report
}

func (s *store) Backups() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.disk.listBackups()
}

func (s *store) Restore(stamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	nodes, edges, err := s.disk.restore(stamp)
	if err != nil {
		return err
	}

	s.nodes = make(map[string]*Node, len(nodes))
	s.nodeOrder = s.nodeOrder[:0]
	s.edges = make(map[string]*Edge, len(edges))
	s.edgeOrder = s.edgeOrder[:0]
	s.loadDuplicates = 0
	s.g = graph.New(func(n *Node) string { return n.ID }, graph.Directed())

	for _, n := range nodes {
		if _, dup := s.nodes[n.ID]; dup {
			s.loadDuplicates++
			continue
		}
		s.nodes[n.ID] = n
		s.nodeOrder = append(s.nodeOrder, n.ID)
		_ = s.g.AddVertex(n)
	}
	for _, e := range edges {
		if _, dup := s.edges[e.ID]; dup {
			s.loadDuplicates++
			continue
		}
		s.edges[e.ID] = e
		s.edgeOrder = append(s.edgeOrder, e.ID)
		s.linkEdge(e)
	}
	return nil
}

// exportDump is the single-file JSON layout written by Export.
type exportDump struct {
	ExportedAt time.Time `json:"exported_at"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	Nodes      []*Node   `json:"nodes"`
	Edges      []*Edge   `json:"edges"`
}

func (s *store) Export(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	dump := exportDump{
		ExportedAt: s.now().UTC(),
		NodeCount:  len(s.nodeOrder),
		EdgeCount:  len(s.edgeOrder),
	}
	for _, id := range s.nodeOrder {
		dump.Nodes = append(dump.Nodes, s.nodes[id])
	}
	for _, id := range s.edgeOrder {
		dump.Edges = append(dump.Edges, s.edges[id])
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return &StorageError{Op: "export", Err: err}
	}

	// Temp file sits next to the destination so the rename never crosses
	// a filesystem boundary.
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return &StorageError{Op: "export", Err: err}
	}
	if err := os.Rename(tempPath, path); err != nil {
		return &StorageError{Op: "export", Err: err}
	}
	return nil
}

func (s *store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
