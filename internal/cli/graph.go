package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdrift/docdrift/internal/kgraph"
)

// graphCmd groups knowledge graph inspection and maintenance commands.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect and maintain the knowledge graph",
	Long: `Graph commands operate on the stored drift knowledge graph: code
files, documentation sections, drift events, priority scores, and the
relationships between them.`,
}

var graphQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List nodes matching type, label and property filters",
	Long: `Query lists graph nodes in insertion order. Filters combine with AND.

Examples:
  # All drift events
  docdrift graph query --type drift_event

  # Breaking drift events
  docdrift graph query --type drift_event --prop impact_level=breaking
`,
	RunE: runGraphQuery,
}

var (
	graphQueryTypeFlag  string
	graphQueryLabelFlag string
	graphQueryPropFlags []string
)

var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node and edge counts by type",
	RunE:  runGraphStats,
}

var graphVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the graph for orphaned edges, duplicates and stale nodes",
	RunE:  runGraphVerify,
}

var graphBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List available graph backups, oldest first",
	RunE:  runGraphBackups,
}

var graphRestoreCmd = &cobra.Command{
	Use:   "restore <timestamp>",
	Short: "Roll the graph back to a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphRestore,
}

var graphExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write a single-file JSON dump of the graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphExport,
}

var graphPathsCmd = &cobra.Command{
	Use:   "paths <start-id> <end-id>",
	Short: "List paths between two nodes",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphPaths,
}

var graphPathsDepthFlag int

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphQueryCmd)
	graphQueryCmd.Flags().StringVarP(&graphQueryTypeFlag, "type", "t", "", "node type filter")
	graphQueryCmd.Flags().StringVarP(&graphQueryLabelFlag, "label", "l", "", "exact label filter")
	graphQueryCmd.Flags().StringArrayVarP(&graphQueryPropFlags, "prop", "p", nil, "property filter key=value (repeatable)")
	graphCmd.AddCommand(graphStatsCmd)
	graphCmd.AddCommand(graphVerifyCmd)
	graphCmd.AddCommand(graphBackupsCmd)
	graphCmd.AddCommand(graphRestoreCmd)
	graphCmd.AddCommand(graphExportCmd)
	graphCmd.AddCommand(graphPathsCmd)
	graphPathsCmd.Flags().IntVarP(&graphPathsDepthFlag, "depth", "d", 4, "maximum path length in edges")
}

// withStore opens the configured graph store and hands it to fn.
func withStore(fn func(store kgraph.Store) error) error {
	rootDir, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.StateDir(rootDir), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func runGraphQuery(cmd *cobra.Command, args []string) error {
	criteria := kgraph.NodeCriteria{
		Type:  kgraph.NodeType(graphQueryTypeFlag),
		Label: graphQueryLabelFlag,
	}
	if len(graphQueryPropFlags) > 0 {
		criteria.Properties = make(map[string]any, len(graphQueryPropFlags))
		for _, pair := range graphQueryPropFlags {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --prop %q, expected key=value", pair)
			}
			criteria.Properties[key] = value
		}
	}

	return withStore(func(store kgraph.Store) error {
		nodes := store.FindNodes(criteria)
		if len(nodes) == 0 {
			fmt.Println("No matching nodes")
			return nil
		}
		for _, node := range nodes {
			fmt.Printf("%-22s %-40s %s\n", node.Type, node.ID, node.Label)
			if verbose {
				for key, value := range node.Properties {
					fmt.Printf("    %s = %v\n", key, value)
				}
			}
		}
		return nil
	})
}

func runGraphStats(cmd *cobra.Command, args []string) error {
	return withStore(func(store kgraph.Store) error {
		stats, err := store.Statistics()
		if err != nil {
			return err
		}
		fmt.Printf("Nodes: %d\n", stats.TotalNodes)
		for nodeType, count := range stats.NodesByType {
			fmt.Printf("  %-22s %d\n", nodeType, count)
		}
		fmt.Printf("Edges: %d\n", stats.TotalEdges)
		for edgeType, count := range stats.EdgesByType {
			fmt.Printf("  %-22s %d\n", edgeType, count)
		}
		fmt.Printf("Storage: %d bytes, %d backups\n", stats.StorageBytes, stats.BackupCount)
		return nil
	})
}

func runGraphVerify(cmd *cobra.Command, args []string) error {
	return withStore(func(store kgraph.Store) error {
		report := store.VerifyIntegrity()
		if report.Clean() {
			fmt.Println("✓ Graph integrity verified: no problems found")
			return nil
		}
		fmt.Printf("Orphaned edges: %d\n", report.OrphanedEdges)
		fmt.Printf("Duplicate ids:  %d\n", report.DuplicateIDs)
		fmt.Printf("Stale nodes:    %d\n", report.StaleNodes)
		for _, detail := range report.Details {
			fmt.Printf("  - %s\n", detail)
		}
		return nil
	})
}

func runGraphBackups(cmd *cobra.Command, args []string) error {
	return withStore(func(store kgraph.Store) error {
		backups, err := store.Backups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("No backups yet")
			return nil
		}
		for _, stamp := range backups {
			fmt.Println(stamp)
		}
		return nil
	})
}

func runGraphRestore(cmd *cobra.Command, args []string) error {
	return withStore(func(store kgraph.Store) error {
		if err := store.Restore(args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("✓ Graph restored from backup %s\n", args[0])
		return nil
	})
}

func runGraphExport(cmd *cobra.Command, args []string) error {
	return withStore(func(store kgraph.Store) error {
		if err := store.Export(args[0]); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("✓ Graph exported to %s\n", args[0])
		return nil
	})
}

func runGraphPaths(cmd *cobra.Command, args []string) error {
	return withStore(func(store kgraph.Store) error {
		paths, err := store.FindPaths(args[0], args[1], graphPathsDepthFlag)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Println("No paths found")
			return nil
		}
		for _, path := range paths {
			for i, node := range path.Nodes {
				if i > 0 {
					fmt.Printf(" -[%s]-> ", path.Edges[i-1].Type)
				}
				fmt.Print(node.ID)
			}
			fmt.Println()
		}
		return nil
	})
}
