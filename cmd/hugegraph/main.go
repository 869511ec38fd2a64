// Package main provides the hugegraph CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hugegraph",
		Short: "hugegraph - compressed in-memory graph storage",
		Long: `hugegraph loads edge lists into a compressed, paged in-memory graph
and reports on it.

Edge lists hold one "source target [property...]" line per relationship and
may be compressed with zstd or lz4.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hugegraph v%s (%s)\n", version, commit)
		},
	})

	statsCmd := &cobra.Command{
		Use:   "stats [edge-list]",
		Short: "Load an edge list and print graph statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
	addLoadFlags(statsCmd)
	statsCmd.Flags().Bool("metrics", false, "Print Prometheus metrics of the load after the statistics")
	rootCmd.AddCommand(statsCmd)

	exportCmd := &cobra.Command{
		Use:   "export [edge-list] [output]",
		Short: "Load an edge list and write the stored graph back as an edge list",
		Long: `export loads an edge list with the same settings as stats and writes
the resulting graph in external ids. Duplicate handling and property
aggregation are applied, so export can be used to clean or recompress
an edge list.`,
		Args: cobra.ExactArgs(2),
		RunE: runExport,
	}
	addLoadFlags(exportCmd)
	exportCmd.Flags().String("output-compression", "none", "Output compression: none, lz4, zstd")
	rootCmd.AddCommand(exportCmd)

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the memory footprint of a graph",
		RunE:  runEstimate,
	}
	estimateCmd.Flags().Int64("nodes", 0, "Node count")
	estimateCmd.Flags().Int64("relationships", 0, "Relationship count")
	estimateCmd.Flags().Int("concurrency", 0, "Worker count (0 = GOMAXPROCS)")
	estimateCmd.Flags().Int("page-bytes", 0, "Adjacency page size in bytes (0 = default)")
	estimateCmd.Flags().Int("properties", 0, "Properties per relationship")
	rootCmd.AddCommand(estimateCmd)

	return rootCmd
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().Int("concurrency", 0, "Worker count (0 = GOMAXPROCS)")
	cmd.Flags().Int("properties", 0, "Properties per relationship")
	cmd.Flags().String("compression", "auto", "Input compression: auto, none, lz4, zstd")
	cmd.Flags().Bool("deduplicate", false, "Collapse parallel relationships")
	cmd.Flags().String("aggregation", "single", "Property aggregation for collapsed relationships: single, sum, min, max")
	cmd.Flags().Int64("memory-limit", 0, "Memory budget in bytes (0 = unlimited)")
	cmd.Flags().String("log-level", "warn", "Log level: debug, info, warn, error")
}

// loadConfig resolves defaults, the config file, the environment and the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("properties") {
		cfg.PropertyCount, _ = flags.GetInt("properties")
	}
	if flags.Changed("page-bytes") {
		cfg.PageBytes, _ = flags.GetInt("page-bytes")
	}
	if flags.Changed("compression") {
		cfg.Compression, _ = flags.GetString("compression")
	}
	if flags.Changed("deduplicate") {
		cfg.Deduplicate, _ = flags.GetBool("deduplicate")
	}
	if flags.Changed("aggregation") {
		cfg.Aggregation, _ = flags.GetString("aggregation")
	}
	if flags.Changed("memory-limit") {
		cfg.MemoryLimit, _ = flags.GetInt64("memory-limit")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return cfg, nil
}
