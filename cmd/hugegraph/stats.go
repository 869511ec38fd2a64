package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/hupe1980/hugegraph"
	"github.com/hupe1980/hugegraph/internal/edgelist"
	"github.com/hupe1980/hugegraph/prommetrics"
)

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	compression, err := cfg.CompressionKind()
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if printMetrics, _ := cmd.Flags().GetBool("metrics"); printMetrics {
		reg = prometheus.NewRegistry()
		mc, err := prommetrics.New(reg, "hugegraph")
		if err != nil {
			return err
		}
		opts = append(opts, hugegraph.WithMetricsCollector(mc))
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	g, detected, err := loadGraph(cmd, f, compression, opts)
	if err != nil {
		return err
	}
	defer g.Release()

	stats, err := g.DegreeStats(cmd.Context())
	if err != nil && g.NodeCount() > 0 {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "input:         %s\n", detected)
	printStats(cmd.OutOrStdout(), g, stats)

	if reg != nil {
		return writeMetrics(cmd.OutOrStdout(), reg)
	}
	return nil
}

func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// loadGraph builds a graph from an edge list and reports the compression
// the input was read with.
func loadGraph(cmd *cobra.Command, r io.Reader, compression edgelist.Compression, opts []hugegraph.Option) (*hugegraph.Graph, edgelist.Compression, error) {
	reader, err := edgelist.NewReader(r, compression)
	if err != nil {
		return nil, compression, err
	}
	defer reader.Close()
	detected := reader.Compression()

	b, err := hugegraph.NewBuilder(opts...)
	if err != nil {
		return nil, detected, err
	}

	_, err = edgelist.ReadAll(cmd.Context(), reader, func(e edgelist.Edge) error {
		if e.IsNode() {
			return b.AddNode(e.Source)
		}
		return b.AddRelationship(e.Source, e.Target, e.Properties...)
	})
	if err != nil {
		return nil, detected, err
	}
	g, err := b.Build(cmd.Context())
	return g, detected, err
}

func printStats(w io.Writer, g *hugegraph.Graph, stats hugegraph.DegreeStats) {
	fmt.Fprintf(w, "nodes:         %d\n", g.NodeCount())
	fmt.Fprintf(w, "relationships: %d\n", g.RelationshipCount())
	fmt.Fprintf(w, "properties:    %d\n", g.PropertyCount())
	fmt.Fprintf(w, "memory:        %d bytes\n", g.MemoryUsage())
	fmt.Fprintf(w, "concurrency:   %d (GOMAXPROCS %d)\n", g.Concurrency(), runtime.GOMAXPROCS(0))
	if g.NodeCount() == 0 {
		return
	}
	fmt.Fprintf(w, "degree:        min %d, max %d, mean %.2f\n", stats.Min, stats.Max, stats.Mean)
	fmt.Fprintf(w, "isolated:      %d\n", stats.Isolated)
	fmt.Fprintln(w, "histogram:")
	for i, count := range stats.Histogram {
		if count == 0 {
			continue
		}
		if i == 0 {
			fmt.Fprintf(w, "  %12s  %d\n", "0", count)
			continue
		}
		lo, hi := int64(1)<<(i-1), int64(1)<<i-1
		fmt.Fprintf(w, "  %12s  %d\n", fmt.Sprintf("%d-%d", lo, hi), count)
	}
}
