package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hugegraph"
	"github.com/hupe1980/hugegraph/internal/edgelist"
	"github.com/hupe1980/hugegraph/partition"
)

func runExport(cmd *cobra.Command, args []string) error {
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
	name, _ := cmd.Flags().GetString("output-compression")
	outCompression, err := edgelist.ParseCompression(name)
	if err != nil {
		return err
	}
	if outCompression == edgelist.Auto {
		outCompression = edgelist.None
	}

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	g, _, err := loadGraph(cmd, in, compression, opts)
	if err != nil {
		return err
	}
	defer g.Release()

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	w, err := edgelist.NewWriter(out, outCompression)
	if err != nil {
		return errors.Join(err, out.Close())
	}
	if err := exportGraph(cmd.Context(), w, g); err != nil {
		return errors.Join(err, w.Close(), out.Close())
	}
	if err := w.Close(); err != nil {
		return errors.Join(err, out.Close())
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d nodes and %d relationships to %s (%s)\n",
		g.NodeCount(), g.RelationshipCount(), args[1], outCompression)
	return nil
}

// exportGraph writes every relationship of g in external ids, in internal
// node order. Nodes without outgoing relationships are written as single-id
// lines so they survive a round trip.
func exportGraph(ctx context.Context, w *edgelist.Writer, g *hugegraph.Graph) error {
	var (
		nc    hugegraph.NodeCursor
		props = make([]float64, g.PropertyCount())
	)
	for node := range g.NodeCount() {
		if node%partition.CheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", hugegraph.ErrCancelled, err)
			}
		}

		source := g.ToOriginalNodeID(node)
		c := g.InitCursor(&nc, node)
		if !c.HasNext() {
			if err := w.Write(edgelist.Edge{Source: source, Target: edgelist.NoTarget}); err != nil {
				return err
			}
			continue
		}
		for c.HasNext() {
			target := g.ToOriginalNodeID(c.NextID())
			for k := range props {
				props[k] = c.Property(k)
			}
			if err := w.Write(edgelist.Edge{Source: source, Target: target, Properties: props}); err != nil {
				return err
			}
		}
	}
	return nil
}
