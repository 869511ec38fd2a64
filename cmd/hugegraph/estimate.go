package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hugegraph"
)

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	nodes, _ := cmd.Flags().GetInt64("nodes")
	relationships, _ := cmd.Flags().GetInt64("relationships")
	if nodes <= 0 {
		return fmt.Errorf("%w: --nodes must be positive", hugegraph.ErrInvalidInput)
	}
	if relationships < 0 {
		return fmt.Errorf("%w: --relationships must not be negative", hugegraph.ErrInvalidInput)
	}

	r := hugegraph.EstimateMemory(nodes, relationships, cfg.Concurrency, cfg.PageBytes, cfg.PropertyCount)
	fmt.Fprintf(cmd.OutOrStdout(), "nodes:         %d\n", nodes)
	fmt.Fprintf(cmd.OutOrStdout(), "relationships: %d\n", relationships)
	fmt.Fprintf(cmd.OutOrStdout(), "memory:        %s\n", r)
	return nil
}
