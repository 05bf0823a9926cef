package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/observability"
)

func (c *CLI) buildCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build <runs>",
		Short: "Merge runs into a hop graph",
		Long: `Build merges every run into one graph of visited articles and writes it as JSON.

Start and destination articles become anchors placed on a ring; every other
article is a transit node. Malformed runs are skipped and reported.`,
		Example: `  hopgraph build results.json
  hopgraph build results.json -o graph.json
  hopgraph build hf://datasets/org/traces/final-results.json -o -`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRunFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			rf, err := c.loadRuns(ctx, cfg, args[0])
			if err != nil {
				return err
			}

			start := time.Now()
			g, report := graph.Build(rf.Runs, cfg.Graph)
			observability.Layout().OnBuild(report.Runs, report.Skipped, g.NodeCount(), g.EdgeCount(), time.Since(start))

			data, err := graph.Marshal(g)
			if err != nil {
				return err
			}
			if output == "" {
				output = outputBase(args[0], "") + ".graph.json"
			}
			if err := writeOutput(output, data); err != nil {
				return err
			}
			if output == "-" {
				return nil
			}

			printSuccess("Built hop graph")
			printGraphStats(g.NodeCount(), g.EdgeCount(), report.Used())
			if report.Skipped > 0 {
				printWarning("Skipped %s: %v", pluralize(report.Skipped, "malformed run"), report.SkippedIndexes)
			}
			printFile(output)
			printNextStep("Lay it out", "hopgraph render "+args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <input>.graph.json)")
	return cmd
}
