package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		view   viewFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <runs>",
		Short: "Settle the force layout and write the scene as JSON",
		Long: `Layout runs the force simulation without a display until it settles and
writes the resulting scene: node positions and styles, edges and the viewport
transform fitted to the container.`,
		Example: `  hopgraph layout results.json
  hopgraph layout results.json --select 3 -o scene.json
  hopgraph layout results.json --width 1920 --height 1080`,
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
			s, _, err := c.settle(ctx, cfg, rf, view.selection(cmd), view)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(s.Scene(), "", "  ")
			if err != nil {
				return err
			}
			if output == "" {
				output = outputBase(args[0], "") + ".scene.json"
			}
			if err := writeOutput(output, data); err != nil {
				return err
			}
			if output == "-" {
				return nil
			}

			g := s.Graph()
			printSuccess("Layout settled")
			printGraphStats(g.NodeCount(), g.EdgeCount(), s.Report().Used())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <input>.scene.json)")
	view.register(cmd)
	return cmd
}
