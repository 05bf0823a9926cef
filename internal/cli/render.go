package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hopgraph/pkg/render"
)

func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formats    string
		engine     string
		background string
		noLabels   bool
		view       viewFlags
	)

	cmd := &cobra.Command{
		Use:   "render <runs>",
		Short: "Settle the layout and render it to SVG, PNG or DOT",
		Long: `Render lays out the runs and writes one file per requested format.

SVG is drawn natively by default; --engine graphviz draws it with Graphviz
instead. PNG and DOT always go through Graphviz with node positions pinned
to the settled layout. JSON writes the scene.`,
		Example: `  hopgraph render results.json
  hopgraph render results.json -f svg,png --select 2
  hopgraph render results.json -f svg --engine graphviz -o out/hops`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRunFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fmts, err := render.ParseFormats(formats)
			if err != nil {
				return err
			}
			eng, err := render.ParseEngine(engine)
			if err != nil {
				return err
			}
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

			sc := s.Scene()
			title := "hopgraph"
			if sel := sc.Selected; sel != nil && *sel >= 0 && *sel < len(rf.Runs) {
				title = rf.Runs[*sel].Label()
			}
			opts := render.Options{
				Engine:     eng,
				Title:      title,
				Background: background,
				HideLabels: noLabels,
			}

			base := outputBase(args[0], output)
			var written []string
			for _, f := range fmts {
				data, err := render.Encode(ctx, sc, f, opts)
				if err != nil {
					return fmt.Errorf("render %s: %w", f, err)
				}
				path := base + "." + string(f)
				if err := writeOutput(path, data); err != nil {
					return err
				}
				written = append(written, path)
			}

			g := s.Graph()
			printSuccess("Rendered %s", pluralize(len(written), "file"))
			printGraphStats(g.NodeCount(), g.EdgeCount(), s.Report().Used())
			for _, p := range written {
				printFile(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path prefix (default: input name)")
	cmd.Flags().StringVarP(&formats, "format", "f", "svg", "output formats: svg, png, dot, json (comma-separated)")
	cmd.Flags().StringVar(&engine, "engine", "native", "SVG engine: native or graphviz")
	cmd.Flags().StringVar(&background, "background", "", "SVG background color")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "hide node labels")
	view.register(cmd)
	return cmd
}
