package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hopgraph/pkg/runs"
)

func (c *CLI) statsCommand() *cobra.Command {
	var (
		top      int
		showRuns bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "stats <runs>",
		Short: "Summarize run outcomes",
		Long: `Stats prints wins, losses, hop counts and the most frequent start/destination
pairs of a results file.`,
		Example: `  hopgraph stats results.json
  hopgraph stats results.json --runs
  hopgraph stats results.json --json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRunFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			rf, err := c.loadRuns(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			sum := runs.Summarize(rf.Runs)

			if asJSON {
				data, err := json.MarshalIndent(sum, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, string(data))
				return err
			}

			fmt.Fprintln(stdout, StyleTitle.Render("Runs"))
			printSummary(rf, sum)
			if len(sum.Pairs) > 0 {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, StyleTitle.Render("Pairs"))
				fmt.Fprintln(stdout, pairsTable(sum.Pairs, top))
			}
			if showRuns {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, StyleTitle.Render("All runs"))
				fmt.Fprintln(stdout, runsTable(rf.Runs))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of start/destination pairs to list (0 for all)")
	cmd.Flags().BoolVar(&showRuns, "runs", false, "list every run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(rf *runs.ResultsFile, sum runs.Summary) {
	printKeyValue("Total", strconv.Itoa(sum.Total))
	printKeyValue("Wins", fmt.Sprintf("%d (%.1f%%)", sum.Wins, 100*sum.WinRate))
	printKeyValue("Losses", fmt.Sprintf("%d (%.1f%%)", sum.Losses, 100*sum.LoseRate))
	if sum.Malformed > 0 {
		printKeyValue("Malformed", StyleWarning.Render(strconv.Itoa(sum.Malformed)))
	}
	if len(sum.HopsDistribution) > 0 {
		printKeyValue("Avg hops", fmt.Sprintf("%.2f", sum.AverageHops))
		printKeyValue("Hop range", fmt.Sprintf("%d – %d", slices.Min(sum.HopsDistribution), slices.Max(sum.HopsDistribution)))
	}
	if rf.MaxSteps > 0 {
		printKeyValue("Max steps", strconv.Itoa(rf.MaxSteps))
	}
	for _, k := range slices.Sorted(maps.Keys(rf.AgentSettings)) {
		printKeyValue(k, fmt.Sprint(rf.AgentSettings[k]))
	}
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

func pairsTable(pairs []runs.PairStat, top int) string {
	if top > 0 && len(pairs) > top {
		pairs = pairs[:top]
	}
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rate := 0.0
		if p.Runs > 0 {
			rate = float64(p.Wins) / float64(p.Runs)
		}
		rows[i] = []string{p.Start, p.Destination, strconv.Itoa(p.Runs), strconv.Itoa(p.Wins), fmt.Sprintf("%.0f%%", 100*rate)}
	}
	return newTable("Start", "Destination", "Runs", "Wins", "Rate").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col >= 2 {
				return tableCellStyle.Foreground(colorCyan)
			}
			return tableCellStyle
		}).
		Render()
}

func runsTable(rs []runs.Run) string {
	rows := make([][]string, len(rs))
	for i, r := range rs {
		rows[i] = []string{strconv.Itoa(i), r.Label(), r.Outcome()}
	}
	return newTable("#", "Run", "Result").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if row < 0 || row >= len(rs) {
				return tableCellStyle
			}
			r := rs[row]
			switch {
			case !r.Valid():
				return tableCellStyle.Foreground(colorDim)
			case col == 2 && r.Outcome() == runs.ResultWin:
				return tableCellStyle.Foreground(colorGreen)
			case col == 2:
				return tableCellStyle.Foreground(colorRed)
			}
			return tableCellStyle
		}).
		Render()
}
