package cli

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hopgraph/pkg/config"
	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scheduler"
	"github.com/matzehuels/hopgraph/pkg/source"
)

// viewFlags are the flags shared by commands that produce a scene.
type viewFlags struct {
	selected int
	width    float64
	height   float64
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.selected, "select", "s", 0, "highlight the run with this index")
	cmd.Flags().Float64Var(&f.width, "width", 0, "container width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "container height (default from config)")
}

// selection returns the selected run, or nil when --select was not given.
func (f *viewFlags) selection(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("select") {
		return nil
	}
	id := f.selected
	return &id
}

// settle lays out rf without a wall clock: frames advance simulated time
// until the scheduler reports a settled layout.
func (c *CLI) settle(ctx context.Context, cfg *config.Config, rf *runs.ResultsFile, sel *int, view viewFlags) (*scheduler.Scheduler, int, error) {
	logger := loggerFromContext(ctx)
	opts := cfg.SchedulerOptions()
	opts.Logger = logger
	if view.width > 0 {
		opts.Width = view.width
	}
	if view.height > 0 {
		opts.Height = view.height
	}

	s := scheduler.New(opts)
	s.SetRuns(rf.Runs)
	if report := s.Report(); report.Skipped > 0 {
		printWarning("Skipped %s (indexes %v)", pluralize(report.Skipped, "malformed run"), report.SkippedIndexes)
	}
	s.SetSelectedRun(sel)

	frame := cfg.Scheduler.Frame
	if frame <= 0 {
		frame = scheduler.DefaultFrame
	}
	prog := newProgress(logger)
	now := time.Now()
	frames := 0
	for !s.Settled() {
		if frames%64 == 0 && ctx.Err() != nil {
			return nil, frames, ctx.Err()
		}
		now = now.Add(frame)
		s.Step(now)
		frames++
	}
	st := s.Stats()
	prog.done("Settled " + pluralize(st.Nodes, "node") + " after " + pluralize(st.Tick, "tick") + " (" + string(st.Reason) + ")")
	return s, frames, nil
}

// outputBase derives the output path prefix from the -o flag or the input
// argument, e.g. "results/qwen.json" becomes "results/qwen".
func outputBase(arg, out string) string {
	if out != "" {
		return strings.TrimSuffix(out, filepath.Ext(out))
	}
	if arg == source.StdinName {
		return "runs"
	}
	name := arg
	if u, err := url.Parse(arg); err == nil && u.Scheme != "" && u.Host != "" {
		name = path.Base(u.Path)
		if name == "/" || name == "." {
			name = u.Host
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// writeOutput writes data to path, or to standard output for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
