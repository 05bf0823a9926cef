package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scheduler"
	"github.com/matzehuels/hopgraph/pkg/source"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listCursorStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorGray)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle        = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(colorDim)
)

const (
	maxListWidth = 44
	chromeRows   = 3
)

// tickMsg is one animation frame for the layout generation that scheduled
// it. Frames of an older generation are dropped.
type tickMsg struct {
	gen uint64
	at  time.Time
}

// reloadMsg carries a freshly read run file.
type reloadMsg struct {
	rf  *runs.ResultsFile
	err error
}

// InspectModel is the bubbletea model of the interactive inspector. It owns
// the scheduler: every mutation happens in Update.
type InspectModel struct {
	sched  *scheduler.Scheduler
	runs   []runs.Run
	source string
	frame  time.Duration
	reload func() tea.Msg

	list    viewport.Model
	cursor  int
	width   int
	height  int
	ticking bool
	status  string
}

// NewInspectModel creates the inspector for rf on s. reload, when set, is
// run on "r" and must return a reloadMsg.
func NewInspectModel(s *scheduler.Scheduler, rf *runs.ResultsFile, name string, frame time.Duration, reload func() tea.Msg) InspectModel {
	if frame <= 0 {
		frame = scheduler.DefaultFrame
	}
	s.SetRuns(rf.Runs)
	m := InspectModel{
		sched:  s,
		runs:   rf.Runs,
		source: name,
		frame:  frame,
		reload: reload,
		list:   viewport.New(maxListWidth, 10),
	}
	m.refreshList()
	return m
}

func (m InspectModel) tick() tea.Cmd {
	gen := m.sched.Generation()
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return tickMsg{gen: gen, at: t} })
}

// ensureTicking starts a frame loop unless one is running.
func (m *InspectModel) ensureTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.tick()
}

// Init waits for the first WindowSizeMsg, which starts the frame loop.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.sched.Advance(msg.gen, msg.at)
		if msg.gen != m.sched.Generation() {
			return m, nil
		}
		if m.sched.Settled() {
			m.ticking = false
			return m, nil
		}
		m.ticking = true
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		lw := m.listWidth()
		m.list.Width = lw
		m.list.Height = max(m.height-chromeRows, 1)
		cw, ch := m.canvasSize()
		m.sched.Resize(float64(cw), float64(ch*cellAspect), time.Now())
		m.refreshList()
		return m, m.ensureTicking()

	case reloadMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		m.runs = msg.rf.Runs
		if !m.sched.SetRuns(msg.rf.Runs) {
			m.status = "runs unchanged"
			return m, nil
		}
		m.status = fmt.Sprintf("reloaded %s", pluralize(len(m.runs), "run"))
		m.cursor = min(m.cursor, max(len(m.runs)-1, 0))
		m.refreshList()
		m.ticking = true
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.runs)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.runs)-1, 0)
		case "enter", " ":
			if len(m.runs) > 0 {
				if cur := m.sched.Selection(); cur.RunID != nil && *cur.RunID == m.cursor {
					m.sched.SetSelectedRun(nil)
				} else {
					id := m.cursor
					m.sched.SetSelectedRun(&id)
				}
			}
		case "esc", "c":
			m.sched.SetSelectedRun(nil)
		case "r":
			if m.reload != nil {
				m.status = "reloading…"
				return m, m.reload
			}
		}
		m.refreshList()
		return m, nil
	}
	return m, nil
}

func (m InspectModel) listWidth() int {
	return min(maxListWidth, max(m.width/3, 16))
}

func (m InspectModel) canvasSize() (int, int) {
	return max(m.width-m.listWidth()-1, 1), max(m.height-chromeRows, 1)
}

// refreshList rebuilds the run list and scrolls the cursor into view.
func (m *InspectModel) refreshList() {
	sel := m.sched.Selection()
	width := max(m.list.Width-1, 8)
	var b strings.Builder
	for i, r := range m.runs {
		marker := "  "
		style := listNormalStyle
		switch {
		case sel.RunID != nil && *sel.RunID == i:
			marker = "● "
			style = listSelectedStyle
		case i == m.cursor:
			marker = "▸ "
			style = listCursorStyle
		case !r.Valid():
			style = listDimStyle
		}
		line := fmt.Sprintf("%s%3d %s", marker, i, r.Label())
		if len([]rune(line)) > width {
			line = string([]rune(line)[:width-1]) + "…"
		}
		b.WriteString(style.Render(line))
		if i < len(m.runs)-1 {
			b.WriteByte('\n')
		}
	}
	m.list.SetContent(b.String())

	if m.cursor < m.list.YOffset {
		m.list.SetYOffset(m.cursor)
	} else if m.cursor >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

func (m InspectModel) View() string {
	if m.width == 0 {
		return "loading…"
	}
	sc := m.sched.Scene()
	st := m.sched.Stats()

	header := StyleTitle.Render("hopgraph") + StyleDim.Render(fmt.Sprintf("  %s · %s · %d nodes · generation %d",
		m.source, pluralize(len(m.runs), "run"), st.Nodes, st.Generation))

	cw, ch := m.canvasSize()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(m.listWidth()).Height(ch).Render(m.list.View()),
		drawScene(sc, cw, ch))

	state := fmt.Sprintf("tick %d · alpha %.3f · energy %.3f", st.Tick, st.Alpha, st.Energy)
	if st.Settled {
		state = fmt.Sprintf("settled (%s) after %d ticks", st.Reason, st.Tick)
	}
	if sel := sc.Selected; sel != nil && *sel >= 0 && *sel < len(m.runs) {
		state += " · " + StyleHighlight.Render(m.runs[*sel].Path())
	}
	if m.status != "" {
		state += " · " + m.status
	}
	help := listDimStyle.Render("↑/↓ move  ⏎ select  esc clear  r reload  q quit")

	return header + "\n" + body + "\n" + StyleDim.Render(state) + "\n" + help
}

func (c *CLI) inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <runs>",
		Short: "Explore runs interactively in the terminal",
		Long: `Inspect animates the force layout in the terminal. Pick a run from the list
to highlight its path; the layout keeps its positions while the selection
changes. Press r to re-read the run file.`,
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

			// The log would draw over the alternate screen.
			quiet := newLogger(io.Discard, c.Logger.GetLevel())
			opts := cfg.SchedulerOptions()
			opts.Logger = quiet
			s := scheduler.New(opts)

			srcOpts := c.sourceOptions(cfg)
			srcOpts.Logger = quiet
			reload := func() tea.Msg {
				rf, err := source.Load(ctx, args[0], srcOpts)
				return reloadMsg{rf: rf, err: err}
			}
			progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
			if args[0] == source.StdinName {
				// Stdin is spent on the runs; keys come from the terminal.
				reload = nil
				progOpts = append(progOpts, tea.WithInputTTY())
			}
			m := NewInspectModel(s, rf, args[0], cfg.Scheduler.Frame, reload)
			_, err = tea.NewProgram(m, progOpts...).Run()
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		},
	}
	return cmd
}
