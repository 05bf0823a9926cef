package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/layout"
	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

// ErrStopped is returned by Driver commands once the driver loop has exited.
var ErrStopped = errors.New("scheduler driver stopped")

// DefaultFrame is the driver frame interval.
const DefaultFrame = time.Second / 60

type command struct {
	fn   func(*Scheduler)
	done chan struct{}
}

// Snapshot is the state published after every frame that changed it.
type Snapshot struct {
	Scene       scene.Scene
	Report      graph.Report
	Stats       layout.Stats
	Fingerprint runs.Fingerprint
	Graph       *graph.Graph
	// Results is the file the installed runs came from. It is swapped in
	// the same command as the graph, so run ids always index Results.Runs.
	Results *runs.ResultsFile
}

// Driver runs a Scheduler on its own goroutine. Other goroutines submit
// commands through a channel and read the last published snapshot without
// locking.
type Driver struct {
	s        *Scheduler
	frame    time.Duration
	cmds     chan command
	stopped  chan struct{}
	snapshot atomic.Pointer[Snapshot]

	// results is touched only on the driver goroutine after Run starts.
	results *runs.ResultsFile
}

// NewDriver wraps s. A frame of zero uses DefaultFrame. s must not be used
// directly once the driver runs.
func NewDriver(s *Scheduler, frame time.Duration) *Driver {
	if frame <= 0 {
		frame = DefaultFrame
	}
	d := &Driver{
		s:       s,
		frame:   frame,
		cmds:    make(chan command),
		stopped: make(chan struct{}),
		results: &runs.ResultsFile{Runs: []runs.Run{}},
	}
	d.publish()
	return d
}

// Run drives the scheduler until ctx is cancelled. It returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.stopped)
	ticker := time.NewTicker(d.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-d.cmds:
			cmd.fn(d.s)
			d.publish()
			close(cmd.done)
		case now := <-ticker.C:
			if d.s.Advance(d.s.Generation(), now) {
				d.publish()
			}
		}
	}
}

func (d *Driver) publish() {
	d.snapshot.Store(&Snapshot{
		Scene:       d.s.Scene(),
		Report:      d.s.Report(),
		Stats:       d.s.Stats(),
		Fingerprint: d.s.Fingerprint(),
		Graph:       d.s.Graph(),
		Results:     d.results,
	})
}

// Snapshot returns the last published state.
func (d *Driver) Snapshot() *Snapshot { return d.snapshot.Load() }

// Scene returns the last published scene.
func (d *Driver) Scene() scene.Scene { return d.snapshot.Load().Scene }

// Do runs fn on the driver goroutine and waits for it to finish.
func (d *Driver) Do(ctx context.Context, fn func(*Scheduler)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case d.cmds <- cmd:
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetRuns submits [Scheduler.SetRuns] and reports whether it rebuilt.
func (d *Driver) SetRuns(ctx context.Context, rs []runs.Run) (bool, error) {
	res := make(chan bool, 1)
	if err := d.Do(ctx, func(s *Scheduler) { res <- s.SetRuns(rs) }); err != nil {
		return false, err
	}
	return <-res, nil
}

// SetResults installs rf.Runs like [Driver.SetRuns] and publishes rf with
// the resulting graph in one snapshot.
func (d *Driver) SetResults(ctx context.Context, rf *runs.ResultsFile) (bool, error) {
	res := make(chan bool, 1)
	err := d.Do(ctx, func(s *Scheduler) {
		res <- s.SetRuns(rf.Runs)
		d.results = rf
	})
	if err != nil {
		return false, err
	}
	return <-res, nil
}

// SetSelectedRun submits [Scheduler.SetSelectedRun].
func (d *Driver) SetSelectedRun(ctx context.Context, id *int) error {
	return d.Do(ctx, func(s *Scheduler) { s.SetSelectedRun(id) })
}

// Resize submits [Scheduler.Resize] at the current time.
func (d *Driver) Resize(ctx context.Context, width, height float64) error {
	return d.Do(ctx, func(s *Scheduler) { s.Resize(width, height, time.Now()) })
}
