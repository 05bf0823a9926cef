package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hopgraph/pkg/runs"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func mkRun(start, dest string, articles ...string) runs.Run {
	r := runs.Run{StartArticle: start, DestinationArticle: dest}
	for _, a := range articles {
		r.Steps = append(r.Steps, runs.Step{Article: a})
	}
	return r
}

func sample() []runs.Run {
	return []runs.Run{
		mkRun("X", "Z", "X", "Y", "Z"),
		mkRun("X", "W", "X", "Y", "W"),
		mkRun("Z", "W", "Z", "Q", "Y", "W"),
	}
}

func newScheduler() *Scheduler {
	return New(Options{Logger: log.New(io.Discard)})
}

// settle steps the scheduler one frame at a time until it settles.
func settle(t *testing.T, s *Scheduler, now time.Time) time.Time {
	t.Helper()
	for i := 0; !s.Settled(); i++ {
		if i > 10000 {
			t.Fatal("scheduler did not settle")
		}
		now = now.Add(DefaultFrame)
		s.Step(now)
	}
	return now
}

func TestNewIsEmpty(t *testing.T) {
	s := newScheduler()
	if s.Generation() != 0 {
		t.Errorf("generation = %d, want 0", s.Generation())
	}
	sc := s.Scene()
	if !sc.Empty() || !sc.Settled {
		t.Errorf("initial scene = %+v", sc)
	}
	if s.Step(t0) {
		t.Error("stepping an empty scheduler should not change anything")
	}
}

func TestSetRunsIsIdempotent(t *testing.T) {
	s := newScheduler()
	if !s.SetRuns(sample()) {
		t.Fatal("first SetRuns should rebuild")
	}
	if s.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", s.Generation())
	}
	s.Step(t0)
	tick := s.Stats().Tick

	// Same structure, different annotations.
	again := sample()
	again[0].Result = runs.ResultWin
	again[0].Steps[0].Type = runs.StepStart
	if s.SetRuns(again) {
		t.Error("structurally identical runs should not rebuild")
	}
	if s.Generation() != 1 || s.Stats().Tick != tick {
		t.Errorf("layout restarted: generation %d tick %d", s.Generation(), s.Stats().Tick)
	}

	changed := append(sample(), mkRun("Q", "X", "Q", "X"))
	if !s.SetRuns(changed) {
		t.Error("changed runs should rebuild")
	}
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2", s.Generation())
	}
}

func TestSetRunsReportsSkipped(t *testing.T) {
	s := newScheduler()
	s.SetRuns(append(sample(), mkRun("", "X", "X")))
	if r := s.Report(); r.Skipped != 1 || r.Runs != 4 {
		t.Errorf("report = %+v", r)
	}
}

func TestStaleGenerationDropped(t *testing.T) {
	s := newScheduler()
	s.SetRuns(sample())
	old := s.Generation()
	s.SetRuns(sample()[:1])

	if s.Advance(old, t0) {
		t.Error("frame for a superseded generation should be dropped")
	}
	if s.Stats().Tick != 0 {
		t.Errorf("tick = %d, want 0", s.Stats().Tick)
	}
	if !s.Advance(s.Generation(), t0) {
		t.Error("frame for the current generation should advance")
	}
}

func TestSelectionDoesNotMoveNodes(t *testing.T) {
	s := newScheduler()
	s.SetRuns(sample())
	settle(t, s, t0)

	before := s.Scene()
	gen, tick := s.Generation(), s.Stats().Tick
	run := 1
	s.SetSelectedRun(&run)
	after := s.Scene()

	if s.Generation() != gen || s.Stats().Tick != tick {
		t.Error("selection touched the layout")
	}
	for i := range before.Nodes {
		if before.Nodes[i].X != after.Nodes[i].X || before.Nodes[i].Y != after.Nodes[i].Y {
			t.Fatalf("node %s moved on selection", before.Nodes[i].ID)
		}
	}
	if after.Selected == nil || *after.Selected != 1 {
		t.Errorf("selected = %v, want 1", after.Selected)
	}
	emphasized := 0
	for _, e := range after.Edges {
		if e.Emphasized {
			emphasized++
		}
	}
	if emphasized != 2 {
		t.Errorf("emphasized edges = %d, want 2", emphasized)
	}

	s.SetSelectedRun(nil)
	if s.Scene().Selected != nil {
		t.Error("deselect should clear the selection")
	}
}

func TestSettleFitsViewport(t *testing.T) {
	s := newScheduler()
	s.SetRuns(sample())
	settle(t, s, t0)

	sc := s.Scene()
	if !sc.Settled {
		t.Error("scene should be settled")
	}
	if sc.Viewport != s.engine.FitViewport(DefaultWidth, DefaultHeight, DefaultMargin) {
		t.Error("settled viewport should frame the settled positions")
	}
}

func TestResizeIsDebounced(t *testing.T) {
	s := newScheduler()
	s.SetRuns(sample())
	now := settle(t, s, t0)
	fitted := s.Viewport()

	s.Resize(400, 300, now)
	if s.Settled() {
		t.Error("a pending fit should keep the scheduler busy")
	}
	if s.Advance(s.Generation(), now.Add(100*time.Millisecond)) {
		t.Error("fit should wait for the debounce interval")
	}

	// A second resize cancels the first pending fit.
	s.Resize(1200, 900, now.Add(100*time.Millisecond))
	if s.Advance(s.Generation(), now.Add(200*time.Millisecond)) {
		t.Error("fit should wait for the latest resize")
	}
	if s.Viewport() != fitted {
		t.Error("viewport changed before the debounce elapsed")
	}

	if !s.Advance(s.Generation(), now.Add(250*time.Millisecond)) {
		t.Fatal("fit should apply once the debounce elapsed")
	}
	want := s.engine.FitViewport(1200, 900, DefaultMargin)
	if s.Viewport() != want {
		t.Errorf("viewport = %+v, want %+v", s.Viewport(), want)
	}
	if w, h := s.Size(); w != 1200 || h != 900 {
		t.Errorf("size = %vx%v", w, h)
	}
	if sc := s.Scene(); sc.Width != 1200 || sc.Height != 900 {
		t.Errorf("scene size = %vx%v", sc.Width, sc.Height)
	}
	if !s.Settled() {
		t.Error("scheduler should be settled after the fit")
	}
}

func TestDriver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDriver(newScheduler(), time.Millisecond)
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	rebuilt, err := d.SetRuns(ctx, sample())
	if err != nil || !rebuilt {
		t.Fatalf("SetRuns = %v, %v", rebuilt, err)
	}
	if rebuilt, _ := d.SetRuns(ctx, sample()); rebuilt {
		t.Error("second SetRuns should be a no-op")
	}
	if snap := d.Snapshot(); snap.Scene.Generation != 1 || snap.Graph.NodeCount() != 5 {
		t.Errorf("snapshot = generation %d, %d nodes", snap.Scene.Generation, snap.Graph.NodeCount())
	}

	deadline := time.Now().Add(10 * time.Second)
	for !d.Scene().Settled {
		if time.Now().After(deadline) {
			t.Fatal("driver did not settle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	run := 0
	if err := d.SetSelectedRun(ctx, &run); err != nil {
		t.Fatal(err)
	}
	if sel := d.Scene().Selected; sel == nil || *sel != 0 {
		t.Errorf("selected = %v, want 0", sel)
	}
	if err := d.Resize(ctx, 640, 480); err != nil {
		t.Fatal(err)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if err := d.SetSelectedRun(context.Background(), nil); !errors.Is(err, ErrStopped) {
		t.Errorf("command after stop = %v, want ErrStopped", err)
	}
}

func TestDriverSetResultsPublishesTogether(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDriver(newScheduler(), time.Millisecond)
	if snap := d.Snapshot(); snap.Results == nil || len(snap.Results.Runs) != 0 {
		t.Fatalf("initial results = %+v, want empty", snap.Results)
	}
	go d.Run(ctx)

	files := make([]*runs.ResultsFile, 4)
	for i := range files {
		files[i] = &runs.ResultsFile{Runs: sample()[:i%3+1]}
	}

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for _, rf := range files {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := d.SetResults(ctx, rf); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()

		snap := d.Snapshot()
		if got, want := len(snap.Results.Runs), snap.Report.Runs; got != want {
			t.Fatalf("round %d: published %d runs for a graph built from %d", round, got, want)
		}
		if fp := runs.FingerprintOf(snap.Results.Runs); fp != snap.Fingerprint {
			t.Fatalf("round %d: results fingerprint %s, graph fingerprint %s", round, fp.Short(), snap.Fingerprint.Short())
		}
	}
}
