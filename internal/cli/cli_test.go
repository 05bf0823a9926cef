package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

const runsFixture = `{
  "num_trials": 1,
  "runs": [
    {"start_article": "Pokemon", "destination_article": "Canada", "result": "win",
     "steps": [{"type": "start", "article": "Pokemon"}, {"type": "move", "article": "Japan"}, {"type": "win", "article": "Canada"}]},
    {"start_article": "Canada", "destination_article": "Pokemon",
     "steps": [{"type": "start", "article": "Canada"}, {"type": "move", "article": "Japan"}, {"type": "lose", "article": -1}]},
    {"start_article": "Pokemon", "destination_article": "Canada", "result": "win",
     "steps": [{"article": "Pokemon"}, {"article": "Nintendo"}, {"article": "Japan"}, {"article": "Canada"}]}
  ]
}`

// testEnv isolates config and cache directories and captures status output.
type testEnv struct {
	dir  string
	runs string
	out  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	path := filepath.Join(dir, "results.json")
	if err := os.WriteFile(path, []byte(runsFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	prev := stdout
	stdout = &out
	t.Cleanup(func() { stdout = prev })

	return &testEnv{dir: dir, runs: path, out: &out}
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"build", "layout", "render", "stats", "inspect", "serve", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "no-cache", "refresh"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		arg, out, want string
	}{
		{"results.json", "", "results"},
		{"data/qwen.json", "", "data/qwen"},
		{"results.json", "out/hops.svg", "out/hops"},
		{"results.json", "out/hops", "out/hops"},
		{"-", "", "runs"},
		{"https://example.com/evals/final.json", "", "final"},
		{"https://example.com/", "", "example"},
	}
	for _, tt := range tests {
		t.Run(tt.arg+"|"+tt.out, func(t *testing.T) {
			if got := outputBase(tt.arg, tt.out); got != tt.want {
				t.Errorf("outputBase(%q, %q) = %q, want %q", tt.arg, tt.out, got, tt.want)
			}
		})
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "run"); got != "1 run" {
		t.Errorf("pluralize(1) = %q", got)
	}
	if got := pluralize(3, "node"); got != "3 nodes" {
		t.Errorf("pluralize(3) = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "graph.json")
	if err := env.run(t, "build", env.runs, "-o", out); err != nil {
		t.Fatalf("build: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	// Pokemon, Canada, Japan, Nintendo; the run with a -1 step is skipped.
	if len(g.Nodes()) != 4 {
		t.Errorf("nodes = %d, want 4", len(g.Nodes()))
	}
	if !strings.Contains(env.out.String(), "Skipped 1 malformed run") {
		t.Errorf("missing skip warning in %q", env.out.String())
	}
}

func TestLayoutCommandStdout(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "layout", env.runs, "-o", "-", "--select", "0", "--width", "400", "--height", "300"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	out := env.out.Bytes()
	start := bytes.IndexByte(out, '{')
	if start < 0 {
		t.Fatalf("no JSON in output: %q", out)
	}
	var sc scene.Scene
	if err := json.NewDecoder(bytes.NewReader(out[start:])).Decode(&sc); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if !sc.Settled {
		t.Error("scene should be settled")
	}
	if sc.Width != 400 || sc.Height != 300 {
		t.Errorf("size = %vx%v, want 400x300", sc.Width, sc.Height)
	}
	if sc.Selected == nil || *sc.Selected != 0 {
		t.Errorf("Selected = %v, want 0", sc.Selected)
	}
	emphasized := 0
	for _, e := range sc.Edges {
		if e.Emphasized {
			emphasized++
		}
	}
	if emphasized != 2 {
		t.Errorf("emphasized edges = %d, want 2", emphasized)
	}
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	prefix := filepath.Join(env.dir, "out", "hops")
	if err := env.run(t, "render", env.runs, "-f", "svg,dot,json", "-o", prefix); err != nil {
		t.Fatalf("render: %v", err)
	}

	for ext, marker := range map[string]string{
		"svg":  "<svg",
		"dot":  "digraph",
		"json": `"nodes"`,
	} {
		data, err := os.ReadFile(prefix + "." + ext)
		if err != nil {
			t.Errorf("%s not written: %v", ext, err)
			continue
		}
		if !bytes.Contains(data, []byte(marker)) {
			t.Errorf("%s output missing %q", ext, marker)
		}
	}
	if !strings.Contains(env.out.String(), "Rendered 3 files") {
		t.Errorf("status output = %q", env.out.String())
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "render", env.runs, "-f", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestStatsCommandJSON(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "stats", env.runs, "--json"); err != nil {
		t.Fatalf("stats: %v", err)
	}

	out := env.out.Bytes()
	var sum runs.Summary
	if err := json.Unmarshal(out[bytes.IndexByte(out, '{'):], &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Total != 3 || sum.Wins != 2 || sum.Losses != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestStatsCommandTable(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "stats", env.runs, "--runs"); err != nil {
		t.Fatalf("stats: %v", err)
	}
	out := env.out.String()
	for _, want := range []string{"Pairs", "All runs", "Pokemon → Canada", "lose"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q", want)
		}
	}
}

func TestMissingRunsFile(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "build", filepath.Join(env.dir, "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	path := filepath.Join(env.dir, "config", "hopgraph", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if err := env.run(t, "config", "init"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second init error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if err := env.run(t, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	env.out.Reset()
	if err := env.run(t, "config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(env.out.String(), "[layout]") {
		t.Errorf("config show output = %q", env.out.String())
	}

	env.out.Reset()
	if err := env.run(t, "config", "path"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(env.out.String()); got != path {
		t.Errorf("config path = %q, want %q", got, path)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[layout]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := env.run(t, "--config", path, "stats", env.runs)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear on missing dir: %v", err)
	}
	if !strings.Contains(env.out.String(), "Cache is empty") {
		t.Errorf("output = %q", env.out.String())
	}

	env.out.Reset()
	if err := env.run(t, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(env.dir, "cache", "hopgraph")
	if got := strings.TrimSpace(env.out.String()); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	entry := filepath.Join(want, "ab", "cdef.json")
	if err := os.MkdirAll(filepath.Dir(entry), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(entry, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	env.out.Reset()
	if err := env.run(t, "cache", "stats"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.out.String(), "Entries") {
		t.Errorf("stats output = %q", env.out.String())
	}

	env.out.Reset()
	if err := env.run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.out.String(), "Cleared 1 cached entries") {
		t.Errorf("clear output = %q", env.out.String())
	}
}
