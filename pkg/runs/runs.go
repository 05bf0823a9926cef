// Package runs defines recorded navigation runs and the results file format
// they are stored in.
//
// A run is one traversal from a start article to a destination article. Its
// steps are the articles visited in order, starting with the start article:
//
//	{
//	  "start_article": "Pokemon",
//	  "destination_article": "Canada",
//	  "result": "win",
//	  "steps": [
//	    {"type": "start", "article": "Pokemon"},
//	    {"type": "move", "article": "Japan"},
//	    {"type": "win", "article": "Canada"}
//	  ]
//	}
//
// Results files wrap runs in an object with a "runs" key alongside evaluation
// settings; a bare JSON array of runs is accepted as well. See [Decode].
//
// Runs are immutable once decoded. Malformed runs (missing start or
// destination, no steps, or a step without an article) are kept in the
// decoded list so that run indexes stay aligned with the file; consumers
// decide what to do with them via [Run.Valid].
package runs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/hopgraph/pkg/errors"
)

// Step types written by the evaluation harness.
const (
	StepStart = "start"
	StepMove  = "move"
	StepWin   = "win"
	StepLose  = "lose"
)

// Run outcomes.
const (
	ResultWin  = "win"
	ResultLose = "lose"
)

// Step is one visited article within a run.
type Step struct {
	Type     string         `json:"type,omitempty"`
	Article  string         `json:"article"`
	Links    []string       `json:"links,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UnmarshalJSON decodes a step, tolerating a non-string article.
// The harness writes -1 as the article of a failed move; such steps decode
// with an empty Article, which marks the owning run as malformed.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string          `json:"type"`
		Article  json.RawMessage `json:"article"`
		Links    []string        `json:"links"`
		Metadata map[string]any  `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Type = raw.Type
	s.Links = raw.Links
	s.Metadata = raw.Metadata
	s.Article = ""
	if len(raw.Article) > 0 && raw.Article[0] == '"' {
		if err := json.Unmarshal(raw.Article, &s.Article); err != nil {
			return err
		}
	}
	return nil
}

// Run is one recorded navigation from StartArticle to DestinationArticle.
type Run struct {
	StartArticle       string `json:"start_article"`
	DestinationArticle string `json:"destination_article"`
	Steps              []Step `json:"steps"`
	Result             string `json:"result,omitempty"`
}

// Valid reports whether the run has every article field the graph builder
// needs: a start, a destination, at least one step and an article on every
// step.
func (r Run) Valid() bool {
	if r.StartArticle == "" || r.DestinationArticle == "" || len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if s.Article == "" {
			return false
		}
	}
	return true
}

// Articles returns the visited article titles in order.
func (r Run) Articles() []string {
	out := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Article
	}
	return out
}

// Hops returns the number of moves made, one less than the number of steps.
func (r Run) Hops() int {
	return max(len(r.Steps)-1, 0)
}

// Outcome returns the run result. When the file carries no explicit result,
// the type of the final step decides; anything but a win counts as a loss.
func (r Run) Outcome() string {
	switch r.Result {
	case ResultWin, ResultLose:
		return r.Result
	}
	if n := len(r.Steps); n > 0 && r.Steps[n-1].Type == StepWin {
		return ResultWin
	}
	if n := len(r.Steps); n > 0 && r.Steps[n-1].Article != "" && r.Steps[n-1].Article == r.DestinationArticle {
		return ResultWin
	}
	return ResultLose
}

// Label returns a short human-readable description used in run lists,
// e.g. "Pokemon → Canada (16 hops)".
func (r Run) Label() string {
	start, dest := r.StartArticle, r.DestinationArticle
	if start == "" {
		start = "?"
	}
	if dest == "" {
		dest = "?"
	}
	return fmt.Sprintf("%s → %s (%d hops)", start, dest, r.Hops())
}

// Path returns the visited articles joined with arrows.
func (r Run) Path() string {
	return strings.Join(r.Articles(), " → ")
}

// ResultsFile is the envelope written by the evaluation harness.
// Only Runs is required; the remaining fields are carried for reporting.
type ResultsFile struct {
	ArticleList   []string       `json:"article_list,omitempty"`
	NumTrials     int            `json:"num_trials,omitempty"`
	NumWorkers    int            `json:"num_workers,omitempty"`
	MaxSteps      int            `json:"max_steps,omitempty"`
	AgentSettings map[string]any `json:"agent_settings,omitempty"`
	Runs          []Run          `json:"runs"`
}

// Decode reads runs from r. It accepts a results file object with a "runs"
// array or a bare array of runs.
func Decode(r io.Reader) (*ResultsFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRuns, err, "read runs")
	}
	return Unmarshal(data)
}

// Unmarshal decodes runs from JSON bytes. See [Decode].
func Unmarshal(data []byte) (*ResultsFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRuns, "empty runs document")
	}

	if trimmed[0] == '[' {
		var list []Run
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRuns, err, "decode run list")
		}
		return &ResultsFile{Runs: list}, nil
	}

	var f ResultsFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRuns, err, "decode results file")
	}
	if f.Runs == nil {
		return nil, errors.New(errors.ErrCodeInvalidRuns, "results file has no \"runs\" array")
	}
	return &f, nil
}

// ReadFile reads runs from a JSON file on disk.
func ReadFile(path string) (*ResultsFile, error) {
	if err := errors.ValidateFilePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "runs file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}

// Marshal serializes runs as a results file with pretty-printed JSON.
func Marshal(f *ResultsFile) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}
