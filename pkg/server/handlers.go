package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/hopgraph/pkg/buildinfo"
	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/render"
	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scene"
	"github.com/matzehuels/hopgraph/pkg/scheduler"
	"github.com/matzehuels/hopgraph/pkg/selection"
	"github.com/matzehuels/hopgraph/pkg/source"
)

type runInfo struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Start       string `json:"start"`
	Destination string `json:"destination"`
	Hops        int    `json:"hops"`
	Outcome     string `json:"outcome"`
	Valid       bool   `json:"valid"`
}

type runsResponse struct {
	Fingerprint string       `json:"fingerprint"`
	Generation  uint64       `json:"generation"`
	Report      graph.Report `json:"report"`
	Runs        []runInfo    `json:"runs"`
}

type setRunsResponse struct {
	Changed     bool         `json:"changed"`
	Generation  uint64       `json:"generation"`
	Fingerprint string       `json:"fingerprint"`
	Report      graph.Report `json:"report"`
}

type selectionBody struct {
	RunID *int `json:"run_id"`
}

type selectionResponse struct {
	RunID    *int `json:"run_id"`
	Dangling bool `json:"dangling"`
}

type viewportBody struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type viewportResponse struct {
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Viewport scene.Viewport `json:"viewport"`
	Settled  bool           `json:"settled"`
}

type fetchBody struct {
	Source  string `json:"source"`
	Refresh bool   `json:"refresh"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.driver.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"build":      buildinfo.Get(),
		"generation": snap.Scene.Generation,
		"settled":    snap.Scene.Settled,
	})
}

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	snap := s.driver.Snapshot()
	rf := snap.Results
	out := runsResponse{
		Fingerprint: string(snap.Fingerprint),
		Generation:  snap.Scene.Generation,
		Report:      snap.Report,
		Runs:        make([]runInfo, len(rf.Runs)),
	}
	for i, run := range rf.Runs {
		out.Runs[i] = runInfo{
			ID:          i,
			Label:       run.Label(),
			Start:       run.StartArticle,
			Destination: run.DestinationArticle,
			Hops:        run.Hops(),
			Outcome:     run.Outcome(),
			Valid:       run.Valid(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutRuns(w http.ResponseWriter, r *http.Request) {
	rf, err := runs.Decode(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	s.installResults(w, r, rf)
}

func (s *Server) handleFetchRuns(w http.ResponseWriter, r *http.Request) {
	var body fetchBody
	if !decodeBody(w, r, &body) {
		return
	}
	if !strings.HasPrefix(body.Source, "http://") && !strings.HasPrefix(body.Source, "https://") && !strings.HasPrefix(body.Source, "hf://") {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "source must be an http(s) or hf:// URL"))
		return
	}
	opts := s.opts.Source
	opts.Refresh = body.Refresh
	opts.Logger = s.logger
	rf, err := source.Load(r.Context(), body.Source, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("runs fetched", "source", body.Source, "runs", len(rf.Runs))
	s.installResults(w, r, rf)
}

func (s *Server) installResults(w http.ResponseWriter, r *http.Request, rf *runs.ResultsFile) {
	changed, err := s.SetResults(r.Context(), rf)
	if err != nil {
		writeError(w, err)
		return
	}
	snap := s.driver.Snapshot()
	writeJSON(w, http.StatusOK, setRunsResponse{
		Changed:     changed,
		Generation:  snap.Scene.Generation,
		Fingerprint: string(snap.Fingerprint),
		Report:      snap.Report,
	})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	snap := s.driver.Snapshot()
	writeJSON(w, http.StatusOK, s.selection(snap))
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var body selectionBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.driver.SetSelectedRun(r.Context(), body.RunID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.selection(s.driver.Snapshot()))
}

func (s *Server) selection(snap *scheduler.Snapshot) selectionResponse {
	out := selectionResponse{RunID: snap.Scene.Selected}
	if id := snap.Scene.Selected; id != nil {
		out.Dangling = selection.Run(*id).Dangling(snap.Graph)
	}
	return out
}

func (s *Server) handleGetViewport(w http.ResponseWriter, r *http.Request) {
	sc := s.driver.Scene()
	writeJSON(w, http.StatusOK, viewportResponse{Width: sc.Width, Height: sc.Height, Viewport: sc.Viewport, Settled: sc.Settled})
}

func (s *Server) handlePutViewport(w http.ResponseWriter, r *http.Request) {
	var body viewportBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := errors.ValidateDimensions(body.Width, body.Height, 0); err != nil {
		writeError(w, err)
		return
	}
	if err := s.driver.Resize(r.Context(), body.Width, body.Height); err != nil {
		writeError(w, err)
		return
	}
	sc := s.driver.Scene()
	writeJSON(w, http.StatusAccepted, viewportResponse{Width: sc.Width, Height: sc.Height, Viewport: sc.Viewport, Settled: sc.Settled})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := render.FormatJSON
	if v := q.Get("format"); v != "" {
		formats, err := render.ParseFormats(v)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(formats) != 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidFormat, "exactly one format expected"))
			return
		}
		format = formats[0]
	}
	engine, err := render.ParseEngine(q.Get("engine"))
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := render.Encode(r.Context(), s.driver.Scene(), format, render.Options{
		Engine:      engine,
		Interactive: format == render.FormatSVG,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := graph.Marshal(s.driver.Snapshot().Graph)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode graph"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, runs.Summarize(s.driver.Snapshot().Results.Runs))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	return true
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	body.Error.Message = errors.UserMessage(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(err), body)
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, scheduler.ErrStopped):
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRuns, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
