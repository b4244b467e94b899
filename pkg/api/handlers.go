package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/celltrack/pkg/analysis/fate"
	"github.com/matzehuels/celltrack/pkg/analysis/lineage"
	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/errors"
	"github.com/matzehuels/celltrack/pkg/pipeline"
)

// =============================================================================
// Response types
// =============================================================================

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	T int     `json:"t"`
}

func toJSON(p position.Position) positionJSON {
	return positionJSON{X: p.X, Y: p.Y, Z: p.Z, T: p.TimePointNumber}
}

func toJSONList(ps []position.Position) []positionJSON {
	out := make([]positionJSON, len(ps))
	for i, p := range ps {
		out[i] = toJSON(p)
	}
	return out
}

type lineageJSON struct {
	Start          positionJSON `json:"start"`
	FirstTimePoint int          `json:"first_time_point"`
	LastTimePoint  int          `json:"last_time_point"`
	Tracks         int          `json:"tracks"`
	Divisions      int          `json:"divisions"`
	Color          string       `json:"color,omitempty"`
	HasErrors      bool         `json:"has_errors"`
}

type cellJSON struct {
	positionJSON
	Area      float64 `json:"area,omitempty"`
	Futures   int     `json:"futures"`
	Pasts     int     `json:"pasts"`
	EndMarker string  `json:"end_marker,omitempty"`
	Error     string  `json:"error,omitempty"`
	Warning   string  `json:"warning,omitempty"`
}

type fateJSON struct {
	Position            positionJSON `json:"position"`
	Fate                string       `json:"fate"`
	TimePointsRemaining *int         `json:"time_points_remaining,omitempty"`
}

type issueJSON struct {
	Kind     string         `json:"kind"`
	Position positionJSON   `json:"position"`
	Related  []positionJSON `json:"related,omitempty"`
}

type markerJSON struct {
	Position positionJSON `json:"position"`
	Message  string       `json:"message"`
}

type issuesJSON struct {
	Issues   []issueJSON  `json:"issues"`
	Errors   []markerJSON `json:"errors"`
	Warnings []markerJSON `json:"warnings"`
}

// =============================================================================
// Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "missing %s", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s must be a number, got %q", name, v)
	}
	return f, nil
}

// queryPosition reads x, y, z and t from the query string.
func queryPosition(r *http.Request) (position.Position, error) {
	var coords [3]float64
	for i, name := range []string{"x", "y", "z"} {
		v, err := queryFloat(r, name)
		if err != nil {
			return position.Position{}, err
		}
		coords[i] = v
	}
	if r.URL.Query().Get("t") == "" {
		return position.Position{}, errors.New(errors.ErrCodeInvalidInput, "missing t")
	}
	t, err := queryInt(r, "t", 0)
	if err != nil {
		return position.Position{}, err
	}
	return position.New(coords[0], coords[1], coords[2], t), nil
}

// =============================================================================
// Handlers
// =============================================================================

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window, err := queryInt(r, "window", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, err := s.runner.AnalyzeExperiment(r.Context(), s.exp, pipeline.Options{Window: window})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLineages(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.exp.Links
	errored := lineage.TracksWithErrors(l)
	out := []lineageJSON{}
	for _, root := range l.FindStartingTracks() {
		lj := lineageJSON{
			Start:          toJSON(root.FirstPosition()),
			FirstTimePoint: root.MinTimePointNumber(),
			Divisions:      lineage.MinDivisionCount(root),
		}
		if c := markers.GetLineageColor(l, root); !c.IsBlack() {
			lj.Color = c.Hex()
		}
		for _, track := range root.FindAllDescendingTracks(true) {
			lj.Tracks++
			lj.LastTimePoint = max(lj.LastTimePoint, track.MaxTimePointNumber())
			lj.HasErrors = lj.HasErrors || errored[track]
		}
		out = append(out, lj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.TreeOptions{Format: pipeline.FormatSVG}
	var err error
	if opts.MinDivisions, err = queryInt(r, "min_divisions", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.LastTimePoint, err = queryInt(r, "last_time_point", 0); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Detailed = r.URL.Query().Get("detailed") == "true"

	s.mu.RLock()
	defer s.mu.RUnlock()

	svg, err := s.runner.RenderExperimentTree(r.Context(), s.exp, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.Atoi(chi.URLParam(r, "t"))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "time point must be an integer"))
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.exp.Links
	ps := s.exp.Positions.OfTimePoint(position.NewTimePoint(t))
	for _, p := range l.FindAllPositions() {
		if p.TimePointNumber == t {
			ps = append(ps, p)
		}
	}
	slices.SortFunc(ps, position.Compare)
	ps = slices.Compact(ps)

	out := make([]cellJSON, len(ps))
	for i, p := range ps {
		c := cellJSON{
			positionJSON: toJSON(p),
			Area:         s.exp.Positions.Shape(p).Area(),
			Futures:      len(l.FindFutures(p)),
			Pasts:        len(l.FindPasts(p)),
		}
		if m := markers.GetEndMarker(l, p); m != markers.EndUnknown {
			c.EndMarker = m.String()
		}
		if e, ok := markers.GetErrorMarker(l, p); ok {
			c.Error = e.Message()
		}
		c.Warning, _ = markers.GetWarningMarker(l, p)
		out[i] = c
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFate(w http.ResponseWriter, r *http.Request) {
	p, err := queryPosition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.exp.Links.HasLinks() && !s.exp.Links.Contains(p) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no linked position at %s", p))
		return
	}
	f, err := fate.Get(s.exp, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := fateJSON{Position: toJSON(p), Fate: f.Type.String()}
	if f.HasRemaining {
		out.TimePointsRemaining = &f.TimePointsRemaining
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.exp.Links
	out := issuesJSON{Issues: []issueJSON{}, Errors: []markerJSON{}, Warnings: []markerJSON{}}
	for _, is := range l.Validate() {
		out.Issues = append(out.Issues, issueJSON{
			Kind:     is.Kind.String(),
			Position: toJSON(is.Position),
			Related:  toJSONList(is.Related),
		})
	}
	for _, p := range markers.FindErroredPositions(l) {
		e, _ := markers.GetErrorMarker(l, p)
		out.Errors = append(out.Errors, markerJSON{Position: toJSON(p), Message: e.Message()})
	}
	for _, p := range markers.FindWarnedPositions(l) {
		text, _ := markers.GetWarningMarker(l, p)
		out.Warnings = append(out.Warnings, markerJSON{Position: toJSON(p), Message: text})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.exp.Links
	flagged := markers.ApplyValidation(l, l.Validate())
	s.logger.Info("validated experiment", "name", s.exp.Name, "flagged", flagged)
	writeJSON(w, http.StatusOK, map[string]int{"flagged": flagged})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	p, err := queryPosition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exp.Links.Contains(p) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no linked position at %s", p))
		return
	}
	markers.DismissIssue(s.exp.Links, p)
	w.WriteHeader(http.StatusNoContent)
}
