package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/absence"
	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/inventory"
	"github.com/sells-group/risk-inventory/internal/model"
	"github.com/sells-group/risk-inventory/internal/scoring"
	"github.com/sells-group/risk-inventory/internal/store"
	"github.com/sells-group/risk-inventory/internal/turnover"
)

// cell is one table value. Clients may send strings, numbers, booleans or
// null; numbers keep their literal text so "3" and 3 score the same.
type cell string

func (c *cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*c = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = cell(s)
	case string(data) == "true" || string(data) == "false":
		*c = cell(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return eris.Errorf("api: table cell must be a string, number, boolean or null, got %s", data)
		}
		*c = cell(n.String())
	}
	return nil
}

// stringRows converts decoded cells into the string table the scorers read.
func stringRows(rows [][]cell) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = string(c)
		}
	}
	return out
}

type analysisRequest struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]cell `json:"rows"`
	Strict  *bool    `json:"strict,omitempty"`
}

type absenceRequest struct {
	Name        string           `json:"name"`
	Columns     []string         `json:"columns"`
	Rows        [][]cell         `json:"rows"`
	Mapping     *absence.Columns `json:"mapping,omitempty"`
	WindowStart string           `json:"window_start"`
	WindowEnd   string           `json:"window_end"`
	Headcount   int              `json:"headcount"`
	Sector      string           `json:"sector"`
}

type turnoverRequest struct {
	Name           string          `json:"name"`
	StartHeadcount int             `json:"start_headcount"`
	EndHeadcount   int             `json:"end_headcount"`
	Hires          int             `json:"hires"`
	Separations    int             `json:"separations"`
	PeriodMonths   int             `json:"period_months"`
	Sector         string          `json:"sector"`
	Costs          *turnover.Costs `json:"costs,omitempty"`
}

// resultRef points at a stored result by ID or carries one inline.
type resultRef struct {
	ID     string                `json:"id,omitempty"`
	Result *model.AnalysisResult `json:"result,omitempty"`
}

type inventoryRequest struct {
	Psychosocial  *resultRef `json:"psychosocial"`
	Burnout       *resultRef `json:"burnout,omitempty"`
	WorkAddiction *resultRef `json:"work_addiction,omitempty"`
	Absence       *resultRef `json:"absence,omitempty"`
	Turnover      *resultRef `json:"turnover,omitempty"`
	AbsenceRate   *float64   `json:"absence_rate,omitempty"`
	TurnoverRate  *float64   `json:"turnover_rate,omitempty"`
}

type analysisResponse struct {
	Result     *model.AnalysisResult  `json:"result"`
	Validation model.ValidationResult `json:"validation"`
}

func (s *Server) handleInstruments(w http.ResponseWriter, _ *http.Request) {
	all := catalog.All()
	out := make([]catalog.Info, len(all))
	for i, in := range all {
		out[i] = in.Info()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	in, err := catalog.Lookup(chi.URLParam(r, "instrument"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req analysisRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Columns) == 0 {
		writeError(w, http.StatusBadRequest, "columns are required")
		return
	}
	if req.Name == "" {
		req.Name = in.Name
	}

	strict := s.opts.Strict
	if req.Strict != nil {
		strict = *req.Strict
	}
	p := scoring.NewProcessor(in, scoring.WithStrict(strict), scoring.WithClock(s.now))
	res, v, err := p.Process(&model.ResponseSet{Columns: req.Columns, Rows: stringRows(req.Rows)}, req.Name)
	switch {
	case err == nil && res == nil:
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Validation: v})
		return
	case eris.Is(err, scoring.ErrNoScores):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Validation: v})
		return
	case err != nil:
		s.internalError(w, "score analysis", err)
		return
	}

	if !s.persist(r.Context(), w, res) {
		return
	}
	writeJSON(w, http.StatusCreated, analysisResponse{Result: res, Validation: v})
}

func (s *Server) handleAbsence(w http.ResponseWriter, r *http.Request) {
	var req absenceRequest
	if !decode(w, r, &req) {
		return
	}
	start, okStart := absence.ParseDate(req.WindowStart)
	end, okEnd := absence.ParseDate(req.WindowEnd)
	if !okStart || !okEnd {
		writeError(w, http.StatusBadRequest, "window_start and window_end must be valid dates")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "window_end is before window_start")
		return
	}
	cols := absence.DefaultColumns()
	if m := req.Mapping; m != nil {
		if m.Subject != "" {
			cols.Subject = m.Subject
		}
		if m.Start != "" {
			cols.Start = m.Start
		}
		if m.End != "" {
			cols.End = m.End
		}
	}
	if req.Name == "" {
		req.Name = "absenteeism"
	}

	res, v, err := s.absence.ProcessTable(absence.TableInput{
		Set:         &model.ResponseSet{Columns: req.Columns, Rows: stringRows(req.Rows)},
		Columns:     cols,
		WindowStart: start,
		WindowEnd:   end,
		Headcount:   req.Headcount,
		Sector:      req.Sector,
	}, req.Name)
	if err != nil {
		s.internalError(w, "process absence", err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Validation: v})
		return
	}
	if !s.persist(r.Context(), w, res) {
		return
	}
	writeJSON(w, http.StatusCreated, analysisResponse{Result: res, Validation: v})
}

func (s *Server) handleTurnover(w http.ResponseWriter, r *http.Request) {
	var req turnoverRequest
	if !decode(w, r, &req) {
		return
	}
	costs := s.opts.Costs
	if req.Costs != nil {
		costs = *req.Costs
	}
	if req.Name == "" {
		req.Name = "turnover"
	}

	res, v, err := s.turnover.Process(turnover.Input{
		StartHeadcount: req.StartHeadcount,
		EndHeadcount:   req.EndHeadcount,
		Hires:          req.Hires,
		Separations:    req.Separations,
		PeriodMonths:   req.PeriodMonths,
		Sector:         req.Sector,
		Costs:          costs,
	}, req.Name)
	if eris.Is(err, turnover.ErrInvalidInput) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Validation: v})
		return
	}
	if err != nil {
		s.internalError(w, "process turnover", err)
		return
	}
	if !s.persist(r.Context(), w, res) {
		return
	}
	writeJSON(w, http.StatusCreated, analysisResponse{Result: res, Validation: v})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	var (
		in   inventory.Input
		refs = []struct {
			ref *resultRef
			dst **model.AnalysisResult
		}{
			{req.Psychosocial, &in.Psychosocial},
			{req.Burnout, &in.Burnout},
			{req.WorkAddiction, &in.WorkAddiction},
		}
	)
	for _, f := range refs {
		res, status, err := s.resolve(ctx, f.ref)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		*f.dst = res
	}

	in.AbsenceRate, in.TurnoverRate = req.AbsenceRate, req.TurnoverRate
	for _, f := range []struct {
		ref  *resultRef
		rate **float64
	}{{req.Absence, &in.AbsenceRate}, {req.Turnover, &in.TurnoverRate}} {
		if *f.rate != nil {
			continue
		}
		res, status, err := s.resolve(ctx, f.ref)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		rate, err := inventory.RateFrom(res)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		*f.rate = rate
	}

	inv, err := s.inventory.Consolidate(in)
	if eris.Is(err, inventory.ErrMissingPsychosocial) || eris.Is(err, inventory.ErrUnexpectedType) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, "consolidate inventory", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// resolve loads a referenced result. A nil reference resolves to nil.
func (s *Server) resolve(ctx context.Context, ref *resultRef) (*model.AnalysisResult, int, error) {
	switch {
	case ref == nil:
		return nil, 0, nil
	case ref.Result != nil:
		return ref.Result, 0, nil
	case ref.ID == "":
		return nil, http.StatusBadRequest, eris.New("result reference needs an id or an inline result")
	case s.store == nil:
		return nil, http.StatusServiceUnavailable, eris.New("result store not configured")
	}
	res, err := s.store.Get(ctx, ref.ID)
	if eris.Is(err, store.ErrNotFound) {
		return nil, http.StatusNotFound, eris.Errorf("result %s not found", ref.ID)
	}
	if err != nil {
		zap.L().Error("api: load result", zap.String("id", ref.ID), zap.Error(err))
		return nil, http.StatusInternalServerError, eris.New("could not load result")
	}
	return res, 0, nil
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not configured")
		return
	}
	q := r.URL.Query()
	f := store.Filter{Type: model.AnalysisType(q.Get("type"))}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, p.name+" must be a non-negative integer")
			return
		}
		*p.dst = n
	}

	results, err := s.store.List(r.Context(), f)
	if err != nil {
		s.internalError(w, "list results", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not configured")
		return
	}
	id := chi.URLParam(r, "id")
	res, err := s.store.Get(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "result "+id+" not found")
		return
	}
	if err != nil {
		s.internalError(w, "get result", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) persist(ctx context.Context, w http.ResponseWriter, res *model.AnalysisResult) bool {
	if s.store == nil {
		return true
	}
	if err := s.store.Save(ctx, res); err != nil {
		s.internalError(w, "save result", err)
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("api: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
