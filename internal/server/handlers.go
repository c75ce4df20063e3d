package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/platepack/pkg/buildinfo"
	"github.com/matzehuels/platepack/pkg/errors"
	pio "github.com/matzehuels/platepack/pkg/io"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// SolveRequest is the body of POST /v1/solve. Exactly one of Instance (the
// JSON instance document) and Text (the text instance format) is set.
type SolveRequest struct {
	Name     string           `json:"name,omitempty"`
	Instance json.RawMessage  `json:"instance,omitempty"`
	Text     string           `json:"text,omitempty"`
	Options  pipeline.Options `json:"options"`
}

// SolveResponse is returned by POST /v1/solve.
type SolveResponse struct {
	ID        string            `json:"id,omitempty"`
	Cached    bool              `json:"cached"`
	Outcome   *packing.Outcome  `json:"outcome"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

// RunSummary is one entry of GET /v1/runs.
type RunSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	Strategy  string `json:"strategy"`
	Status    string `json:"status"`
	Length    int    `json:"length"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	inst, err := s.instance(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.options(req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}

	searches := &detached{}
	opts.Detached = searches.add
	select {
	case s.slots <- struct{}{}:
		defer s.release(searches)
	case <-r.Context().Done():
		s.writeError(w, errors.Wrap(errors.ErrCodeTimeout, r.Context().Err(), "waiting for a solver slot"))
		return
	}

	res, err := s.runner.Execute(r.Context(), inst, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := SolveResponse{
		Cached:    res.CacheInfo.SolveHit,
		Outcome:   res.Outcome,
		Artifacts: make(map[string]string, len(res.Artifacts)),
	}
	for f, data := range res.Artifacts {
		resp.Artifacts[f] = string(data)
	}
	if s.store != nil {
		rec := store.NewRecord(req.Name, inst, opts.Strategy, res.Outcome)
		if err := s.store.Save(r.Context(), rec); err != nil {
			s.logger.Warn("archive run failed", "error", err)
		} else {
			resp.ID = rec.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "run archive disabled"))
		return
	}
	q := r.URL.Query()
	f := store.Filter{Name: q.Get("name"), Status: q.Get("status")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		f.Limit = n
	}

	recs, err := s.store.List(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]RunSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, RunSummary{
			ID:        rec.ID,
			Name:      rec.Name,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Strategy:  rec.Strategy,
			Status:    rec.Status,
			Length:    rec.Length,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "run archive disabled"))
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// instance decodes and bounds the request instance.
func (s *Server) instance(req SolveRequest) (*packing.Instance, error) {
	var inst *packing.Instance
	var err error
	switch {
	case len(req.Instance) > 0 && req.Text != "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "set either instance or text, not both")
	case len(req.Instance) > 0:
		inst, err = pio.ReadInstanceJSON(bytes.NewReader(req.Instance))
	case req.Text != "":
		inst, err = pio.ReadInstance(strings.NewReader(req.Text))
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "instance or text is required")
	}
	if err != nil {
		return nil, err
	}
	if inst.N > s.maxCircuits {
		return nil, errors.New(errors.ErrCodeInvalidInstance, "instance has %d circuits (max %d)", inst.N, s.maxCircuits)
	}
	if cells := float64(inst.Width) * float64(inst.MaxLength) * float64(inst.N); cells > float64(s.maxCells) {
		return nil, errors.New(errors.ErrCodeInvalidInstance, "placement grid %dx%d for %d circuits exceeds %d cells", inst.Width, inst.MaxLength, inst.N, s.maxCells)
	}
	return inst, inst.Validate()
}

// options layers the request options over the server defaults and clamps
// the budget. Debug dumps are never exposed over HTTP.
func (s *Server) options(req pipeline.Options) (pipeline.Options, error) {
	opts := s.defaults.Overlay(req)
	opts.Color = false
	opts.Logger = s.logger
	opts.DumpVars, opts.DumpPB, opts.Progress = nil, nil, nil

	if opts.TimeoutMS == 0 || opts.TimeoutMS > s.maxTimeoutMS {
		opts.TimeoutMS = s.maxTimeoutMS
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(errors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidInstance, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidStyle, errors.ErrCodeInvalidStrategy:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
