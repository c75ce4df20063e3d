package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/store"
)

// Two unit-height circuits that fit side by side: optimal length 1.
const sideBySide = "3\n2\n1 1\n2 1\n"

func newTestServer(t *testing.T, options ...Option) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	srv := New(runner, append([]Option{WithStore(st)}, options...)...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestSolveText(t *testing.T) {
	ts, st := newTestServer(t)
	resp := post(t, ts.URL+"/v1/solve", SolveRequest{
		Name:    "pair",
		Text:    sideBySide,
		Options: pipeline.Options{Formats: []string{pipeline.FormatText, pipeline.FormatASCII}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[SolveResponse](t, resp)
	if got.Outcome.Status != packing.Optimal {
		t.Fatalf("status = %v, want optimal", got.Outcome.Status)
	}
	if got.Outcome.Solution.Length != 1 {
		t.Errorf("length = %d, want 1", got.Outcome.Solution.Length)
	}
	if _, ok := got.Artifacts[pipeline.FormatASCII]; !ok {
		t.Errorf("artifacts = %v, want ascii", got.Artifacts)
	}
	if got.ID == "" {
		t.Fatal("run was not archived")
	}
	rec, err := st.Get(t.Context(), got.ID)
	if err != nil {
		t.Fatalf("Get(%s): %v", got.ID, err)
	}
	if rec.Name != "pair" || rec.Length != 1 {
		t.Errorf("record = %+v", rec)
	}
}

func TestSolveJSONInstance(t *testing.T) {
	ts, _ := newTestServer(t)
	doc := json.RawMessage(`{"width": 2, "circuits": [{"x": 2, "y": 1}, {"x": 2, "y": 2}]}`)
	resp := post(t, ts.URL+"/v1/solve", SolveRequest{
		Instance: doc,
		Options:  pipeline.Options{Strategy: "arith"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[SolveResponse](t, resp)
	if got.Outcome.Status != packing.Optimal || got.Outcome.Solution.Length != 3 {
		t.Errorf("outcome = %+v", got.Outcome)
	}
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		body    any
		status  int
		code    errors.Code
	}{
		{
			name:   "no instance",
			body:   SolveRequest{},
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidInput,
		},
		{
			name:   "both instance forms",
			body:   SolveRequest{Text: sideBySide, Instance: json.RawMessage(`{}`)},
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidInput,
		},
		{
			name:   "bad text",
			body:   SolveRequest{Text: "3\nx\n"},
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidFormat,
		},
		{
			name:   "unknown strategy",
			body:   SolveRequest{Text: sideBySide, Options: pipeline.Options{Strategy: "annealing"}},
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidStrategy,
		},
		{
			name:    "too many circuits",
			options: []Option{WithLimits(0, 1, 0)},
			body:    SolveRequest{Text: sideBySide},
			status:  http.StatusBadRequest,
			code:    errors.ErrCodeInvalidInstance,
		},
		{
			name:    "grid too large",
			options: []Option{WithLimits(0, 0, 11)},
			body:    SolveRequest{Text: sideBySide},
			status:  http.StatusBadRequest,
			code:    errors.ErrCodeInvalidInstance,
		},
		{
			name:   "unknown field",
			body:   map[string]any{"text": sideBySide, "budget": 3},
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.options...)
			resp := post(t, ts.URL+"/v1/solve", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := decode[errorBody](t, resp); got.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", got.Code, tt.code, got.Message)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, name := range []string{"a", "b", "a"} {
		resp := post(t, ts.URL+"/v1/solve", SolveRequest{Name: name, Text: sideBySide})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("solve %s: status %d", name, resp.StatusCode)
		}
	}

	all := decode[[]RunSummary](t, get(t, ts.URL+"/v1/runs"))
	if len(all) != 3 {
		t.Fatalf("runs = %d, want 3", len(all))
	}
	named := decode[[]RunSummary](t, get(t, ts.URL+"/v1/runs?name=a"))
	if len(named) != 2 {
		t.Errorf("runs?name=a = %d, want 2", len(named))
	}
	limited := decode[[]RunSummary](t, get(t, ts.URL+"/v1/runs?limit=1"))
	if len(limited) != 1 {
		t.Errorf("runs?limit=1 = %d, want 1", len(limited))
	}
	if resp := get(t, ts.URL+"/v1/runs?limit=zero"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", resp.StatusCode)
	}

	resp := get(t, ts.URL+"/v1/runs/"+all[0].ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get run: status = %d", resp.StatusCode)
	}
	rec := decode[store.Record](t, resp)
	if rec.ID != all[0].ID || rec.Instance == nil {
		t.Errorf("record = %+v", rec)
	}

	missing := get(t, ts.URL+"/v1/runs/00000000-0000-0000-0000-000000000000")
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing run: status = %d, want 404", missing.StatusCode)
	}
}

func TestRunsWithoutStore(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	ts := httptest.NewServer(New(runner).Handler())
	defer ts.Close()

	resp := get(t, ts.URL+"/v1/runs")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestOptionsClampTimeout(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	s := New(runner, WithLimits(1000, 0, 0))

	tests := []struct{ req, want int }{
		{0, 1000},
		{500, 500},
		{5000, 1000},
	}
	for _, tt := range tests {
		opts, err := s.options(pipeline.Options{TimeoutMS: tt.req})
		if err != nil {
			t.Fatalf("options(%d): %v", tt.req, err)
		}
		if opts.TimeoutMS != tt.want {
			t.Errorf("options(%d).TimeoutMS = %d, want %d", tt.req, opts.TimeoutMS, tt.want)
		}
	}
}

func TestReleaseWaitsForDetachedSearches(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	s := New(runner, WithConcurrency(1))

	s.slots <- struct{}{}
	s.release(&detached{})
	select {
	case s.slots <- struct{}{}:
	default:
		t.Fatal("slot not freed without detached searches")
	}

	exited := make(chan struct{})
	d := &detached{}
	d.add(exited)
	s.release(d)
	select {
	case s.slots <- struct{}{}:
		t.Fatal("slot freed while a detached search runs")
	case <-time.After(20 * time.Millisecond):
	}

	close(exited)
	select {
	case s.slots <- struct{}{}:
	case <-time.After(time.Second):
		t.Fatal("slot not freed after the detached search exited")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeRunNotFound, http.StatusNotFound},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeTimeout, http.StatusServiceUnavailable},
		{errors.ErrCodeStorage, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
