package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

const scenarioA = `# two columns
8
4
3 3
3 5
5 3   # wide and short
5 5

16
`

func TestReadInstance(t *testing.T) {
	inst, err := ReadInstance(strings.NewReader(scenarioA))
	if err != nil {
		t.Fatalf("ReadInstance: %v", err)
	}
	want := packing.NewInstance(8, []int{3, 3, 5, 5}, []int{3, 5, 3, 5}, 16)
	if diff := cmp.Diff(want, inst); diff != "" {
		t.Errorf("instance mismatch (-want +got):\n%s", diff)
	}
}

func TestReadInstanceDefaultMaxLength(t *testing.T) {
	inst, err := ReadInstance(strings.NewReader("4\n2\n1 2\n3 4\n"))
	if err != nil {
		t.Fatalf("ReadInstance: %v", err)
	}
	if inst.MaxLength != 6 {
		t.Errorf("MaxLength = %d, want 6", inst.MaxLength)
	}
}

func TestReadInstanceErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"empty", "", errors.ErrCodeInvalidFormat},
		{"not a number", "8\nfour\n", errors.ErrCodeInvalidFormat},
		{"missing circuits", "8\n3\n1 1\n", errors.ErrCodeInvalidFormat},
		{"bad circuit line", "8\n1\n1 1 1\n", errors.ErrCodeInvalidFormat},
		{"trailing data", "8\n1\n1 1\n4\n5\n", errors.ErrCodeInvalidFormat},
		{"zero width circuit", "8\n1\n0 1\n", errors.ErrCodeInvalidInstance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadInstance(strings.NewReader(tt.in))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestInstanceRoundTrip(t *testing.T) {
	inst := packing.NewInstance(8, []int{3, 3, 5, 5}, []int{3, 5, 3, 5}, 16)
	for _, format := range InstanceFormats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			var err error
			switch format {
			case FormatText:
				err = WriteInstance(&buf, inst)
			case FormatJSON:
				err = WriteInstanceJSON(&buf, inst)
			case FormatTOML:
				buf.WriteString("width = 8\nmax_length = 16\n")
				for k := 0; k < inst.N; k++ {
					buf.WriteString("\n[[circuits]]\n")
					buf.WriteString("x = " + strconv.Itoa(inst.X[k]) + "\ny = " + strconv.Itoa(inst.Y[k]) + "\n")
				}
			}
			if err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := ReadInstanceFormat(&buf, format)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if diff := cmp.Diff(inst, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadInstanceTOMLUnknownKey(t *testing.T) {
	_, err := ReadInstanceTOML(strings.NewReader("width = 2\nheight = 3\n[[circuits]]\nx = 1\ny = 1\n"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestImportInstance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ins-1.txt")
	if err := os.WriteFile(path, []byte(scenarioA), 0644); err != nil {
		t.Fatal(err)
	}
	inst, err := ImportInstance(path)
	if err != nil {
		t.Fatalf("ImportInstance: %v", err)
	}
	if inst.N != 4 {
		t.Errorf("N = %d, want 4", inst.N)
	}

	_, err = ImportInstance(filepath.Join(dir, "missing.txt"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.txt":      FormatText,
		"a.JSON":     FormatJSON,
		"dir/b.toml": FormatTOML,
		"noext":      FormatText,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func scenarioAOutcome() (*packing.Instance, *packing.Outcome) {
	inst := packing.NewInstance(8, []int{3, 3, 5, 5}, []int{3, 5, 3, 5}, 8)
	return inst, &packing.Outcome{
		Status:     packing.Optimal,
		Strategy:   "boolean",
		Iterations: 3,
		Elapsed:    42 * time.Millisecond,
		Solution: &packing.Solution{
			Length: 8,
			Placements: []packing.Placement{
				{Circuit: 0, X: 0, Y: 5},
				{Circuit: 1, X: 0, Y: 0},
				{Circuit: 2, X: 3, Y: 5},
				{Circuit: 3, X: 3, Y: 0},
			},
		},
	}
}

func TestWriteResult(t *testing.T) {
	inst, out := scenarioAOutcome()
	var buf bytes.Buffer
	if err := WriteResult(&buf, inst, out); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	want := `8 8
4
3 3 0 5 false
3 5 0 0 false
5 3 3 5 false
5 5 3 0 false
# status optimal
# strategy boolean
# iterations 3
# elapsed_ms 42.0
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestResultRoundTrip(t *testing.T) {
	inst, out := scenarioAOutcome()
	var buf bytes.Buffer
	if err := WriteResult(&buf, inst, out); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	gotInst, gotOut, err := ReadResult(&buf)
	if err != nil {
		t.Fatalf("ReadResult: %v", err)
	}
	if diff := cmp.Diff(inst, gotInst); diff != "" {
		t.Errorf("instance mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(out, gotOut); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
	if err := packing.Verify(gotInst, gotOut.Solution); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestResultWithoutSolution(t *testing.T) {
	inst := packing.NewInstance(3, []int{2, 2}, []int{2, 2}, 3)
	out := &packing.Outcome{Status: packing.Infeasible, Strategy: "arith", Reason: "no packing within the maximum length"}
	var buf bytes.Buffer
	if err := WriteResult(&buf, inst, out); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "3 0\n2\n2 2\n2 2\n# status infeasible\n") {
		t.Errorf("unexpected result:\n%s", buf.String())
	}
	_, got, err := ReadResult(&buf)
	if err != nil {
		t.Fatalf("ReadResult: %v", err)
	}
	if got.Status != packing.Infeasible || got.Solution != nil || got.Reason != out.Reason {
		t.Errorf("ReadResult = %+v", got)
	}
}

func TestOutcomeJSONRoundTrip(t *testing.T) {
	_, out := scenarioAOutcome()
	var buf bytes.Buffer
	if err := WriteOutcomeJSON(&buf, out); err != nil {
		t.Fatalf("WriteOutcomeJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"status": "optimal"`) {
		t.Errorf("status not encoded by name:\n%s", buf.String())
	}
	got, err := ReadOutcomeJSON(&buf)
	if err != nil {
		t.Fatalf("ReadOutcomeJSON: %v", err)
	}
	if diff := cmp.Diff(out, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
}
