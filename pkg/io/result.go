package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// WriteResult writes the text result file for out.
func WriteResult(w io.Writer, inst *packing.Instance, out *packing.Outcome) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n%d\n", inst.Width, out.Length(), inst.N)
	for k := 0; k < inst.N; k++ {
		if out.Solution == nil {
			fmt.Fprintf(bw, "%d %d\n", inst.X[k], inst.Y[k])
			continue
		}
		p := out.Solution.Placements[k]
		fmt.Fprintf(bw, "%d %d %d %d %t\n", inst.X[k], inst.Y[k], p.X, p.Y, p.Rotated)
	}
	fmt.Fprintf(bw, "# status %s\n", out.Status)
	if out.Strategy != "" {
		fmt.Fprintf(bw, "# strategy %s\n", out.Strategy)
	}
	if out.Reason != "" {
		fmt.Fprintf(bw, "# reason %s\n", out.Reason)
	}
	fmt.Fprintf(bw, "# iterations %d\n", out.Iterations)
	fmt.Fprintf(bw, "# elapsed_ms %.1f\n", float64(out.Elapsed)/float64(time.Millisecond))
	return bw.Flush()
}

// ExportResult writes the text result file to path.
func ExportResult(path string, inst *packing.Instance, out *packing.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResult(f, inst, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadResult parses a text result file. The returned instance uses the
// solved length as its maximum length since l_max is not echoed.
func ReadResult(r io.Reader) (*packing.Instance, *packing.Outcome, error) {
	var rows [][]string
	meta := map[string]string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(text, "#") {
			key, val, _ := strings.Cut(strings.TrimSpace(text[1:]), " ")
			meta[key] = strings.TrimSpace(val)
			continue
		}
		if fields := strings.Fields(text); len(fields) > 0 {
			rows = append(rows, fields)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}

	bad := func(format string, args ...any) (*packing.Instance, *packing.Outcome, error) {
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, format, args...)
	}
	if len(rows) < 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		return bad("expected \"w length\" and \"n\" header lines")
	}
	head, err := ints(rows[0])
	if err != nil {
		return bad("header: %v", err)
	}
	n, err := strconv.Atoi(rows[1][0])
	if err != nil || n < 1 || len(rows) != 2+n {
		return bad("expected %s circuit lines, got %d", rows[1][0], len(rows)-2)
	}

	out := &packing.Outcome{Status: packing.Optimal}
	if s, ok := meta["status"]; ok {
		if out.Status, err = packing.ParseStatus(s); err != nil {
			return nil, nil, err
		}
	}
	out.Strategy = meta["strategy"]
	out.Reason = meta["reason"]
	if v, ok := meta["iterations"]; ok {
		out.Iterations, _ = strconv.Atoi(v)
	}
	if v, ok := meta["elapsed_ms"]; ok {
		ms, _ := strconv.ParseFloat(v, 64)
		out.Elapsed = time.Duration(ms * float64(time.Millisecond))
	}

	x, y := make([]int, n), make([]int, n)
	var placements []packing.Placement
	for k := 0; k < n; k++ {
		row := rows[2+k]
		switch len(row) {
		case 2:
		case 5:
			rot, err := strconv.ParseBool(row[4])
			if err != nil {
				return bad("circuit %d: rotated flag %q", k, row[4])
			}
			coords, err := ints(row[2:4])
			if err != nil {
				return bad("circuit %d: %v", k, err)
			}
			placements = append(placements, packing.Placement{Circuit: k, X: coords[0], Y: coords[1], Rotated: rot})
		default:
			return bad("circuit %d: expected 2 or 5 fields, got %d", k, len(row))
		}
		dims, err := ints(row[:2])
		if err != nil {
			return bad("circuit %d: %v", k, err)
		}
		x[k], y[k] = dims[0], dims[1]
	}

	length := head[1]
	if len(placements) > 0 {
		if len(placements) != n {
			return bad("only %d of %d circuits are placed", len(placements), n)
		}
		out.Solution = &packing.Solution{Length: length, Placements: placements}
	}
	// a length of 0 falls back to the stacking bound
	inst := packing.NewInstance(head[0], x, y, length)
	if err := inst.Validate(); err != nil {
		return nil, nil, err
	}
	return inst, out, nil
}

// ImportResult reads a text result file from path.
func ImportResult(path string) (*packing.Instance, *packing.Outcome, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.New(errors.ErrCodeFileNotFound, "result file not found: %s", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadResult(f)
}

// WriteOutcomeJSON encodes out as indented JSON.
func WriteOutcomeJSON(w io.Writer, out *packing.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadOutcomeJSON decodes an outcome written by WriteOutcomeJSON.
func ReadOutcomeJSON(r io.Reader) (*packing.Outcome, error) {
	var out packing.Outcome
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode outcome")
	}
	return &out, nil
}

func ints(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", f)
		}
		out[i] = v
	}
	return out, nil
}
