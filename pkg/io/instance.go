package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

// Instance formats.
const (
	FormatText = "txt"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// InstanceFormats lists the accepted instance formats.
var InstanceFormats = []string{FormatText, FormatJSON, FormatTOML}

// document is the JSON / TOML shape of an instance.
type document struct {
	Width     int       `json:"width" toml:"width"`
	MaxLength int       `json:"max_length,omitempty" toml:"max_length"`
	Circuits  []circuit `json:"circuits" toml:"circuits"`
}

type circuit struct {
	X int `json:"x" toml:"x"`
	Y int `json:"y" toml:"y"`
}

func (d document) instance() (*packing.Instance, error) {
	x := make([]int, len(d.Circuits))
	y := make([]int, len(d.Circuits))
	for k, c := range d.Circuits {
		x[k], y[k] = c.X, c.Y
	}
	inst := packing.NewInstance(d.Width, x, y, d.MaxLength)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func toDocument(inst *packing.Instance) document {
	d := document{Width: inst.Width, MaxLength: inst.MaxLength, Circuits: make([]circuit, inst.N)}
	for k := 0; k < inst.N; k++ {
		d.Circuits[k] = circuit{X: inst.X[k], Y: inst.Y[k]}
	}
	return d
}

// FormatFromPath infers an instance format from a file extension,
// defaulting to text.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	}
	return FormatText
}

// ImportInstance reads an instance file in the format implied by its
// extension.
func ImportInstance(path string) (*packing.Instance, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "instance file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	inst, err := ReadInstanceFormat(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// ReadInstanceFormat decodes an instance in the named format.
func ReadInstanceFormat(r io.Reader, format string) (*packing.Instance, error) {
	switch format {
	case FormatText, "":
		return ReadInstance(r)
	case FormatJSON:
		return ReadInstanceJSON(r)
	case FormatTOML:
		return ReadInstanceTOML(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown instance format %q", format)
}

// ReadInstance parses the text instance format.
func ReadInstance(r io.Reader) (*packing.Instance, error) {
	var lines [][]int
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		nums := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: %q is not an integer", lineNo, f)
			}
			nums[i] = v
		}
		lines = append(lines, nums)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if len(lines) < 2 || len(lines[0]) != 1 || len(lines[1]) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected plate width and circuit count on the first two lines")
	}
	w, n := lines[0][0], lines[1][0]
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "circuit count must be positive, got %d", n)
	}
	if len(lines) < 2+n {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "expected %d circuit lines, got %d", n, len(lines)-2)
	}
	x, y := make([]int, n), make([]int, n)
	for k := 0; k < n; k++ {
		l := lines[2+k]
		if len(l) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "circuit %d: expected \"x y\", got %d values", k, len(l))
		}
		x[k], y[k] = l[0], l[1]
	}

	maxLength := 0
	switch rest := lines[2+n:]; {
	case len(rest) == 1 && len(rest[0]) == 1:
		maxLength = rest[0][0]
	case len(rest) > 0:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unexpected data after circuit %d", n-1)
	}

	inst := packing.NewInstance(w, x, y, maxLength)
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// WriteInstance writes inst in the text format.
func WriteInstance(w io.Writer, inst *packing.Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", inst.Width, inst.N)
	for k := 0; k < inst.N; k++ {
		fmt.Fprintf(bw, "%d %d\n", inst.X[k], inst.Y[k])
	}
	fmt.Fprintf(bw, "%d\n", inst.MaxLength)
	return bw.Flush()
}

// ReadInstanceJSON decodes a JSON instance document.
func ReadInstanceJSON(r io.Reader) (*packing.Instance, error) {
	var d document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode instance")
	}
	return d.instance()
}

// WriteInstanceJSON encodes inst as a JSON instance document.
func WriteInstanceJSON(w io.Writer, inst *packing.Instance) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(inst)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadInstanceTOML decodes a TOML instance document:
//
//	width = 8
//	max_length = 16
//
//	[[circuits]]
//	x = 3
//	y = 3
func ReadInstanceTOML(r io.Reader) (*packing.Instance, error) {
	var d document
	md, err := toml.NewDecoder(r).Decode(&d)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode instance")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown instance key %q", undecoded[0].String())
	}
	return d.instance()
}
