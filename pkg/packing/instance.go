package packing

import (
	"encoding/json"

	"github.com/matzehuels/platepack/pkg/errors"
)

// Instance is a strip packing problem: N circuits of size X[k]×Y[k] placed on
// a plate of fixed Width whose length may range over [1, MaxLength].
// Circuit order is significant; index k identifies a circuit everywhere.
type Instance struct {
	Width     int   `json:"width"`
	N         int   `json:"n"`
	X         []int `json:"x"`
	Y         []int `json:"y"`
	MaxLength int   `json:"max_length"`
}

// NewInstance builds an instance from circuit dimensions. A maxLength of 0
// selects the stacking bound Σ y_k.
func NewInstance(width int, x, y []int, maxLength int) *Instance {
	inst := &Instance{
		Width:     width,
		N:         len(x),
		X:         append([]int(nil), x...),
		Y:         append([]int(nil), y...),
		MaxLength: maxLength,
	}
	if inst.MaxLength == 0 {
		inst.MaxLength = inst.StackedLength()
	}
	return inst
}

// Validate checks the structural invariants of the instance.
func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New(errors.ErrCodeInvalidInstance, "instance is nil")
	}
	if inst.Width < 1 {
		return errors.New(errors.ErrCodeInvalidInstance, "plate width must be positive, got %d", inst.Width)
	}
	if inst.N < 1 {
		return errors.New(errors.ErrCodeInvalidInstance, "instance has no circuits")
	}
	if len(inst.X) != inst.N || len(inst.Y) != inst.N {
		return errors.New(errors.ErrCodeInvalidInstance, "expected %d circuits, got %d widths and %d heights", inst.N, len(inst.X), len(inst.Y))
	}
	for k := 0; k < inst.N; k++ {
		if inst.X[k] < 1 || inst.Y[k] < 1 {
			return errors.New(errors.ErrCodeInvalidInstance, "circuit %d has non-positive size %dx%d", k, inst.X[k], inst.Y[k])
		}
	}
	if inst.MaxLength < 1 {
		return errors.New(errors.ErrCodeInvalidInstance, "max length must be positive, got %d", inst.MaxLength)
	}
	return nil
}

// Tallest returns the index of the circuit with maximum height.
// Ties go to the first occurrence.
func (inst *Instance) Tallest() int {
	best := 0
	for k := 1; k < inst.N; k++ {
		if inst.Y[k] > inst.Y[best] {
			best = k
		}
	}
	return best
}

// Area returns the total circuit area.
func (inst *Instance) Area() int {
	area := 0
	for k := 0; k < inst.N; k++ {
		area += inst.X[k] * inst.Y[k]
	}
	return area
}

// StackedLength is the length used when every circuit sits on its own rows.
func (inst *Instance) StackedLength() int {
	total := 0
	for _, y := range inst.Y {
		total += y
	}
	return total
}

// LowerBound returns max(max y, ⌈area / w⌉), a length no packing can beat.
func (inst *Instance) LowerBound() int {
	lb := inst.Y[inst.Tallest()]
	if byArea := (inst.Area() + inst.Width - 1) / inst.Width; byArea > lb {
		lb = byArea
	}
	return lb
}

// TriviallyInfeasible reports whether the instance cannot be packed within
// MaxLength for a reason visible without search, returning that reason.
func (inst *Instance) TriviallyInfeasible() (string, bool) {
	for k := 0; k < inst.N; k++ {
		if inst.X[k] > inst.Width {
			return "circuit wider than the plate", true
		}
		if inst.Y[k] > inst.MaxLength {
			return "circuit taller than the maximum length", true
		}
	}
	if inst.Area() > inst.Width*inst.MaxLength {
		return "total circuit area exceeds plate area", true
	}
	return "", false
}

// MinX returns the smallest circuit width.
func (inst *Instance) MinX() int { return minOf(inst.X) }

// MinY returns the smallest circuit height.
func (inst *Instance) MinY() int { return minOf(inst.Y) }

// Fingerprint returns a canonical byte encoding used for cache keys.
func (inst *Instance) Fingerprint() []byte {
	data, _ := json.Marshal(inst)
	return data
}

func minOf(vs []int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
