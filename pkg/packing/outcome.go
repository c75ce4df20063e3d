package packing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/platepack/pkg/errors"
)

// Status is the terminal verdict of a solve call.
type Status int

const (
	// Optimal means the search proved no shorter packing exists.
	Optimal Status = iota
	// TimeoutPartial means the budget ran out after at least one packing was found.
	TimeoutPartial
	// TimeoutNoSolution means the budget ran out before any packing was found.
	TimeoutNoSolution
	// Infeasible means no packing exists within the maximum length.
	Infeasible
)

var statusNames = map[Status]string{
	Optimal:           "optimal",
	TimeoutPartial:    "timeout-partial",
	TimeoutNoSolution: "timeout-no-solution",
	Infeasible:        "infeasible",
}

// String returns the lower-case name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// HasSolution reports whether outcomes with this status carry a packing.
func (s Status) HasSolution() bool {
	return s == Optimal || s == TimeoutPartial
}

// Placement is the lower-left corner of one circuit on the plate.
// Rotated is always false: neither formulation models rotation.
type Placement struct {
	Circuit int  `json:"circuit"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Rotated bool `json:"rotated"`
}

// Solution is a complete packing.
type Solution struct {
	Length     int         `json:"length"`
	Placements []Placement `json:"placements"`
}

// Outcome is what every strategy returns.
type Outcome struct {
	Status     Status        `json:"status"`
	Strategy   string        `json:"strategy"`
	Solution   *Solution     `json:"solution,omitempty"`
	Elapsed    time.Duration `json:"-"`
	Iterations int           `json:"iterations"`
	Reason     string        `json:"reason,omitempty"`
}

// Length returns the solved length, or 0 when no packing is attached.
func (o *Outcome) Length() int {
	if o == nil || o.Solution == nil {
		return 0
	}
	return o.Solution.Length
}

// Err converts solution-less verdicts into structured errors.
// Optimal and TimeoutPartial outcomes return nil.
func (o *Outcome) Err() error {
	switch o.Status {
	case Infeasible:
		if o.Reason != "" {
			return errors.New(errors.ErrCodeInfeasible, "no packing fits: %s", o.Reason)
		}
		return errors.New(errors.ErrCodeInfeasible, "no packing fits within the maximum length")
	case TimeoutNoSolution:
		return &errors.TimeoutError{Budget: o.Elapsed}
	}
	return nil
}

// Better reports whether o is preferable to other: a proof beats a guess,
// any packing beats none, and shorter beats longer.
func (o *Outcome) Better(other *Outcome) bool {
	if other == nil {
		return o != nil
	}
	if o == nil {
		return false
	}
	if o.Status == Infeasible || other.Status == Infeasible {
		return o.Status == Infeasible && other.Status != Infeasible
	}
	if o.Status.HasSolution() != other.Status.HasSolution() {
		return o.Status.HasSolution()
	}
	if o.Length() != other.Length() {
		return o.Length() < other.Length()
	}
	return o.Status == Optimal && other.Status != Optimal
}

// MarshalJSON encodes Elapsed as milliseconds.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	return json.Marshal(struct {
		alias
		Elapsed float64 `json:"elapsed_ms"`
	}{alias(o), float64(o.Elapsed) / float64(time.Millisecond)})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	type alias Outcome
	aux := struct {
		*alias
		Elapsed float64 `json:"elapsed_ms"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.Elapsed = time.Duration(aux.Elapsed * float64(time.Millisecond))
	return nil
}

// Improvement is reported each time a strategy finds a shorter packing.
type Improvement struct {
	Strategy  string
	Iteration int
	Length    int
	Elapsed   time.Duration
}

// ProgressFunc receives improvements as they are found. It is called from
// the solving goroutine and must not block.
type ProgressFunc func(Improvement)

// Strategy solves an instance end to end. Solver verdicts are reported
// through Outcome.Status; the error is reserved for failures of the
// machinery itself (invalid input, engine faults).
type Strategy interface {
	Name() string
	Solve(ctx context.Context, inst *Instance) (*Outcome, error)
}
