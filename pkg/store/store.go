// Package store archives finished runs.
//
// A [Record] keeps the instance, the options that matter for reproducing
// the run, and the outcome. Two backends implement [Store]:
//   - file: one JSON document per run under the XDG data directory, for the CLI
//   - mongo: a MongoDB collection, for shared deployments of the HTTP API
//
// # Usage
//
//	st, err := store.NewFileStore("") // ~/.local/share/platepack/runs
//	if err != nil {
//	    return err
//	}
//	rec := store.NewRecord("ins-8", inst, "boolean", outcome)
//	if err := st.Save(ctx, rec); err != nil {
//	    return err
//	}
//	recent, err := st.List(ctx, store.Filter{Limit: 20})
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/platepack/pkg/cache"
	"github.com/matzehuels/platepack/pkg/packing"
)

// DefaultLimit caps List when Filter.Limit is zero.
const DefaultLimit = 100

// Record is one archived run.
type Record struct {
	ID           string            `json:"id" bson:"_id"`
	Name         string            `json:"name" bson:"name"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	InstanceHash string            `json:"instance_hash" bson:"instance_hash"`
	Strategy     string            `json:"strategy" bson:"strategy"`
	Status       string            `json:"status" bson:"status"`
	Length       int               `json:"length" bson:"length"`
	Instance     *packing.Instance `json:"instance" bson:"instance"`
	Outcome      *packing.Outcome  `json:"outcome" bson:"outcome"`
}

// NewRecord creates a record with a fresh id. strategy is the requested
// strategy, which for a portfolio differs from the winner in out.
func NewRecord(name string, inst *packing.Instance, strategy string, out *packing.Outcome) *Record {
	return &Record{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    time.Now().UTC(),
		InstanceHash: cache.Hash(inst.Fingerprint()),
		Strategy:     strategy,
		Status:       out.Status.String(),
		Length:       out.Length(),
		Instance:     inst,
		Outcome:      out,
	}
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Name   string
	Status string
	Limit  int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

func (f Filter) match(r *Record) bool {
	return (f.Name == "" || r.Name == f.Name) && (f.Status == "" || r.Status == f.Status)
}

// Store persists records. Get returns an error with code RUN_NOT_FOUND for
// unknown ids; List returns newest first.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, f Filter) ([]*Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
