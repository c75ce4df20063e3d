package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
)

func record(name string, status packing.Status, length int, age time.Duration) *Record {
	inst := packing.NewInstance(4, []int{2, 2}, []int{1, 1}, 0)
	out := &packing.Outcome{Status: status, Strategy: "boolean"}
	if status.HasSolution() {
		out.Solution = &packing.Solution{
			Length: length,
			Placements: []packing.Placement{
				{Circuit: 0, X: 0, Y: 0},
				{Circuit: 1, X: 2, Y: 0},
			},
		}
	}
	r := NewRecord(name, inst, "boolean", out)
	r.CreatedAt = r.CreatedAt.Add(-age)
	return r
}

func TestNewRecord(t *testing.T) {
	r := record("ins-1", packing.Optimal, 1, 0)
	if err := errors.ValidateRunID(r.ID); err != nil {
		t.Errorf("NewRecord id %q: %v", r.ID, err)
	}
	if r.Status != "optimal" || r.Length != 1 || r.InstanceHash == "" {
		t.Errorf("record summary = %s/%d/%q", r.Status, r.Length, r.InstanceHash)
	}
	if other := record("ins-1", packing.Optimal, 1, 0); other.ID == r.ID {
		t.Error("ids are not unique")
	}
}

func testStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	old := record("ins-1", packing.Optimal, 1, 2*time.Hour)
	mid := record("ins-2", packing.Infeasible, 0, time.Hour)
	recent := record("ins-1", packing.TimeoutPartial, 1, 0)
	for _, r := range []*Record{old, mid, recent} {
		if err := st.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := st.Get(ctx, mid.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	opts := cmpopts.EquateApproxTime(time.Millisecond)
	if diff := cmp.Diff(mid, got, opts); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{recent.ID, mid.ID, old.ID}},
		{"by name", Filter{Name: "ins-1"}, []string{recent.ID, old.ID}},
		{"by status", Filter{Status: "infeasible"}, []string{mid.ID}},
		{"limit", Filter{Limit: 1}, []string{recent.ID}},
		{"no match", Filter{Name: "nope"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := st.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var ids []string
			for _, r := range recs {
				ids = append(ids, r.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("List ids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if err := st.Delete(ctx, old.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, old.ID); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("Get after Delete = %v, want RUN_NOT_FOUND", err)
	}
	if err := st.Delete(ctx, old.ID); err != nil {
		t.Errorf("Delete twice: %v", err)
	}
	if _, err := st.Get(ctx, "../etc/passwd"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get(bad id) = %v, want INVALID_INPUT", err)
	}
}

func TestFileStore(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	testStore(t, st)
}

func TestFileStoreSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/broken.json", []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/notes.txt", []byte("hi"), 0600); err != nil {
		t.Fatal(err)
	}
	recs, err := st.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("List = %d records, want 0", len(recs))
	}
}

func TestDefaultDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg/platepack/runs" {
		t.Errorf("DefaultDir() = %q", dir)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PLATEPACK_MONGO_URI")
	if uri == "" {
		t.Skip("PLATEPACK_MONGO_URI not set")
	}
	ctx := context.Background()
	st, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "platepack_test", Collection: "runs_" + time.Now().Format("150405")})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer st.Close()
	defer st.coll.Drop(ctx)
	testStore(t, st)
}
