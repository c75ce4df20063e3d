package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/store"
)

func testRuns() []*store.Record {
	inst := packing.NewInstance(3, []int{1, 2}, []int{1, 1}, 0)
	out := &packing.Outcome{
		Status:   packing.Optimal,
		Strategy: "boolean",
		Solution: &packing.Solution{Length: 1, Placements: []packing.Placement{
			{Circuit: 0, X: 0, Y: 0}, {Circuit: 1, X: 1, Y: 0},
		}},
	}
	var runs []*store.Record
	for _, name := range []string{"first", "second", "third"} {
		runs = append(runs, store.NewRecord(name, inst, "boolean", out))
	}
	return runs
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m RunListModel, keys ...string) RunListModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(RunListModel)
	}
	return m
}

func TestRunListNavigation(t *testing.T) {
	m := NewRunListModel(testRuns())

	m = press(m, "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d after moving past the end, want 2", m.Cursor)
	}
	m = press(m, "up", "k")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}
}

func TestRunListPreview(t *testing.T) {
	m := press(NewRunListModel(testRuns()), "j", "enter")
	if !m.Preview || m.Selected == nil || m.Selected.Name != "second" {
		t.Fatalf("preview not opened on the selected run: %+v", m.Selected)
	}
	if view := m.View(); !strings.Contains(view, "second") || !strings.Contains(view, "AB") {
		t.Errorf("preview view = %q", view)
	}
	m = press(m, "enter")
	if m.Preview {
		t.Error("enter should close the preview")
	}
}

func TestRunListDelete(t *testing.T) {
	runs := testRuns()
	ids := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	m := press(NewRunListModel(runs), "down", "down", "d")

	if len(m.Runs) != 2 || m.Cursor != 1 {
		t.Errorf("after deleting the last run: %d runs, cursor %d", len(m.Runs), m.Cursor)
	}
	if len(m.Deleted) != 1 || m.Deleted[0] != ids[2] {
		t.Errorf("Deleted = %v, want [%s]", m.Deleted, ids[2])
	}
	if runs[2].ID != ids[2] {
		t.Error("delete modified the caller's slice")
	}

	m = press(m, "d", "d", "d")
	if len(m.Runs) != 0 || len(m.Deleted) != 3 {
		t.Errorf("after deleting all: %d runs, %d deleted", len(m.Runs), len(m.Deleted))
	}
	if view := m.View(); !strings.Contains(view, "no runs") {
		t.Errorf("empty view = %q", view)
	}
}

func TestRunListQuit(t *testing.T) {
	m := NewRunListModel(testRuns())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestRunListWindowSize(t *testing.T) {
	m := NewRunListModel(testRuns())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	if got := next.(RunListModel).Height; got != 5 {
		t.Errorf("Height = %d, want the minimum 5", got)
	}
}

func TestRunTable(t *testing.T) {
	runs := testRuns()
	out := runTable(runs, 1, 5, 1, time.Now())
	if strings.Contains(out, "first") {
		t.Error("rows before the offset should be hidden")
	}
	for _, want := range []string{"second", "third", shortID(runs[1].ID), "optimal", "just now"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "May 16, 2025"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(short) = %q", got)
	}
}
