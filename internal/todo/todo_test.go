package todo

import (
	"errors"
	"testing"
	"time"
)

func sample() []Todo {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []Todo{
		{ID: "1", Text: "Buy milk", Completed: false, CreatedAt: now},
		{ID: "2", Text: "Walk dog", Completed: true, CreatedAt: now.Add(time.Minute)},
		{ID: "3", Text: "Read book", Completed: false, CreatedAt: now.Add(2 * time.Minute)},
		{ID: "4", Text: "Pay bills", Completed: true, CreatedAt: now.Add(3 * time.Minute)},
	}
}

func ids(todos []Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func equalIDs(t *testing.T, got []Todo, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"", FilterAll},
		{"all", FilterAll},
		{"active", FilterActive},
		{"completed", FilterCompleted},
		{" Active ", FilterActive},
		{"bogus", FilterAll},
	}
	for _, tt := range tests {
		if got := ParseFilter(tt.in); got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterTodos(t *testing.T) {
	todos := sample()

	equalIDs(t, FilterTodos(todos, FilterAll), "1", "2", "3", "4")
	equalIDs(t, FilterTodos(todos, FilterActive), "1", "3")
	equalIDs(t, FilterTodos(todos, FilterCompleted), "2", "4")
}

func TestFilterPartitionsCollection(t *testing.T) {
	todos := sample()
	active := FilterTodos(todos, FilterActive)
	completed := FilterTodos(todos, FilterCompleted)

	if len(active)+len(completed) != len(todos) {
		t.Fatalf("active (%d) + completed (%d) != all (%d)", len(active), len(completed), len(todos))
	}
	seen := make(map[string]bool)
	for _, td := range append(active, completed...) {
		if seen[td.ID] {
			t.Errorf("id %s appears in both partitions", td.ID)
		}
		seen[td.ID] = true
	}
}

func TestFilterTodosEmptyIsNotNil(t *testing.T) {
	if got := FilterTodos(nil, FilterAll); got == nil {
		t.Error("expected empty non-nil slice")
	}
}

func TestNew(t *testing.T) {
	now := time.Now()
	td, err := New("Buy milk", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if td.ID == "" {
		t.Error("expected generated id")
	}
	if td.Text != "Buy milk" || td.Completed || !td.CreatedAt.Equal(now) {
		t.Errorf("unexpected todo: %+v", td)
	}

	other, _ := New("Buy milk", now)
	if other.ID == td.ID {
		t.Error("ids should be unique")
	}
}

func TestNewRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := New(text, time.Now()); !errors.Is(err, ErrTextRequired) {
			t.Errorf("New(%q) error = %v, want ErrTextRequired", text, err)
		}
	}
}

func TestUpdateChangesOnlySuppliedFields(t *testing.T) {
	todos := sample()
	done := true

	out, updated, err := Update(todos, "1", Patch{Completed: &done})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Completed {
		t.Error("expected completed=true")
	}
	if updated.Text != todos[0].Text || !updated.CreatedAt.Equal(todos[0].CreatedAt) {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if out[0] != updated {
		t.Error("updated record not placed in collection")
	}
	if todos[0].Completed {
		t.Error("input collection must not be mutated")
	}
	equalIDs(t, out, "1", "2", "3", "4")
}

func TestUpdateText(t *testing.T) {
	text := "Buy oat milk"
	_, updated, err := Update(sample(), "1", Patch{Text: &text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Text != text || updated.Completed {
		t.Errorf("unexpected todo: %+v", updated)
	}

	empty := " "
	if _, _, err := Update(sample(), "1", Patch{Text: &empty}); !errors.Is(err, ErrTextRequired) {
		t.Errorf("expected ErrTextRequired, got %v", err)
	}
}

func TestUpdateErrors(t *testing.T) {
	done := true
	if _, _, err := Update(sample(), "", Patch{Completed: &done}); !errors.Is(err, ErrIDRequired) {
		t.Errorf("expected ErrIDRequired, got %v", err)
	}
	if _, _, err := Update(sample(), "missing", Patch{Completed: &done}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	out, err := Remove(sample(), "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	equalIDs(t, out, "1", "3", "4")
}

func TestRemoveMissingLeavesCollection(t *testing.T) {
	todos := sample()
	out, err := Remove(todos, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	equalIDs(t, out, "1", "2", "3", "4")
}

func TestClearCompletedIsIdempotent(t *testing.T) {
	first := ClearCompleted(sample())
	second := ClearCompleted(first)

	equalIDs(t, first, "1", "3")
	equalIDs(t, second, "1", "3")
}
