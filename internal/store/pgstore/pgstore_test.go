package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"todos/internal/todo"
)

// newTestStore connects to TODOS_TEST_DATABASE_URL or skips the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TODOS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TODOS_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM todos`); err != nil {
		t.Fatalf("reset table: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := newTestStore(t)

	todos, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Errorf("expected empty collection, got %v", todos)
	}
}

func TestSaveLoadKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	want := []todo.Todo{
		{ID: "z", Text: "last id first", CreatedAt: now},
		{ID: "a", Text: "first id second", Completed: true, CreatedAt: now.Add(time.Second)},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "z" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[1].Completed || !got[1].CreatedAt.Equal(want[1].CreatedAt) {
		t.Errorf("unexpected record: %+v", got[1])
	}
}

func TestSaveReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Save(ctx, []todo.Todo{{ID: "1", Text: "one", CreatedAt: time.Now()}})
	if err := s.Save(ctx, []todo.Todo{{ID: "2", Text: "two", CreatedAt: time.Now()}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := s.Load(ctx)
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("expected only todo 2, got %+v", got)
	}
}
