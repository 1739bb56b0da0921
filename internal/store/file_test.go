package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"todos/internal/todo"
)

func newTestFileStore(t *testing.T, path string) (*FileStore, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return NewFileStore(path, logger), &buf
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "todos.json")
	s, _ := newTestFileStore(t, path)

	todos, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Fatalf("expected empty collection, got %v", todos)
	}

	// Load creates the containing directory.
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Errorf("expected data dir to exist, stat err: %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "todos.json")
	s, _ := newTestFileStore(t, path)
	ctx := context.Background()

	created := time.Date(2024, 3, 9, 8, 7, 6, 123456789, time.UTC)
	want := []todo.Todo{
		{ID: "a", Text: "Buy milk", Completed: false, CreatedAt: created},
		{ID: "b", Text: "Walk dog", Completed: true, CreatedAt: created.Add(time.Hour)},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d todos, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text || got[i].Completed != want[i].Completed {
			t.Errorf("todo %d: got %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("todo %d: createdAt %v, want %v", i, got[i].CreatedAt, want[i].CreatedAt)
		}
	}
}

func TestFileStoreWritesCamelCaseJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	s, _ := newTestFileStore(t, path)

	err := s.Save(context.Background(), []todo.Todo{{ID: "x", Text: "t", CreatedAt: time.Unix(0, 0).UTC()}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"id"`, `"text"`, `"completed"`, `"createdAt": "1970-01-01T00:00:00Z"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("file missing %s:\n%s", field, data)
		}
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	s, _ := newTestFileStore(t, path)
	ctx := context.Background()

	_ = s.Save(ctx, []todo.Todo{{ID: "1", Text: "one"}, {ID: "2", Text: "two"}})
	if err := s.Save(ctx, []todo.Todo{{ID: "3", Text: "three"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := s.Load(ctx)
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("expected only todo 3, got %+v", got)
	}
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, logs := newTestFileStore(t, path)

	todos, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt file must not surface an error, got %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected empty collection, got %v", todos)
	}
	if !strings.Contains(logs.String(), "unparsable data file") {
		t.Errorf("expected a warning to be logged, got %q", logs.String())
	}
}

func TestFileStoreNullFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	if err := os.WriteFile(path, []byte("null"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestFileStore(t, path)

	todos, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if todos == nil {
		t.Error("expected non-nil empty collection")
	}
}

func TestFileStoreSaveFailsWhenPathIsDir(t *testing.T) {
	path := t.TempDir() // a directory, not a file
	s, _ := newTestFileStore(t, path)

	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected write error when the target is a directory")
	}
}

func TestFileStoreUnreadableFileIsEmpty(t *testing.T) {
	path := t.TempDir() // reading a directory fails
	s, logs := newTestFileStore(t, path)

	todos, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unreadable file must not surface an error, got %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected empty collection, got %v", todos)
	}
	if !strings.Contains(logs.String(), "unreadable data file") {
		t.Errorf("expected a warning to be logged, got %q", logs.String())
	}
}
