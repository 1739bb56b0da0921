package store

import (
	"context"
	"sync"

	"todos/internal/todo"
)

// MemoryStore keeps the collection in memory. Load and Save hand out copies,
// so callers can never change the stored collection without calling Save.
type MemoryStore struct {
	mu    sync.RWMutex
	todos []todo.Todo

	// Error injection for tests.
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates a store seeded with the given records.
func NewMemoryStore(seed ...todo.Todo) *MemoryStore {
	s := &MemoryStore{}
	s.todos = clone(seed)
	return s
}

// Load returns a copy of the stored collection.
func (s *MemoryStore) Load(_ context.Context) ([]todo.Todo, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.todos), nil
}

// Save replaces the stored collection with a copy of todos.
func (s *MemoryStore) Save(_ context.Context, todos []todo.Todo) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = clone(todos)
	return nil
}

// Snapshot returns the stored collection without going through Load,
// ignoring LoadErr.
func (s *MemoryStore) Snapshot() []todo.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.todos)
}

func clone(todos []todo.Todo) []todo.Todo {
	out := make([]todo.Todo, len(todos))
	copy(out, todos)
	return out
}
