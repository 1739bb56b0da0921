// Package store persists the todo collection between requests.
//
// Every request loads the whole collection and, when it mutates, saves the
// whole collection back. Implementations only need to honor that contract:
//   - Load returns the collection in stored order (never nil).
//   - Save replaces the stored collection with the given one.
package store

import (
	"context"

	"todos/internal/todo"
)

// Store is the persistence abstraction used by the API layer.
type Store interface {
	Load(ctx context.Context) ([]todo.Todo, error)
	Save(ctx context.Context, todos []todo.Todo) error
}
