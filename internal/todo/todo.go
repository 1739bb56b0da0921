// Package todo holds the Todo record and the pure operations applied to a
// collection of them. Nothing here touches storage: callers load a
// collection, transform it with these functions and save the result.
package todo

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("todo not found")
	// ErrTextRequired is returned when a todo would be created or renamed with empty text.
	ErrTextRequired = errors.New("text is required")
	// ErrIDRequired is returned when an operation needs an id and none was given.
	ErrIDRequired = errors.New("todo id is required")
)

// Todo is a single task record.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Text      *string
	Completed *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// ---------- Filter ----------

// Filter narrows a listed collection.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"    // completed = false
	FilterCompleted Filter = "completed" // completed = true
)

// ParseFilter maps a query value to a Filter. Unknown or empty values mean all.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// ---------- Collection operations ----------

// New builds a fresh, incomplete record.
func New(text string, now time.Time) (Todo, error) {
	if strings.TrimSpace(text) == "" {
		return Todo{}, ErrTextRequired
	}
	return Todo{
		ID:        uuid.NewString(),
		Text:      text,
		Completed: false,
		CreatedAt: now,
	}, nil
}

// FilterTodos returns the records matching f, in stored order.
// The result is never nil so it encodes as an empty JSON array.
func FilterTodos(todos []Todo, f Filter) []Todo {
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Index returns the position of the record with the given id, or -1.
func Index(todos []Todo, id string) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Apply merges the supplied fields of p onto t and returns the result.
func Apply(t Todo, p Patch) (Todo, error) {
	if p.Text != nil {
		if strings.TrimSpace(*p.Text) == "" {
			return t, ErrTextRequired
		}
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t, nil
}

// Update applies p to the record with the given id. The input slice is not
// modified; the returned slice is a copy with the updated record in place.
func Update(todos []Todo, id string, p Patch) ([]Todo, Todo, error) {
	if id == "" {
		return todos, Todo{}, ErrIDRequired
	}
	i := Index(todos, id)
	if i < 0 {
		return todos, Todo{}, ErrNotFound
	}
	updated, err := Apply(todos[i], p)
	if err != nil {
		return todos, Todo{}, err
	}
	out := make([]Todo, len(todos))
	copy(out, todos)
	out[i] = updated
	return out, updated, nil
}

// Remove drops the record with the given id, keeping the order of the rest.
func Remove(todos []Todo, id string) ([]Todo, error) {
	if id == "" {
		return todos, ErrIDRequired
	}
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	if len(out) == len(todos) {
		return todos, ErrNotFound
	}
	return out, nil
}

// ClearCompleted returns only the active records.
func ClearCompleted(todos []Todo) []Todo {
	return FilterTodos(todos, FilterActive)
}
