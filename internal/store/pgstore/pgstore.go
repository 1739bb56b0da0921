// Package pgstore is a PostgreSQL implementation of store.Store.
//
// The collection lives in one table; a position column keeps insertion
// order. Save replaces the whole table inside a single transaction, so a
// failed Save leaves the previous collection in place.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todos/internal/todo"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS todos (
	position   integer     NOT NULL,
	id         text        PRIMARY KEY,
	text       text        NOT NULL,
	completed  boolean     NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL
)`

var columns = []string{"position", "id", "text", "completed", "created_at"}

// Store persists todos in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and creates the todos table if needed.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Load returns every row ordered by position. Unlike the file store,
// database errors are returned to the caller.
func (s *Store) Load(ctx context.Context) ([]todo.Todo, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, text, completed, created_at FROM todos ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	todos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (todo.Todo, error) {
		var t todo.Todo
		err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan todos: %w", err)
	}
	if todos == nil {
		todos = []todo.Todo{}
	}
	return todos, nil
}

// Save replaces the stored collection.
func (s *Store) Save(ctx context.Context, todos []todo.Todo) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM todos`); err != nil {
			return fmt.Errorf("clear todos: %w", err)
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"todos"}, columns,
			pgx.CopyFromSlice(len(todos), func(i int) ([]any, error) {
				t := todos[i]
				return []any{int32(i), t.ID, t.Text, t.Completed, t.CreatedAt}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy todos: %w", err)
		}
		return nil
	})
}
