package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"todos/internal/todo"
)

// FileStore keeps the collection as an indented JSON array in a single file.
// No locking; concurrent writers are serialized upstream or last-writer-wins.
type FileStore struct {
	path   string
	logger *log.Logger
}

// NewFileStore returns a store backed by the file at path. The parent
// directory is created lazily on the first Load or Save.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the collection. A missing file is an empty collection, and so
// is a file that cannot be read or parsed: that case is logged, not returned.
func (s *FileStore) Load(_ context.Context) ([]todo.Todo, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []todo.Todo{}, nil
		}
		s.logger.Warn("unreadable data file, treating as empty", "path", s.path, "err", err)
		return []todo.Todo{}, nil
	}

	var todos []todo.Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		s.logger.Warn("unparsable data file, treating as empty", "path", s.path, "err", err)
		return []todo.Todo{}, nil
	}
	if todos == nil {
		todos = []todo.Todo{}
	}
	return todos, nil
}

// Save overwrites the file with the full collection.
func (s *FileStore) Save(_ context.Context, todos []todo.Todo) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if todos == nil {
		todos = []todo.Todo{}
	}

	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
