package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
)

// FileStore stores each run as <dir>/<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// NewFileStore creates dir on fs if needed.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) path(id string) string { return filepath.Join(s.dir, id+".json") }

func (s *FileStore) Create(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, _ := afero.Exists(s.fs, s.path(run.ID)); ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	return s.write(run)
}

func (s *FileStore) Update(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, _ := afero.Exists(s.fs, s.path(run.ID)); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return s.write(run)
}

func (s *FileStore) Get(ctx context.Context, id string) (*Run, error) {
	// IDs name files; anything that is not a single relative element
	// cannot name a stored run.
	if fcerrors.ValidatePath(id) != nil || strings.Contains(id, "/") {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(id))
}

func (s *FileStore) List(ctx context.Context, opts ListOptions) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read run dir: %w", err)
	}
	var all []*Run
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, r)
	}
	return selectRuns(all, opts), nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(path string) (*Run, error) {
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
	} else if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", path, err)
	}
	return &r, nil
}

func (s *FileStore) write(run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(run.ID), data, 0o644); err != nil {
		return fmt.Errorf("write run file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
