package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps one collection as a YAML list in a single file.
type FileStore[T Record] struct {
	mu   sync.Mutex
	path string
}

var _ Repository[Record] = (*FileStore[Record])(nil)

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore[T Record](path string) *FileStore[T] {
	return &FileStore[T]{path: path}
}

// Path returns the backing file.
func (s *FileStore[T]) Path() string { return s.path }

func (s *FileStore[T]) List() ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return nil, err
	}
	return sorted(items), nil
}

func (s *FileStore[T]) Get(key string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	items, err := s.load()
	if err != nil {
		return zero, err
	}
	rec, ok := items[key]
	if !ok {
		return zero, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return rec, nil
}

func (s *FileStore[T]) Create(rec T) error {
	if err := checkKey(rec.Key()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := items[rec.Key()]; ok {
		return fmt.Errorf("%s: %w", rec.Key(), ErrExists)
	}
	items[rec.Key()] = rec
	return s.save(items)
}

func (s *FileStore[T]) Update(rec T) error {
	if err := checkKey(rec.Key()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := items[rec.Key()]; !ok {
		return fmt.Errorf("%s: %w", rec.Key(), ErrNotFound)
	}
	items[rec.Key()] = rec
	return s.save(items)
}

func (s *FileStore[T]) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(items, key)
	return s.save(items)
}

func (s *FileStore[T]) load() (map[string]T, error) {
	items := map[string]T{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var list []T
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	for _, rec := range list {
		items[rec.Key()] = rec
	}
	return items, nil
}

// save writes to a temp file in the same directory and renames it over the
// target so readers never see a partial file.
func (s *FileStore[T]) save(items map[string]T) error {
	data, err := yaml.Marshal(sorted(items))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir for %s: %w", s.path, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func sorted[T Record](items map[string]T) []T {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, items[k])
	}
	return out
}
