// Package store persists completed wizard records behind a small repository
// interface. Two backends are provided: YAML files (one per collection) and
// a bbolt database (one bucket per collection).
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Create when the key is already taken.
	ErrExists = errors.New("already exists")
	// ErrLocked is returned when another process holds the database.
	ErrLocked = errors.New("store is locked by another process")
)

// Record is anything stored under a unique key.
type Record interface {
	Key() string
}

// Repository is the CRUD surface the CLI works against.
type Repository[T Record] interface {
	List() ([]T, error)
	Get(key string) (T, error)
	Create(rec T) error
	Update(rec T) error
	Delete(key string) error
}

// Kind selects a storage backend.
type Kind string

const (
	KindYAML Kind = "yaml"
	KindBolt Kind = "bolt"
)

// ParseKind validates a backend name from config or flags.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindYAML, KindBolt:
		return k, nil
	case "":
		return KindYAML, nil
	default:
		return "", fmt.Errorf("unknown store %q (use yaml or bolt)", s)
	}
}

// Backend hands out typed repositories that share one storage location.
type Backend struct {
	kind Kind
	dir  string
	bolt *BoltDB
}

// Open prepares a backend rooted at dir.
func Open(kind Kind, dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	b := &Backend{kind: kind, dir: dir}
	switch kind {
	case KindYAML:
	case KindBolt:
		db, err := OpenBolt(filepath.Join(dir, "ems.db"))
		if err != nil {
			return nil, err
		}
		b.bolt = db
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
	return b, nil
}

// Kind returns the backend kind.
func (b *Backend) Kind() Kind { return b.kind }

// Dir returns the data directory.
func (b *Backend) Dir() string { return b.dir }

// Close releases the database handle, if any.
func (b *Backend) Close() error {
	if b == nil || b.bolt == nil {
		return nil
	}
	return b.bolt.Close()
}

// Collection returns the repository for one named collection.
func Collection[T Record](b *Backend, name string) (Repository[T], error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	switch b.kind {
	case KindBolt:
		return NewBoltStore[T](b.bolt, name)
	default:
		return NewFileStore[T](filepath.Join(b.dir, name+".yaml")), nil
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("record key is empty")
	}
	return nil
}
