package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltDB is a shared bbolt handle; each collection lives in its own bucket.
type BoltDB struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("open bolt db %s: %w", path, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// Close closes the database.
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// BoltStore keeps one collection in a bucket, values encoded as JSON.
type BoltStore[T Record] struct {
	db     *bolt.DB
	bucket []byte
}

var _ Repository[Record] = (*BoltStore[Record])(nil)

// NewBoltStore ensures the bucket exists and returns a store for it.
func NewBoltStore[T Record](db *BoltDB, bucket string) (*BoltStore[T], error) {
	if db == nil {
		return nil, fmt.Errorf("bolt store %q: database is not open", bucket)
	}
	name := []byte(bucket)
	err := db.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return &BoltStore[T]{db: db.db, bucket: name}, nil
}

func (s *BoltStore[T]) List() ([]T, error) {
	var out []T
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		out = make([]T, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var rec T
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode %s/%s: %w", s.bucket, k, err)
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore[T]) Get(key string) (T, error) {
	var rec T
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q not found", s.bucket)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (s *BoltStore[T]) Create(rec T) error {
	return s.put(rec, false)
}

func (s *BoltStore[T]) Update(rec T) error {
	return s.put(rec, true)
}

func (s *BoltStore[T]) put(rec T, mustExist bool) error {
	key := rec.Key()
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q not found", s.bucket)
		}
		exists := b.Get([]byte(key)) != nil
		switch {
		case mustExist && !exists:
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		case !mustExist && exists:
			return fmt.Errorf("%s: %w", key, ErrExists)
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore[T]) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q not found", s.bucket)
		}
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return b.Delete([]byte(key))
	})
}
