// Package mocks provides testify-based mock implementations of the store
// interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/Bibi40k/ems-provision/pkg/store"
)

// Repository is a mock for store.Repository.
type Repository[T store.Record] struct {
	mock.Mock
}

var _ store.Repository[store.Record] = (*Repository[store.Record])(nil)

func (m *Repository[T]) List() ([]T, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *Repository[T]) Get(key string) (T, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		var zero T
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

func (m *Repository[T]) Create(rec T) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *Repository[T]) Update(rec T) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *Repository[T]) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}
