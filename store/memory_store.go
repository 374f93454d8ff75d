package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/camden-git/namerecall/models"
)

// ErrQuotaExceeded is returned by a memory store whose quota is too small for
// the encoded collection.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// MemoryStore keeps the encoded blob in process memory. Intended for tests.
type MemoryStore struct {
	mu     sync.Mutex
	blob   []byte
	quota  int
	saves  int
	failOn error
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithQuota limits the encoded blob to n bytes.
func WithQuota(n int) MemoryOption {
	return func(s *MemoryStore) { s.quota = n }
}

// WithBlob seeds the store with raw stored data, e.g. a corrupt payload.
func WithBlob(b []byte) MemoryOption {
	return func(s *MemoryStore) { s.blob = append([]byte(nil), b...) }
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Driver() Driver { return DriverMemory }

func (s *MemoryStore) Load(_ context.Context) ([]models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	people, err := Decode(s.blob)
	if err != nil {
		return nil, loadErr(DriverMemory, err)
	}
	return people, nil
}

func (s *MemoryStore) Save(_ context.Context, people []models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		return saveErr(DriverMemory, s.failOn)
	}
	payload, err := Encode(people)
	if err != nil {
		return saveErr(DriverMemory, err)
	}
	if s.quota > 0 && len(payload) > s.quota {
		return saveErr(DriverMemory, fmt.Errorf("%w: %d > %d bytes", ErrQuotaExceeded, len(payload), s.quota))
	}
	s.blob = payload
	s.saves++
	return nil
}

// Clear drops the stored blob.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}

// FailSaves makes every following Save fail with err; nil restores normal saves.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	s.failOn = err
	s.mu.Unlock()
}

// Saves returns how many saves succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Blob returns a copy of the raw stored data.
func (s *MemoryStore) Blob() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.blob...)
}

func (s *MemoryStore) Close() error { return nil }
