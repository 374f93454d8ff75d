// Package store persists the whole people collection as one serialized blob
// under a single key. Every save is a full overwrite; there is no versioning
// and no migration.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camden-git/namerecall/models"
)

// Key is the single storage key the collection lives under.
const Key = "name-recall-app-data"

// Driver identifies a concrete persistence backend.
type Driver string

const (
	DriverSQL    Driver = "sql"    // squirrel over database/sql (default)
	DriverGorm   Driver = "gorm"   // gorm over the same sqlite file layout
	DriverMemory Driver = "memory" // process memory (tests)
)

// Valid reports whether d names a known backend.
func (d Driver) Valid() bool {
	switch d {
	case DriverSQL, DriverGorm, DriverMemory:
		return true
	default:
		return false
	}
}

// Store loads and saves the full people sequence.
type Store interface {
	// Load returns the stored sequence, or an empty one when nothing is stored.
	Load(ctx context.Context) ([]models.Person, error)
	// Save overwrites the stored sequence.
	Save(ctx context.Context, people []models.Person) error
	// Clear removes the stored sequence; the next Load returns an empty one.
	Clear(ctx context.Context) error
	Driver() Driver
	Close() error
}

var (
	// ErrPersistence is the sentinel behind every PersistenceError.
	ErrPersistence = errors.New("persistence failed")
	// ErrCorruptData marks a stored blob that is not a valid people sequence.
	ErrCorruptData = errors.New("stored data is corrupt")
)

// PersistenceError reports a storage read or write that failed, including
// corrupt stored data.
type PersistenceError struct {
	Op     string // "load" or "save"
	Driver Driver
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Driver, e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func loadErr(d Driver, err error) error {
	return &PersistenceError{Op: "load", Driver: d, Err: err}
}

func saveErr(d Driver, err error) error {
	return &PersistenceError{Op: "save", Driver: d, Err: err}
}

// Encode serializes the sequence in its stored form, a JSON array.
func Encode(people []models.Person) ([]byte, error) {
	if people == nil {
		people = []models.Person{}
	}
	normalized := make([]models.Person, len(people))
	for i, p := range people {
		normalized[i] = p.Clone()
	}
	return json.Marshal(normalized)
}

// Decode parses a stored blob. An empty blob decodes to an empty sequence.
// Every record needs a unique non-empty id and a palette color variant;
// anything else is reported as ErrCorruptData.
func Decode(data []byte) ([]models.Person, error) {
	people := []models.Person{}
	if len(data) == 0 {
		return people, nil
	}
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, fmt.Errorf("decode people: %w: %w", ErrCorruptData, err)
	}
	if people == nil {
		// stored literal "null"
		people = []models.Person{}
	}
	seen := make(map[string]struct{}, len(people))
	for i := range people {
		p := &people[i]
		if p.ID == "" {
			return nil, fmt.Errorf("decode people: record %d has no id: %w", i, ErrCorruptData)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("decode people: duplicate id %q: %w", p.ID, ErrCorruptData)
		}
		seen[p.ID] = struct{}{}
		if !p.ColorVariant.Valid() {
			return nil, fmt.Errorf("decode people: record %q has color variant %d: %w", p.ID, p.ColorVariant, ErrCorruptData)
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	return people, nil
}
