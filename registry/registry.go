// Package registry owns the canonical, ordered people collection. It is the
// only mutator of that collection and flushes the full sequence to the store
// after every create, update and delete.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/namerecall/identity"
	"github.com/camden-git/namerecall/models"
	"github.com/camden-git/namerecall/monitoring"
	"github.com/camden-git/namerecall/store"
)

// ErrNotFound is the sentinel behind every NotFoundError.
var ErrNotFound = errors.New("person not found")

// NotFoundError reports a command that referenced an id the registry doesn't hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("person %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Event types delivered to listeners.
const (
	EventCreated = "person.created"
	EventUpdated = "person.updated"
	EventDeleted = "person.deleted"
)

// Event describes a committed change to the collection.
type Event struct {
	Type      string
	ID        string
	Timestamp time.Time
}

// Registry holds the people in canonical order: most recently created first,
// edits keep their position.
type Registry struct {
	mu       sync.RWMutex
	people   []models.Person
	store    store.Store
	ids      identity.Service
	listener func(Event)
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	// unsaved is set while the last save failed.
	unsaved  bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithIdentity overrides id, variant and clock generation.
func WithIdentity(s identity.Service) Option {
	return func(r *Registry) { r.ids = s }
}

// WithListener registers fn to be called after every committed change.
func WithListener(fn func(Event)) Option {
	return func(r *Registry) { r.listener = fn }
}

// WithMetrics records command outcomes on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New builds a registry over an already loaded sequence.
func New(st store.Store, people []models.Person, opts ...Option) *Registry {
	r := &Registry{
		people: models.ClonePeople(people),
		store:  st,
		ids:    identity.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ids.NewID == nil {
		r.ids.NewID = identity.GenerateID
	}
	if r.ids.NewVariant == nil {
		r.ids.NewVariant = identity.RandomVariant
	}
	r.logger = r.logger.Named("registry")
	r.metrics.SetPeople(len(r.people))
	return r
}

// Open loads the stored sequence once and builds a registry over it.
func Open(ctx context.Context, st store.Store, opts ...Option) (*Registry, error) {
	people, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	return New(st, people, opts...), nil
}

// OpenLenient is Open, except that a failed load starts from an empty
// collection. A corrupt blob is cleared from the store; other load failures
// leave it in place. The error is still returned so the caller can report it.
func OpenLenient(ctx context.Context, st store.Store, opts ...Option) (*Registry, error) {
	people, err := st.Load(ctx)
	if err == nil {
		return New(st, people, opts...), nil
	}
	err = fmt.Errorf("load people, starting empty: %w", err)
	if errors.Is(err, store.ErrCorruptData) {
		if clearErr := st.Clear(ctx); clearErr != nil {
			err = errors.Join(err, fmt.Errorf("clear corrupt data: %w", clearErr))
		}
	}
	return New(st, nil, opts...), err
}

// Add creates a person from draft and inserts it at the front. If the flush
// fails the person stays in memory and is returned with the error.
func (r *Registry) Add(ctx context.Context, draft models.Draft) (models.Person, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		r.metrics.RecordCommand("add", "invalid")
		return models.Person{}, err
	}

	r.mu.Lock()
	p := models.Person{
		ID:           r.ids.NewID(),
		Name:         draft.Name,
		Tags:         draft.Tags,
		Memo:         draft.Memo,
		Avatar:       draft.Avatar,
		ColorVariant: r.ids.NewVariant(),
		UpdatedAt:    r.ids.Timestamp(),
	}
	r.people = append([]models.Person{p}, r.people...)
	err := r.flushLocked(ctx, "add")
	r.mu.Unlock()

	r.logger.Info("person created", zap.String("id", p.ID), zap.Int("tags", len(p.Tags)))
	r.notify(EventCreated, p.ID, p.UpdatedAt)
	return p.Clone(), err
}

// Update overwrites everything but the id and color variant of the person
// with id, refreshing updatedAt. The position in the sequence is unchanged.
func (r *Registry) Update(ctx context.Context, id string, draft models.Draft) (models.Person, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		r.metrics.RecordCommand("update", "invalid")
		return models.Person{}, err
	}

	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		r.metrics.RecordCommand("update", "not_found")
		return models.Person{}, &NotFoundError{ID: id}
	}
	existing := r.people[idx]
	p := models.Person{
		ID:           existing.ID,
		Name:         draft.Name,
		Tags:         draft.Tags,
		Memo:         draft.Memo,
		Avatar:       draft.Avatar,
		ColorVariant: existing.ColorVariant,
		UpdatedAt:    r.ids.Timestamp(),
	}
	r.people[idx] = p
	err := r.flushLocked(ctx, "update")
	r.mu.Unlock()

	r.logger.Info("person updated", zap.String("id", p.ID))
	r.notify(EventUpdated, p.ID, p.UpdatedAt)
	return p.Clone(), err
}

// Remove deletes the person with id in place.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		r.metrics.RecordCommand("remove", "not_found")
		return &NotFoundError{ID: id}
	}
	r.people = append(r.people[:idx:idx], r.people[idx+1:]...)
	err := r.flushLocked(ctx, "remove")
	r.mu.Unlock()

	r.logger.Info("person deleted", zap.String("id", id))
	r.notify(EventDeleted, id, r.ids.Timestamp())
	return err
}

// Get looks up a person by id.
func (r *Registry) Get(id string) (models.Person, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexLocked(id)
	if idx < 0 {
		return models.Person{}, false
	}
	return r.people[idx].Clone(), true
}

// All returns a snapshot of the canonical sequence.
func (r *Registry) All() []models.Person {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.ClonePeople(r.people)
}

// Len is the number of people held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.people)
}

// Flush retries the save when the last one failed. It is a no-op while the
// store is in sync, so it never overwrites data this process did not load.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.unsaved {
		return nil
	}
	return r.flushLocked(ctx, "flush")
}

// Unsaved reports whether the last save failed.
func (r *Registry) Unsaved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unsaved
}

func (r *Registry) indexLocked(id string) int {
	for i := range r.people {
		if r.people[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) flushLocked(ctx context.Context, command string) error {
	r.metrics.SetPeople(len(r.people))
	if err := r.store.Save(ctx, r.people); err != nil {
		r.metrics.RecordCommand(command, "persistence_error")
		r.metrics.RecordPersistenceFailure("save")
		r.logger.Error("failed to persist people", zap.String("command", command), zap.Error(err))
		r.unsaved = true
		return err
	}
	r.unsaved = false
	r.metrics.RecordCommand(command, "ok")
	return nil
}

func (r *Registry) notify(eventType, id string, ts time.Time) {
	if r.listener == nil {
		return
	}
	r.listener(Event{Type: eventType, ID: id, Timestamp: ts})
}
