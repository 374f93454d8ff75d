// Package session assembles what the view renders. It owns the active tag
// filter and the search query, forwards commands to the registry and builds
// the list and detail view models from its snapshots.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/camden-git/namerecall/identity"
	"github.com/camden-git/namerecall/models"
	"github.com/camden-git/namerecall/query"
	"github.com/camden-git/namerecall/registry"
)

// ErrNotConfirmed is returned by DeletePerson when the user didn't confirm.
var ErrNotConfirmed = errors.New("delete not confirmed")

const (
	// PreviewTagLimit is how many tags a list card shows before "+N".
	PreviewTagLimit = 3
	NoNotesText     = "No notes available"
)

// EmptyState is the message shown instead of an empty list.
type EmptyState struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var (
	emptyRegistry = EmptyState{Title: "No one registered yet", Message: "Tap the + button to add someone"}
	noResults     = EmptyState{Title: "No results found", Message: "Please try changing your search terms"}
)

// PersonView is a person plus the derived fields the view displays.
type PersonView struct {
	models.Person
	Initials    string   `json:"initials"`
	ColorClass  string   `json:"colorClass"`
	HasAvatar   bool     `json:"hasAvatar"`
	PreviewTags []string `json:"previewTags"`
	MoreTags    int      `json:"moreTags"`
	MemoDisplay string   `json:"memoDisplay"`
}

// ListView is the home screen.
type ListView struct {
	People    []PersonView `json:"people"`
	ActiveTag string       `json:"activeTag"`
	Query     string       `json:"query"`
	Total     int          `json:"total"`
	Empty     *EmptyState  `json:"empty,omitempty"`
}

// Session is safe for concurrent use.
type Session struct {
	registry *registry.Registry

	mu        sync.Mutex
	activeTag string
	query     string
}

func New(reg *registry.Registry) *Session {
	return &Session{registry: reg}
}

// NewDraft builds a draft from raw form values. rawTags is the comma-separated
// tag field.
func NewDraft(name, rawTags, memo, avatar string) models.Draft {
	d := models.Draft{Name: name, Tags: query.ParseTagInput(rawTags), Memo: memo}
	if avatar != "" {
		d.Avatar = &avatar
	}
	return d
}

func (s *Session) CreatePerson(ctx context.Context, draft models.Draft) (models.Person, error) {
	return s.registry.Add(ctx, draft)
}

func (s *Session) EditPerson(ctx context.Context, id string, draft models.Draft) (models.Person, error) {
	return s.registry.Update(ctx, id, draft)
}

// DeletePerson removes id only when confirmed is true.
func (s *Session) DeletePerson(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		if _, ok := s.registry.Get(id); !ok {
			return &registry.NotFoundError{ID: id}
		}
		return ErrNotConfirmed
	}
	return s.registry.Remove(ctx, id)
}

// SetActiveTag narrows the list to tag. An empty tag clears the filter.
func (s *Session) SetActiveTag(tag string) {
	s.mu.Lock()
	s.activeTag = tag
	s.mu.Unlock()
}

func (s *Session) ClearFilter() {
	s.SetActiveTag("")
}

func (s *Session) SetSearchQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// ResetSearch clears the query, as returning to the home screen does. The
// tag filter is kept.
func (s *Session) ResetSearch() {
	s.SetSearchQuery("")
}

// State returns the active tag and the search query.
func (s *Session) State() (tag, q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTag, s.query
}

// CurrentVisiblePeople applies the tag filter then the search to the registry
// snapshot, keeping canonical order.
func (s *Session) CurrentVisiblePeople() ListView {
	tag, q := s.State()
	all := s.registry.All()
	visible := query.Visible(all, tag, q)

	view := ListView{
		People:    make([]PersonView, 0, len(visible)),
		ActiveTag: tag,
		Query:     q,
		Total:     len(all),
	}
	for _, p := range visible {
		view.People = append(view.People, NewPersonView(p))
	}
	if len(visible) == 0 {
		empty := noResults
		if len(all) == 0 {
			empty = emptyRegistry
		}
		view.Empty = &empty
	}
	return view
}

// AllTags lists every distinct tag with the number of people carrying it.
func (s *Session) AllTags() []query.TagStat {
	return query.TagIndex(s.registry.All())
}

func (s *Session) PersonByID(id string) (PersonView, bool) {
	p, ok := s.registry.Get(id)
	if !ok {
		return PersonView{}, false
	}
	return NewPersonView(p), true
}

// NewPersonView derives the display fields for p.
func NewPersonView(p models.Person) PersonView {
	v := PersonView{
		Person:      p,
		Initials:    identity.InitialsOf(p.Name),
		ColorClass:  p.ColorVariant.Class(),
		HasAvatar:   p.Avatar != nil && *p.Avatar != "",
		MemoDisplay: p.Memo,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	n := min(len(v.Tags), PreviewTagLimit)
	v.PreviewTags = append([]string{}, v.Tags[:n]...)
	v.MoreTags = len(v.Tags) - n
	if v.MemoDisplay == "" {
		v.MemoDisplay = NoNotesText
	}
	return v
}
