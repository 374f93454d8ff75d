package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/namerecall/models"
	"github.com/camden-git/namerecall/query"
	"github.com/camden-git/namerecall/registry"
	"github.com/camden-git/namerecall/store"
)

func newSession(t *testing.T) (*Session, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	reg, err := registry.Open(context.Background(), st)
	require.NoError(t, err)
	return New(reg), st
}

func names(v ListView) []string {
	out := make([]string, 0, len(v.People))
	for _, p := range v.People {
		out = append(out, p.Name)
	}
	return out
}

func TestEmptyRegistryShowsOnboarding(t *testing.T) {
	s, _ := newSession(t)

	view := s.CurrentVisiblePeople()
	assert.Empty(t, view.People)
	assert.NotNil(t, view.People)
	require.NotNil(t, view.Empty)
	assert.Equal(t, "No one registered yet", view.Empty.Title)
	assert.Equal(t, "Tap the + button to add someone", view.Empty.Message)
}

func TestCreateAndList(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()

	_, err := s.CreatePerson(ctx, NewDraft("Ada Lovelace", "math, history", "", ""))
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, NewDraft("Alan Turing", "math", "codebreaker", ""))
	require.NoError(t, err)

	view := s.CurrentVisiblePeople()
	assert.Equal(t, []string{"Alan Turing", "Ada Lovelace"}, names(view))
	assert.Equal(t, 2, view.Total)
	assert.Nil(t, view.Empty)

	ada := view.People[1]
	assert.Equal(t, "AL", ada.Initials)
	assert.Equal(t, ada.ColorVariant.Class(), ada.ColorClass)
	assert.Equal(t, NoNotesText, ada.MemoDisplay)
	assert.False(t, ada.HasAvatar)
}

func TestFilterThenSearch(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	for _, d := range []models.Draft{
		NewDraft("Ada Lovelace", "math", "", ""),
		NewDraft("Grace Hopper", "navy, math", "", ""),
		NewDraft("Frida Kahlo", "art", "painter", ""),
	} {
		_, err := s.CreatePerson(ctx, d)
		require.NoError(t, err)
	}

	s.SetActiveTag("math")
	assert.Equal(t, []string{"Grace Hopper", "Ada Lovelace"}, names(s.CurrentVisiblePeople()))

	s.SetSearchQuery("ADA")
	view := s.CurrentVisiblePeople()
	assert.Equal(t, []string{"Ada Lovelace"}, names(view))
	assert.Equal(t, "math", view.ActiveTag)
	assert.Equal(t, "ADA", view.Query)

	s.SetSearchQuery("zzz")
	view = s.CurrentVisiblePeople()
	assert.Empty(t, view.People)
	require.NotNil(t, view.Empty)
	assert.Equal(t, "No results found", view.Empty.Title)

	s.ResetSearch()
	s.ClearFilter()
	tag, q := s.State()
	assert.Empty(t, tag)
	assert.Empty(t, q)
	assert.Len(t, s.CurrentVisiblePeople().People, 3)
}

func TestFilterIsCaseSensitive(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.CreatePerson(context.Background(), NewDraft("Ada", "Math", "", ""))
	require.NoError(t, err)

	s.SetActiveTag("math")
	assert.Empty(t, s.CurrentVisiblePeople().People)
}

func TestAllTags(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	_, err := s.CreatePerson(ctx, NewDraft("A", "math", "", ""))
	require.NoError(t, err)
	_, err = s.CreatePerson(ctx, NewDraft("B", "math, art", "", ""))
	require.NoError(t, err)

	assert.Equal(t, []query.TagStat{{Tag: "art", Count: 1}, {Tag: "math", Count: 2}}, s.AllTags())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	s, st := newSession(t)
	ctx := context.Background()
	p, err := s.CreatePerson(ctx, NewDraft("Ada", "", "", ""))
	require.NoError(t, err)
	saves := st.Saves()

	err = s.DeletePerson(ctx, p.ID, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, saves, st.Saves())
	_, ok := s.PersonByID(p.ID)
	assert.True(t, ok)

	err = s.DeletePerson(ctx, "missing", false)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	require.NoError(t, s.DeletePerson(ctx, p.ID, true))
	_, ok = s.PersonByID(p.ID)
	assert.False(t, ok)
}

func TestEditUnknownPerson(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.EditPerson(context.Background(), "nope", NewDraft("X", "", "", ""))

	var nf *registry.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.ID)
}

func TestNewPersonViewTagPreview(t *testing.T) {
	avatar := "data:image/jpeg;base64,AAAA"
	v := NewPersonView(models.Person{
		Name:         "Grace Brewster Hopper",
		Tags:         []string{"navy", "math", "cobol", "compilers", "math"},
		Memo:         "met at the conference",
		Avatar:       &avatar,
		ColorVariant: models.ColorVariant5,
	})

	assert.Equal(t, "GB", v.Initials)
	assert.Equal(t, "bg-gradient-5", v.ColorClass)
	assert.True(t, v.HasAvatar)
	assert.Equal(t, []string{"navy", "math", "cobol"}, v.PreviewTags)
	assert.Equal(t, 2, v.MoreTags)
	assert.Equal(t, "met at the conference", v.MemoDisplay)

	blank := NewPersonView(models.Person{})
	assert.Equal(t, "?", blank.Initials)
	assert.Equal(t, []string{}, blank.Tags)
	assert.Equal(t, []string{}, blank.PreviewTags)
	assert.Zero(t, blank.MoreTags)
}

func TestNewDraft(t *testing.T) {
	d := NewDraft("Ada", " math ,, history ", "memo", "")
	assert.Equal(t, []string{"math", "history"}, d.Tags)
	assert.Nil(t, d.Avatar)

	d = NewDraft("Ada", "", "", "data:image/png;base64,AA")
	require.NotNil(t, d.Avatar)
	assert.Equal(t, "data:image/png;base64,AA", *d.Avatar)
}
