package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camden-git/namerecall/models"
	"github.com/camden-git/namerecall/session"
	"github.com/camden-git/namerecall/store"
)

type PersonHandler struct {
	Session *session.Session
	Logger  *zap.Logger
}

// personRequest is the create/edit form. Tags is the raw comma-separated field.
type personRequest struct {
	Name   string `json:"name"`
	Tags   string `json:"tags"`
	Memo   string `json:"memo"`
	Avatar string `json:"avatar"`
}

func (pr personRequest) draft() models.Draft {
	return session.NewDraft(pr.Name, pr.Tags, pr.Memo, pr.Avatar)
}

// ListPeople returns the home screen. q and tag, when present, replace the
// session's search query and tag filter first.
func (ph *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if params.Has("q") {
		ph.Session.SetSearchQuery(params.Get("q"))
	}
	if params.Has("tag") {
		ph.Session.SetActiveTag(params.Get("tag"))
	}
	writeJSON(w, http.StatusOK, ph.Session.CurrentVisiblePeople())
}

func (ph *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	person, err := ph.Session.CreatePerson(r.Context(), req.draft())
	if err != nil && person.ID == "" {
		writeError(w, ph.Logger, err, nil)
		return
	}
	ph.Session.ResetSearch()
	view := session.NewPersonView(person)
	if err != nil {
		writeError(w, ph.Logger, err, &view)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (ph *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "person_id")
	view, ok := ph.Session.PersonByID(id)
	if !ok {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Person not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (ph *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "person_id")
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	person, err := ph.Session.EditPerson(r.Context(), id, req.draft())
	if err != nil && person.ID == "" {
		writeError(w, ph.Logger, err, nil)
		return
	}
	ph.Session.ResetSearch()
	view := session.NewPersonView(person)
	if err != nil {
		writeError(w, ph.Logger, err, &view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeletePerson requires ?confirm=true; without it the person is kept and 428
// is returned.
func (ph *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "person_id")
	confirmed := false
	if raw := r.URL.Query().Get("confirm"); raw != "" {
		var err error
		confirmed, err = strconv.ParseBool(raw)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid confirm value")
			return
		}
	}

	err := ph.Session.DeletePerson(r.Context(), id, confirmed)
	if errors.Is(err, store.ErrPersistence) {
		// removed in memory, only the write failed
		ph.Session.ResetSearch()
	}
	if err != nil {
		writeError(w, ph.Logger, err, nil)
		return
	}
	ph.Session.ResetSearch()
	w.WriteHeader(http.StatusNoContent)
}
