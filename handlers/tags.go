package handlers

import (
	"net/http"

	"github.com/camden-git/namerecall/query"
	"github.com/camden-git/namerecall/session"
)

// TagHandler serves the tag list, the tag filter and the search query.
type TagHandler struct {
	Session *session.Session
}

type filterState struct {
	ActiveTag string `json:"activeTag"`
	Query     string `json:"query"`
}

func (th *TagHandler) state() filterState {
	tag, q := th.Session.State()
	return filterState{ActiveTag: tag, Query: q}
}

func (th *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, th.Session.AllTags())
}

// SetFilter takes {"tag": "..."}; null or "" clears the filter.
func (th *TagHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tag *string `json:"tag"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if req.Tag == nil {
		th.Session.ClearFilter()
	} else {
		th.Session.SetActiveTag(*req.Tag)
	}
	writeJSON(w, http.StatusOK, th.state())
}

func (th *TagHandler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	th.Session.ClearFilter()
	writeJSON(w, http.StatusOK, th.state())
}

func (th *TagHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	th.Session.SetSearchQuery(req.Query)
	writeJSON(w, http.StatusOK, th.state())
}

// PreviewTags splits the raw tag field the way a save would.
func (th *TagHandler) PreviewTags(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags string `json:"tags"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, query.ParseTagInput(req.Tags))
}
