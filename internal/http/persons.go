package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kinohub/moviesearch/internal/domain"
	"github.com/kinohub/moviesearch/internal/search"
)

type personFilmRolesOut struct {
	UUID  string   `json:"uuid"`
	Roles []string `json:"roles"`
}

type personOut struct {
	UUID     string               `json:"uuid"`
	FullName string               `json:"full_name"`
	Films    []personFilmRolesOut `json:"films"`
}

func (r *Router) handlePersonSearch(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	params, err := parseListParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.TrimSpace(req.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	persons, err := r.persons.Search(req.Context(), query, params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]personOut, 0, len(persons))
	for _, p := range persons {
		out = append(out, toPersonOut(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Router) handlePersonDetail(w http.ResponseWriter, req *http.Request, personID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	person, err := r.persons.GetByID(req.Context(), personID)
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			writeError(w, http.StatusNotFound, "person not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPersonOut(*person))
}

func (r *Router) handlePersonFilms(w http.ResponseWriter, req *http.Request, personID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	params, err := parseListParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	films, err := r.persons.Films(req.Context(), personID, params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filmsToShort(films))
}

func toPersonOut(p domain.Person) personOut {
	films := make([]personFilmRolesOut, 0, len(p.Films))
	for _, f := range p.Films {
		films = append(films, personFilmRolesOut{UUID: f.ID, Roles: f.Roles})
	}
	return personOut{UUID: p.ID, FullName: p.FullName, Films: films}
}
