package httpx

import (
	"errors"
	"net/http"

	"github.com/kinohub/moviesearch/internal/domain"
	"github.com/kinohub/moviesearch/internal/search"
)

type genreOut struct {
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r *Router) handleGenreList(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	params, err := parseListParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	genres, err := r.genres.List(req.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]genreOut, 0, len(genres))
	for _, g := range genres {
		out = append(out, toGenreOut(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Router) handleGenreDetail(w http.ResponseWriter, req *http.Request, genreID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	genre, err := r.genres.GetByID(req.Context(), genreID)
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			writeError(w, http.StatusNotFound, "genre not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toGenreOut(*genre))
}

func toGenreOut(g domain.Genre) genreOut {
	return genreOut{UUID: g.ID, Name: g.Name, Description: g.Description}
}
