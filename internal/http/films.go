package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kinohub/moviesearch/internal/domain"
	"github.com/kinohub/moviesearch/internal/search"
)

type filmPersonOut struct {
	UUID     string `json:"uuid"`
	FullName string `json:"full_name"`
}

type filmGenreOut struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type filmOut struct {
	UUID        string          `json:"uuid"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	IMDBRating  *float64        `json:"imdb_rating"`
	Genre       []filmGenreOut  `json:"genre"`
	Actors      []filmPersonOut `json:"actors"`
	Writers     []filmPersonOut `json:"writers"`
	Directors   []filmPersonOut `json:"directors"`
}

type filmShortOut struct {
	UUID       string   `json:"uuid"`
	Title      string   `json:"title"`
	IMDBRating *float64 `json:"imdb_rating"`
}

func (r *Router) handleFilmList(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	params, err := parseListParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var genreFilter *domain.Genre
	if genreID := strings.TrimSpace(req.URL.Query().Get("genre")); genreID != "" {
		genreFilter, err = r.genres.GetByID(req.Context(), genreID)
		if err != nil {
			if errors.Is(err, search.ErrNotFound) {
				writeError(w, http.StatusNotFound, "genre not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	films, err := r.films.List(req.Context(), params, genreFilter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filmsToShort(films))
}

func (r *Router) handleFilmSearch(w http.ResponseWriter, req *http.Request) {
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
	films, err := r.films.Search(req.Context(), query, params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, filmsToShort(films))
}

func (r *Router) handleFilmDetail(w http.ResponseWriter, req *http.Request, filmID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	film, err := r.films.GetByID(req.Context(), filmID)
	if err != nil {
		if errors.Is(err, search.ErrNotFound) {
			writeError(w, http.StatusNotFound, "film not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	genres, err := r.resolveGenres(req.Context(), film.Genres)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, filmOut{
		UUID:        film.ID,
		Title:       film.Title,
		Description: film.Description,
		IMDBRating:  film.IMDBRating,
		Genre:       genres,
		Actors:      creditsOut(film.Actors),
		Writers:     creditsOut(film.Writers),
		Directors:   creditsOut(film.Directors),
	})
}

// resolveGenres maps the genre names on a film document to {uuid, name}
// pairs via the genres index. Names with no matching genre are skipped.
// Lookups fan out bounded by the worker knob; the film's genre order is
// preserved.
func (r *Router) resolveGenres(ctx context.Context, names []string) ([]filmGenreOut, error) {
	resolved := make([]*domain.Genre, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, name := range names {
		g.Go(func() error {
			genre, err := r.genres.GetByName(ctx, name)
			if errors.Is(err, search.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			resolved[i] = genre
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]filmGenreOut, 0, len(names))
	for _, genre := range resolved {
		if genre != nil {
			out = append(out, filmGenreOut{UUID: genre.ID, Name: genre.Name})
		}
	}
	return out, nil
}

func filmsToShort(films []domain.Film) []filmShortOut {
	out := make([]filmShortOut, 0, len(films))
	for _, f := range films {
		out = append(out, filmShortOut{UUID: f.ID, Title: f.Title, IMDBRating: f.IMDBRating})
	}
	return out
}

func creditsOut(credits []domain.FilmPerson) []filmPersonOut {
	out := make([]filmPersonOut, 0, len(credits))
	for _, credit := range credits {
		out = append(out, filmPersonOut{UUID: credit.ID, FullName: credit.Name})
	}
	return out
}
