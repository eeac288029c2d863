package film

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kinohub/moviesearch/internal/cache"
	"github.com/kinohub/moviesearch/internal/domain"
	"github.com/kinohub/moviesearch/internal/search"
)

// searchFields ranks the title above the descriptive text fields.
var searchFields = []string{"title^3", "description", "actors_names", "writers_names", "directors_names"}

// Service reads films from the search index with a cache in front of
// point lookups.
type Service struct {
	films  search.Searcher
	cache  cache.Cache
	logger *slog.Logger
	ttl    time.Duration
}

// New returns a film service. Cached films expire after ttl.
func New(films search.Searcher, c cache.Cache, logger *slog.Logger, ttl time.Duration) Service {
	return Service{films: films, cache: c, logger: logger, ttl: ttl}
}

// GetByID returns one film, preferring the cached copy. Cache failures
// degrade to index reads.
func (s Service) GetByID(ctx context.Context, id string) (*domain.Film, error) {
	key := "movies_" + id
	if film, ok := s.fromCache(ctx, key); ok {
		return film, nil
	}

	raw, err := s.films.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var film domain.Film
	if err := json.Unmarshal(raw, &film); err != nil {
		return nil, fmt.Errorf("film: decode %q: %w", id, err)
	}
	s.toCache(ctx, key, film)
	return &film, nil
}

// Search runs a fuzzy full-text query across the film text fields.
func (s Service) Search(ctx context.Context, query string, params search.Params) ([]domain.Film, error) {
	hits, err := s.films.TextSearch(ctx, query, searchFields, params)
	if err != nil {
		return nil, err
	}
	return decodeFilms(hits)
}

// List returns films page by page, narrowed to one genre when given.
func (s Service) List(ctx context.Context, params search.Params, genre *domain.Genre) ([]domain.Film, error) {
	query := ""
	if genre != nil {
		query = genre.Name
	}
	hits, err := s.films.TextSearch(ctx, query, []string{"genres"}, params)
	if err != nil {
		return nil, err
	}
	return decodeFilms(hits)
}

// ListByPerson returns films the person worked on in any role.
func (s Service) ListByPerson(ctx context.Context, personID string, params search.Params) ([]domain.Film, error) {
	nested := make([]search.NestedFilter, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		nested = append(nested, search.NestedFilter{Path: role + "s", Field: "id", Value: personID})
	}
	hits, err := s.films.List(ctx, params, nested)
	if err != nil {
		return nil, err
	}
	return decodeFilms(hits)
}

func (s Service) fromCache(ctx context.Context, key string) (*domain.Film, bool) {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("film cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var film domain.Film
	if err := json.Unmarshal(cached, &film); err != nil {
		s.logger.Warn("discarding malformed cache entry", "key", key, "error", err)
		return nil, false
	}
	return &film, true
}

func (s Service) toCache(ctx context.Context, key string, film domain.Film) {
	body, err := json.Marshal(film)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
		s.logger.Warn("film cache write failed", "key", key, "error", err)
	}
}

func decodeFilms(hits []json.RawMessage) ([]domain.Film, error) {
	films := make([]domain.Film, 0, len(hits))
	for _, hit := range hits {
		var film domain.Film
		if err := json.Unmarshal(hit, &film); err != nil {
			return nil, fmt.Errorf("film: decode hit: %w", err)
		}
		films = append(films, film)
	}
	return films, nil
}
