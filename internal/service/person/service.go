package person

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kinohub/moviesearch/internal/cache"
	"github.com/kinohub/moviesearch/internal/domain"
	"github.com/kinohub/moviesearch/internal/search"
)

// FilmLister provides the filmography lookups person enrichment needs.
type FilmLister interface {
	ListByPerson(ctx context.Context, personID string, params search.Params) ([]domain.Film, error)
}

// Service reads persons from the search index, enriching each one with
// the films they worked on and the roles they held there.
type Service struct {
	persons search.Searcher
	films   FilmLister
	cache   cache.Cache
	logger  *slog.Logger
	ttl     time.Duration
	workers int
}

// New returns a person service. Search enrichment fans out across at
// most workers concurrent filmography lookups.
func New(persons search.Searcher, films FilmLister, c cache.Cache, logger *slog.Logger, ttl time.Duration, workers int) Service {
	if workers < 1 {
		workers = 1
	}
	return Service{persons: persons, films: films, cache: c, logger: logger, ttl: ttl, workers: workers}
}

// GetByID returns one person with filmography, preferring the cached
// copy. Only fully enriched persons are cached.
func (s Service) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	key := "persons_" + id
	if person, ok := s.fromCache(ctx, key); ok {
		return person, nil
	}

	raw, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var person domain.Person
	if err := json.Unmarshal(raw, &person); err != nil {
		return nil, fmt.Errorf("person: decode %q: %w", id, err)
	}
	films, err := s.filmography(ctx, person)
	if err != nil {
		return nil, err
	}
	person.Films = films
	s.toCache(ctx, key, person)
	return &person, nil
}

// Search runs a fuzzy full-text query over person names and enriches
// every hit with its filmography.
func (s Service) Search(ctx context.Context, query string, params search.Params) ([]domain.Person, error) {
	hits, err := s.persons.TextSearch(ctx, query, []string{"full_name"}, params)
	if err != nil {
		return nil, err
	}

	persons := make([]domain.Person, len(hits))
	for i, hit := range hits {
		if err := json.Unmarshal(hit, &persons[i]); err != nil {
			return nil, fmt.Errorf("person: decode hit: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range persons {
		g.Go(func() error {
			films, err := s.filmography(ctx, persons[i])
			if err != nil {
				return err
			}
			persons[i].Films = films
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return persons, nil
}

// Films returns the full film records a person worked on.
func (s Service) Films(ctx context.Context, personID string, params search.Params) ([]domain.Film, error) {
	return s.films.ListByPerson(ctx, personID, params)
}

// filmography fetches every film the person worked on and derives the
// roles from name membership in the per-role credit lists. One page up
// to the index window cap covers any realistic filmography.
func (s Service) filmography(ctx context.Context, person domain.Person) ([]domain.PersonFilm, error) {
	films, err := s.films.ListByPerson(ctx, person.ID, search.Params{PageSize: search.MaxWindow})
	if err != nil {
		return nil, err
	}
	result := make([]domain.PersonFilm, 0, len(films))
	for _, film := range films {
		entry := domain.PersonFilm{ID: film.ID, Roles: []string{}}
		for _, role := range domain.Roles {
			if containsName(film.NamesForRole(role), person.FullName) {
				entry.Roles = append(entry.Roles, role)
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

func (s Service) fromCache(ctx context.Context, key string) (*domain.Person, bool) {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("person cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var person domain.Person
	if err := json.Unmarshal(cached, &person); err != nil {
		s.logger.Warn("discarding malformed cache entry", "key", key, "error", err)
		return nil, false
	}
	return &person, true
}

func (s Service) toCache(ctx context.Context, key string, person domain.Person) {
	body, err := json.Marshal(person)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
		s.logger.Warn("person cache write failed", "key", key, "error", err)
	}
}
