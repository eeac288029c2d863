package genre

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

// Service reads genres from the search index with a cache in front of
// point lookups.
type Service struct {
	genres search.Searcher
	cache  cache.Cache
	logger *slog.Logger
	ttl    time.Duration
}

// New returns a genre service. Cached genres expire after ttl.
func New(genres search.Searcher, c cache.Cache, logger *slog.Logger, ttl time.Duration) Service {
	return Service{genres: genres, cache: c, logger: logger, ttl: ttl}
}

// GetByID returns one genre, preferring the cached copy.
func (s Service) GetByID(ctx context.Context, id string) (*domain.Genre, error) {
	key := "genres_" + id
	if genre, ok := s.fromCache(ctx, key); ok {
		return genre, nil
	}

	raw, err := s.genres.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var genre domain.Genre
	if err := json.Unmarshal(raw, &genre); err != nil {
		return nil, fmt.Errorf("genre: decode %q: %w", id, err)
	}
	s.toCache(ctx, key, genre)
	return &genre, nil
}

// GetByName resolves a genre by its exact name, taking the best match.
func (s Service) GetByName(ctx context.Context, name string) (*domain.Genre, error) {
	hits, err := s.genres.TextSearch(ctx, name, []string{"name"}, search.Params{})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, search.ErrNotFound
	}
	var genre domain.Genre
	if err := json.Unmarshal(hits[0], &genre); err != nil {
		return nil, fmt.Errorf("genre: decode %q: %w", name, err)
	}
	return &genre, nil
}

// List returns genres page by page.
func (s Service) List(ctx context.Context, params search.Params) ([]domain.Genre, error) {
	hits, err := s.genres.List(ctx, params, nil)
	if err != nil {
		return nil, err
	}
	genres := make([]domain.Genre, 0, len(hits))
	for _, hit := range hits {
		var genre domain.Genre
		if err := json.Unmarshal(hit, &genre); err != nil {
			return nil, fmt.Errorf("genre: decode hit: %w", err)
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

func (s Service) fromCache(ctx context.Context, key string) (*domain.Genre, bool) {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("genre cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var genre domain.Genre
	if err := json.Unmarshal(cached, &genre); err != nil {
		s.logger.Warn("discarding malformed cache entry", "key", key, "error", err)
		return nil, false
	}
	return &genre, true
}

func (s Service) toCache(ctx context.Context, key string, genre domain.Genre) {
	body, err := json.Marshal(genre)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
		s.logger.Warn("genre cache write failed", "key", key, "error", err)
	}
}
