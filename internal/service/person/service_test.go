package person

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kinohub/moviesearch/internal/cache"
	"github.com/kinohub/moviesearch/internal/domain"
	"github.com/kinohub/moviesearch/internal/search"
)

type stubSearcher struct {
	docs     map[string]json.RawMessage
	hits     []json.RawMessage
	getCalls int
}

func (s *stubSearcher) GetByID(ctx context.Context, id string) (json.RawMessage, error) {
	s.getCalls++
	doc, ok := s.docs[id]
	if !ok {
		return nil, search.ErrNotFound
	}
	return doc, nil
}

func (s *stubSearcher) List(ctx context.Context, params search.Params, nested []search.NestedFilter) ([]json.RawMessage, error) {
	return s.hits, nil
}

func (s *stubSearcher) TextSearch(ctx context.Context, query string, fields []string, params search.Params) ([]json.RawMessage, error) {
	return s.hits, nil
}

type stubFilmLister struct {
	mu         sync.Mutex
	films      map[string][]domain.Film
	err        error
	calls      int
	lastParams search.Params
}

func (s *stubFilmLister) ListByPerson(ctx context.Context, personID string, params search.Params) ([]domain.Film, error) {
	s.mu.Lock()
	s.calls++
	s.lastParams = params
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.films[personID], nil
}

type memoryCache struct {
	entries map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return value, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }
func (m *memoryCache) Close() error                   { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetByIDDerivesRolesFromCredits(t *testing.T) {
	searcher := &stubSearcher{docs: map[string]json.RawMessage{
		"person-1": json.RawMessage(`{"id": "person-1", "full_name": "David Fincher"}`),
	}}
	lister := &stubFilmLister{films: map[string][]domain.Film{
		"person-1": {
			{ID: "film-1", DirectorsNames: []string{"David Fincher"}},
			{ID: "film-2", ActorsNames: []string{"David Fincher"}, WritersNames: []string{"David Fincher"}},
			{ID: "film-3", ActorsNames: []string{"Someone Else"}},
		},
	}}
	store := &memoryCache{}
	svc := New(searcher, lister, store, testLogger(), time.Minute, 1)

	person, err := svc.GetByID(context.Background(), "person-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	want := []domain.PersonFilm{
		{ID: "film-1", Roles: []string{"director"}},
		{ID: "film-2", Roles: []string{"actor", "writer"}},
		{ID: "film-3", Roles: []string{}},
	}
	if !reflect.DeepEqual(person.Films, want) {
		t.Fatalf("unexpected filmography: %+v", person.Films)
	}
	if lister.lastParams.PageSize != search.MaxWindow {
		t.Fatalf("expected full-window filmography fetch, got page size %d", lister.lastParams.PageSize)
	}
	if _, ok := store.entries["persons_person-1"]; !ok {
		t.Fatalf("expected cache entry under persons_person-1, got %v", store.entries)
	}
}

func TestGetByIDCachesEnrichedPerson(t *testing.T) {
	searcher := &stubSearcher{docs: map[string]json.RawMessage{
		"person-1": json.RawMessage(`{"id": "person-1", "full_name": "David Fincher"}`),
	}}
	lister := &stubFilmLister{films: map[string][]domain.Film{
		"person-1": {{ID: "film-1", DirectorsNames: []string{"David Fincher"}}},
	}}
	svc := New(searcher, lister, &memoryCache{}, testLogger(), time.Minute, 1)

	if _, err := svc.GetByID(context.Background(), "person-1"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	person, err := svc.GetByID(context.Background(), "person-1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if searcher.getCalls != 1 || lister.calls != 1 {
		t.Fatalf("expected one index read and one filmography fetch, got %d and %d", searcher.getCalls, lister.calls)
	}
	if len(person.Films) != 1 || person.Films[0].ID != "film-1" {
		t.Fatalf("cached person lost filmography: %+v", person.Films)
	}
}

func TestGetByIDPassesThroughNotFound(t *testing.T) {
	svc := New(&stubSearcher{}, &stubFilmLister{}, &memoryCache{}, testLogger(), time.Minute, 1)

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, search.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchEnrichesEveryHit(t *testing.T) {
	searcher := &stubSearcher{hits: []json.RawMessage{
		json.RawMessage(`{"id": "person-1", "full_name": "Ethan Coen"}`),
		json.RawMessage(`{"id": "person-2", "full_name": "Joel Coen"}`),
	}}
	lister := &stubFilmLister{films: map[string][]domain.Film{
		"person-1": {{ID: "film-1", WritersNames: []string{"Ethan Coen", "Joel Coen"}}},
		"person-2": {{ID: "film-1", WritersNames: []string{"Ethan Coen", "Joel Coen"}}},
	}}
	svc := New(searcher, lister, &memoryCache{}, testLogger(), time.Minute, 4)

	persons, err := svc.Search(context.Background(), "coen", search.Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(persons) != 2 {
		t.Fatalf("expected 2 persons, got %d", len(persons))
	}
	for _, person := range persons {
		if len(person.Films) != 1 || !reflect.DeepEqual(person.Films[0].Roles, []string{"writer"}) {
			t.Fatalf("person %s not enriched: %+v", person.ID, person.Films)
		}
	}
}

func TestSearchStopsOnFilmographyError(t *testing.T) {
	searcher := &stubSearcher{hits: []json.RawMessage{
		json.RawMessage(`{"id": "person-1", "full_name": "Ethan Coen"}`),
	}}
	lister := &stubFilmLister{err: errors.New("index unavailable")}
	svc := New(searcher, lister, &memoryCache{}, testLogger(), time.Minute, 2)

	if _, err := svc.Search(context.Background(), "coen", search.Params{}); err == nil {
		t.Fatal("expected error from filmography fetch")
	}
}

func TestFilmsDelegatesCallerPaging(t *testing.T) {
	lister := &stubFilmLister{films: map[string][]domain.Film{
		"person-1": {{ID: "film-1"}, {ID: "film-2"}},
	}}
	svc := New(&stubSearcher{}, lister, &memoryCache{}, testLogger(), time.Minute, 1)

	films, err := svc.Films(context.Background(), "person-1", search.Params{PageNumber: 2, PageSize: 1})
	if err != nil {
		t.Fatalf("films: %v", err)
	}
	if len(films) != 2 {
		t.Fatalf("unexpected films %v", films)
	}
	if lister.lastParams.PageNumber != 2 || lister.lastParams.PageSize != 1 {
		t.Fatalf("paging not passed through: %+v", lister.lastParams)
	}
}
