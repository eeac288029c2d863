package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFilmDecodesDetailPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/v1/films/film-1" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"uuid": "film-1",
			"title": "Alien",
			"imdb_rating": 8.5,
			"genre": [{"uuid": "genre-1", "name": "Horror"}],
			"actors": [{"uuid": "person-1", "full_name": "Sigourney Weaver"}],
			"writers": [],
			"directors": []
		}`))
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	film, err := cli.Film(context.Background(), "film-1")
	if err != nil {
		t.Fatalf("film: %v", err)
	}
	if film.UUID != "film-1" || film.Title != "Alien" {
		t.Fatalf("unexpected film %+v", film)
	}
	if film.IMDBRating == nil || *film.IMDBRating != 8.5 {
		t.Fatalf("unexpected rating %v", film.IMDBRating)
	}
	if len(film.Genre) != 1 || film.Genre[0].Name != "Horror" {
		t.Fatalf("unexpected genres %v", film.Genre)
	}
	if len(film.Actors) != 1 || film.Actors[0].FullName != "Sigourney Weaver" {
		t.Fatalf("unexpected actors %v", film.Actors)
	}
}

func TestFilmsEncodesListParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query()
		if query.Get("page_number") != "2" || query.Get("page_size") != "5" {
			t.Fatalf("unexpected paging query %v", query)
		}
		if sorts := query["sort"]; len(sorts) != 2 || sorts[0] != "-imdb_rating" || sorts[1] != "title" {
			t.Fatalf("unexpected sort query %v", query["sort"])
		}
		if query.Get("genre") != "genre-1" {
			t.Fatalf("unexpected genre query %q", query.Get("genre"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"uuid": "film-1", "title": "Heat"}]`))
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	params := ListParams{PageNumber: 2, PageSize: 5, Sort: []string{"-imdb_rating", "title"}}
	films, err := cli.Films(context.Background(), params, "genre-1")
	if err != nil {
		t.Fatalf("films: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Heat" {
		t.Fatalf("unexpected films %v", films)
	}
}

func TestSearchFilmsSendsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/v1/films/search" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		if req.URL.Query().Get("query") != "star wars" {
			t.Fatalf("unexpected query %q", req.URL.Query().Get("query"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := cli.SearchFilms(context.Background(), "star wars", ListParams{}); err != nil {
		t.Fatalf("search films: %v", err)
	}
}

func TestErrorPayloadBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "film not found"}`))
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = cli.Film(context.Background(), "missing")
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "film not found" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestPersonEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/api/v1/persons/person-1":
			_, _ = w.Write([]byte(`{"uuid": "person-1", "full_name": "Ridley Scott", "films": [{"uuid": "film-1", "roles": ["director"]}]}`))
		case "/api/v1/persons/person-1/films":
			_, _ = w.Write([]byte(`[{"uuid": "film-1", "title": "Alien"}]`))
		default:
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	person, err := cli.Person(context.Background(), "person-1")
	if err != nil {
		t.Fatalf("person: %v", err)
	}
	if person.FullName != "Ridley Scott" || len(person.Films) != 1 || person.Films[0].Roles[0] != "director" {
		t.Fatalf("unexpected person %+v", person)
	}
	films, err := cli.PersonFilms(context.Background(), "person-1", ListParams{})
	if err != nil {
		t.Fatalf("person films: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Alien" {
		t.Fatalf("unexpected films %v", films)
	}
}

func TestHealthDecodesDegradedReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/healthz" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{
			"status": "degraded",
			"components": {
				"search": {"status": "up"},
				"cache": {"status": "down", "error": "dial tcp: connection refused"}
			},
			"timestamp": "2024-05-01T12:00:00Z"
		}`))
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	report, err := cli.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if report.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", report.Status)
	}
	cacheHealth, ok := report.Components["cache"]
	if !ok || cacheHealth.Status != "down" || cacheHealth.Error == "" {
		t.Fatalf("unexpected cache component %+v", report.Components)
	}
	if searchHealth := report.Components["search"]; searchHealth.Status != "up" {
		t.Fatalf("unexpected search component %+v", searchHealth)
	}
}

func TestNewNormalizesBaseURL(t *testing.T) {
	cli, err := New("example.com:8000/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if cli.baseURL != "http://example.com:8000" {
		t.Fatalf("unexpected base url %q", cli.baseURL)
	}
}
