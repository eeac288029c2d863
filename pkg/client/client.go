package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides typed access to the movies catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// ListParams mirror the pagination and ordering query parameters of
// the list endpoints. Zero values are omitted so server defaults apply.
type ListParams struct {
	PageNumber int
	PageSize   int
	Sort       []string
}

func (p ListParams) values() url.Values {
	values := url.Values{}
	if p.PageNumber > 0 {
		values.Set("page_number", strconv.Itoa(p.PageNumber))
	}
	if p.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(p.PageSize))
	}
	for _, sort := range p.Sort {
		if strings.TrimSpace(sort) != "" {
			values.Add("sort", sort)
		}
	}
	return values
}

func (c *Client) do(ctx context.Context, path string, query url.Values, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// FilmShort is the list form of a film.
type FilmShort struct {
	UUID       string   `json:"uuid"`
	Title      string   `json:"title"`
	IMDBRating *float64 `json:"imdb_rating"`
}

// FilmPerson is a credited participant on a film.
type FilmPerson struct {
	UUID     string `json:"uuid"`
	FullName string `json:"full_name"`
}

// FilmGenre is a genre reference on a film.
type FilmGenre struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Film is the detail form of a film.
type Film struct {
	UUID        string       `json:"uuid"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	IMDBRating  *float64     `json:"imdb_rating"`
	Genre       []FilmGenre  `json:"genre"`
	Actors      []FilmPerson `json:"actors"`
	Writers     []FilmPerson `json:"writers"`
	Directors   []FilmPerson `json:"directors"`
}

// Genre is a film genre.
type Genre struct {
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// PersonFilm links a person to a film with the roles held there.
type PersonFilm struct {
	UUID  string   `json:"uuid"`
	Roles []string `json:"roles"`
}

// Person is a film participant with filmography.
type Person struct {
	UUID     string       `json:"uuid"`
	FullName string       `json:"full_name"`
	Films    []PersonFilm `json:"films"`
}

// Film fetches one film with credits and resolved genres.
func (c *Client) Film(ctx context.Context, id string) (Film, error) {
	var film Film
	if err := c.do(ctx, "/api/v1/films/"+url.PathEscape(id), nil, &film); err != nil {
		return Film{}, err
	}
	return film, nil
}

// Films lists films page by page. A non-empty genreID narrows the list
// to films of that genre.
func (c *Client) Films(ctx context.Context, params ListParams, genreID string) ([]FilmShort, error) {
	query := params.values()
	if strings.TrimSpace(genreID) != "" {
		query.Set("genre", genreID)
	}
	var films []FilmShort
	if err := c.do(ctx, "/api/v1/films", query, &films); err != nil {
		return nil, err
	}
	return films, nil
}

// SearchFilms runs a full-text film search.
func (c *Client) SearchFilms(ctx context.Context, searchQuery string, params ListParams) ([]FilmShort, error) {
	query := params.values()
	query.Set("query", searchQuery)
	var films []FilmShort
	if err := c.do(ctx, "/api/v1/films/search", query, &films); err != nil {
		return nil, err
	}
	return films, nil
}

// Genre fetches one genre.
func (c *Client) Genre(ctx context.Context, id string) (Genre, error) {
	var genre Genre
	if err := c.do(ctx, "/api/v1/genres/"+url.PathEscape(id), nil, &genre); err != nil {
		return Genre{}, err
	}
	return genre, nil
}

// Genres lists genres page by page.
func (c *Client) Genres(ctx context.Context, params ListParams) ([]Genre, error) {
	var genres []Genre
	if err := c.do(ctx, "/api/v1/genres", params.values(), &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// Person fetches one person with filmography and roles.
func (c *Client) Person(ctx context.Context, id string) (Person, error) {
	var person Person
	if err := c.do(ctx, "/api/v1/persons/"+url.PathEscape(id), nil, &person); err != nil {
		return Person{}, err
	}
	return person, nil
}

// SearchPersons runs a full-text person search.
func (c *Client) SearchPersons(ctx context.Context, searchQuery string, params ListParams) ([]Person, error) {
	query := params.values()
	query.Set("query", searchQuery)
	var persons []Person
	if err := c.do(ctx, "/api/v1/persons/search", query, &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

// PersonFilms lists the films a person worked on.
func (c *Client) PersonFilms(ctx context.Context, id string, params ListParams) ([]FilmShort, error) {
	var films []FilmShort
	if err := c.do(ctx, "/api/v1/persons/"+url.PathEscape(id)+"/films", params.values(), &films); err != nil {
		return nil, err
	}
	return films, nil
}

// Health describes the service health report.
type Health struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// ComponentHealth is the state of one backing component.
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Health fetches the service health report. Degraded services answer
// 503 with the same report body, so both outcomes decode; any other
// failure surfaces as an APIError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	if c == nil {
		return Health{}, fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return Health{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return Health{}, APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return Health{}, fmt.Errorf("decode response: %w", err)
	}
	return health, nil
}
