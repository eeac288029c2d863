package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kinohub/moviesearch/internal/service/film"
	"github.com/kinohub/moviesearch/internal/service/genre"
	"github.com/kinohub/moviesearch/internal/service/person"
)

const healthCheckTimeout = 2 * time.Second

// RateLimits caps request rates per client address. Zero limits disable
// the check for that route class.
type RateLimits struct {
	Read   int
	Search int
	Window time.Duration
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	films   film.Service
	genres  genre.Service
	persons person.Service
	limiter RateLimiter
	limits  RateLimits
	workers int

	searchHealth func(context.Context) error
	cacheHealth  func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// NewRouter assembles routes with dependencies. workers bounds the
// per-request fan-out to the search backend.
func NewRouter(logger *slog.Logger, films film.Service, genres genre.Service, persons person.Service, limiter RateLimiter, limits RateLimits, workers int, searchHealth, cacheHealth func(context.Context) error) *Router {
	r := &Router{
		mux:          http.NewServeMux(),
		logger:       logger,
		films:        films,
		genres:       genres,
		persons:      persons,
		limiter:      limiter,
		limits:       limits,
		workers:      workers,
		searchHealth: searchHealth,
		cacheHealth:  cacheHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if r.workers < 1 {
		r.workers = 1
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/api/openapi.json", r.audit(r.handleOpenAPISpec))
	r.mux.HandleFunc("/api/openapi", r.audit(r.handleDocs))
	r.mux.HandleFunc("/api/v1/films", r.audit(r.instrumented("films_list", r.limits.Read, r.handleFilmList)))
	r.mux.HandleFunc("/api/v1/films/", r.audit(r.handleFilmSubroutes))
	r.mux.HandleFunc("/api/v1/genres", r.audit(r.instrumented("genres_list", r.limits.Read, r.handleGenreList)))
	r.mux.HandleFunc("/api/v1/genres/", r.audit(r.handleGenreSubroutes))
	r.mux.HandleFunc("/api/v1/persons/", r.audit(r.handlePersonSubroutes))
}

// instrumented composes the per-route middlewares every API endpoint
// shares: request metrics and the per-address rate limit.
func (r *Router) instrumented(route string, limit int, next http.HandlerFunc) http.HandlerFunc {
	return r.instrument(route, r.withRateLimit(route, limit, r.limits.Window, rateLimitKeyIP, next))
}

func (r *Router) handleFilmSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/v1/films/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	switch {
	case parts[0] == "":
		r.instrumented("films_list", r.limits.Read, r.handleFilmList)(w, req)
	case parts[0] == "search" && len(parts) == 1:
		r.instrumented("films_search", r.limits.Search, r.handleFilmSearch)(w, req)
	case len(parts) == 1:
		r.instrumented("films_detail", r.limits.Read, func(w http.ResponseWriter, req *http.Request) {
			r.handleFilmDetail(w, req, parts[0])
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleGenreSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/v1/genres/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	switch {
	case parts[0] == "":
		r.instrumented("genres_list", r.limits.Read, r.handleGenreList)(w, req)
	case len(parts) == 1:
		r.instrumented("genres_detail", r.limits.Read, func(w http.ResponseWriter, req *http.Request) {
			r.handleGenreDetail(w, req, parts[0])
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handlePersonSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/v1/persons/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	switch {
	case parts[0] == "":
		r.notFound(w)
	case parts[0] == "search" && len(parts) == 1:
		r.instrumented("persons_search", r.limits.Search, r.handlePersonSearch)(w, req)
	case len(parts) == 1:
		r.instrumented("persons_detail", r.limits.Read, func(w http.ResponseWriter, req *http.Request) {
			r.handlePersonDetail(w, req, parts[0])
		})(w, req)
	case len(parts) == 2 && parts[1] == "films":
		r.instrumented("persons_films", r.limits.Read, func(w http.ResponseWriter, req *http.Request) {
			r.handlePersonFilms(w, req, parts[0])
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]any)
	status := "ok"
	checks := []struct {
		name  string
		probe func(context.Context) error
	}{
		{"search", r.searchHealth},
		{"cache", r.cacheHealth},
	}
	for _, check := range checks {
		if check.probe == nil {
			continue
		}
		if err := check.probe(ctx); err != nil {
			status = "degraded"
			components[check.name] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components[check.name] = map[string]any{"status": "up"}
		}
	}

	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		recorder := &statusRecorder{ResponseWriter: w}
		recorder.Header().Set("X-Request-ID", reqID)
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", reqID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

// instrument records request metrics under a stable route label so
// document ids stay out of the label set.
func (r *Router) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		r.recordRequestMetrics(req.Method, route, status, time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
