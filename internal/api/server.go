package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/sharescrape/internal/transcript"
)

// Scraper is the orchestrator behind POST /scrape.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*transcript.Result, error)
	Platforms() []transcript.Platform
}

type Options struct {
	Port     int
	APIToken string

	Metrics  http.Handler    // mounted at /metrics when set
	Failures FailureReporter // backs GET /api/v1/failures when set
}

// FailureReporter summarises recent failures per platform and outcome.
type FailureReporter interface {
	FailureCounts(ctx context.Context, since time.Time) (map[string]map[string]int, error)
}

type Server struct {
	router   *chi.Mux
	port     int
	scraper  Scraper
	failures FailureReporter
	logger   *slog.Logger
	httpSrv  *http.Server
}

func NewServer(opts Options, scraper Scraper, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     opts.Port,
		scraper:  scraper,
		failures: opts.Failures,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/platforms", s.platforms)
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.Failures != nil {
		router.With(BearerAuthMiddleware(opts.APIToken)).Get("/api/v1/failures", s.failureCounts)
	}

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(opts.APIToken))
		r.Post("/scrape", s.scrape)
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown waits for in-flight scrapes, and so their browser releases, to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type scrapeRequest struct {
	URL any `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, transcript.InvalidInput("request body must be JSON"))
		return
	}
	url, ok := req.URL.(string)
	if !ok || url == "" {
		writeError(w, transcript.InvalidInput("url is required and must be a string"))
		return
	}

	res, err := s.scraper.Scrape(r.Context(), url)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) platforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"platforms": s.scraper.Platforms()})
}

// failureCounts reports failures over the window given by ?since=<duration>
// (default 24h). Stale selectors show up as layout_changed.
func (s *Server) failureCounts(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since must be a positive duration like 24h", Code: transcript.KindInvalidInput.Code()})
			return
		}
		window = d
	}

	counts, err := s.failures.FailureCounts(r.Context(), time.Now().Add(-window))
	if err != nil {
		s.logger.Error("failure counts query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load failure counts", Code: transcript.KindUnknown.Code()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"since": window.String(), "failures": counts})
}

// writeError maps a classified failure to its status code. Only a fixed,
// per-kind message reaches the client; the detail stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	kind := transcript.KindOf(err)
	status := http.StatusInternalServerError
	switch {
	case kind.ClientError():
		status = http.StatusBadRequest
	case kind == transcript.KindRateLimited:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorResponse{Error: publicMessage(kind, err), Code: kind.Code()})
}

func publicMessage(kind transcript.Kind, err error) string {
	switch kind {
	case transcript.KindInvalidInput:
		var e *transcript.Error
		if errors.As(err, &e) && e.Err != nil {
			return e.Err.Error()
		}
		return "invalid request"
	case transcript.KindUnsupportedPlatform:
		return "unsupported platform: only ChatGPT, Claude and Gemini share links are supported"
	case transcript.KindNavigationTimeout:
		return "timed out loading the share page"
	case transcript.KindLayoutChanged:
		return "could not extract any messages; the page layout may have changed"
	case transcript.KindRateLimited:
		return "rate limit exceeded"
	default:
		return "failed to scrape the share page"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
