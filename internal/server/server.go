// Package server is the local HTTP API over a project directory. The
// project file is re-read on each request so edits show up without a
// restart; comparisons are cached until the file changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AhlamBCoding/marine-propulsion-simulator/internal/metrics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/analytics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/spec"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/store"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/validation"
)

// Options configure a Server. Zero values take defaults.
type Options struct {
	Port      int
	RPS       float64
	Burst     int
	CacheSize int
	Workers   int
	Logger    *slog.Logger
	// Sink receives every run made through POST /api/simulate.
	Sink store.Sink
}

// Server is the local development server for comparing configurations.
type Server struct {
	projectPath string
	opts        Options
	logger      *slog.Logger
	limiter     *rateLimiter
	cache       *lru.Cache[cacheKey, []byte]
	sink        store.Sink
}

type cacheKey struct {
	profile string
	modTime time.Time
	size    int64
}

// New creates a server for the given project directory.
func New(projectPath string, opts Options) (*Server, error) {
	if opts.Port == 0 {
		opts.Port = 3000
	}
	if opts.RPS <= 0 {
		opts.RPS = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 40
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sink := opts.Sink
	if sink == nil {
		sink = store.NewMemorySink()
	}

	cache, err := lru.New[cacheKey, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating comparison cache: %w", err)
	}
	limiter, err := newRateLimiter(opts.RPS, opts.Burst, 1024)
	if err != nil {
		return nil, err
	}
	return &Server{
		projectPath: projectPath,
		opts:        opts,
		logger:      logger,
		limiter:     limiter,
		cache:       cache,
		sink:        sink,
	}, nil
}

// Handler returns the routed API with tracing, metrics and rate limiting.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	api := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, tracing(metrics.Middleware(route, s.limiter.middleware(h))))
	}
	api("GET /api/project", "/api/project", s.handleProject)
	api("GET /api/validation", "/api/validation", s.handleValidation)
	api("GET /api/compare", "/api/compare", s.handleCompare)
	api("POST /api/simulate", "/api/simulate", s.handleSimulate)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("propsim server starting", "addr", "http://localhost"+srv.Addr, "project", s.projectPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("propsim server stopping")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.sink.Close()
	}
}

func (s *Server) projectFile() string {
	return filepath.Join(s.projectPath, spec.ProjectFile)
}

func (s *Server) loadCatalog() (*spec.Project, *spec.Catalog, error) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		return nil, nil, err
	}
	cat, err := p.Build()
	if err != nil {
		return p, nil, err
	}
	return p, cat, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>propsim</title></head>
<body style="margin:0;background:#0b1d2a;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>propsim</h1>
<p>Marine propulsion comparison API. Try <code>/api/compare</code> or <code>/api/validation</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProject(w http.ResponseWriter, _ *http.Request) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		writeError(w, err)
		return
	}
	report := validation.ValidateSchema(p)
	if report.Valid {
		cat, err := p.Build()
		if err != nil {
			report.AddError(validation.FromError(err, validation.LevelSchema, ""))
		} else {
			report.Merge(validation.ValidateCapacity(cat))
		}
	}
	writeJSON(w, http.StatusOK, report)
}

type compareResponse struct {
	*analytics.Comparison
	Baseline string               `json:"baseline,omitempty"`
	Relative []analytics.Relative `json:"relative,omitempty"`
	Value    []analytics.Value    `json:"value_propositions,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	profileName := r.URL.Query().Get("profile")

	info, err := os.Stat(s.projectFile())
	if err != nil {
		writeError(w, err)
		return
	}
	key := cacheKey{profile: profileName, modTime: info.ModTime(), size: info.Size()}
	if body, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		writeRaw(w, http.StatusOK, body)
		return
	}
	metrics.CacheMisses.Inc()

	_, cat, err := s.loadCatalog()
	if err != nil {
		writeError(w, err)
		return
	}
	prof, ok := cat.Profile(profileName)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown profile %q", profileName)})
		return
	}

	cmp, err := s.comparer(cat).Compare(r.Context(), cat.Configurations, prof, analytics.Economics{
		DiscountRate:  cat.Economics.DiscountRate,
		LifetimeYears: cat.Economics.LifetimeYears,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := compareResponse{Comparison: cmp, Baseline: cat.Economics.Baseline}
	if base, ok := cmp.Row(resp.Baseline); ok {
		resp.Relative, _ = analytics.RelativeTo(cmp.Rows, base.Configuration)
		for _, row := range cmp.Rows {
			if row.Configuration != base.Configuration {
				resp.Value = append(resp.Value, analytics.ValueProposition(row, base, cat.Economics.LifetimeYears))
			}
		}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		writeError(w, err)
		return
	}
	s.cache.Add(key, body)
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) comparer(cat *spec.Catalog) *analytics.Comparer {
	sim := simulate.New(cat.Registry, simulate.WithLogger(s.logger))
	return analytics.NewComparer(sim,
		analytics.WithWorkers(s.opts.Workers),
		analytics.WithLogger(s.logger),
		analytics.WithObserver(metrics.Evaluations{}),
	)
}

type simulateRequest struct {
	Configuration string `json:"configuration"`
	Profile       string `json:"profile"`
}

type simulateResponse struct {
	RunID  string                `json:"run_id"`
	Result *simulate.Result      `json:"result"`
	Cost   *economics.AnnualCost `json:"cost"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	_, cat, err := s.loadCatalog()
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, ok := cat.Configuration(req.Configuration)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown configuration %q", req.Configuration)})
		return
	}
	prof, ok := cat.Profile(req.Profile)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown profile %q", req.Profile)})
		return
	}

	res, err := simulate.New(cat.Registry, simulate.WithLogger(s.logger)).Simulate(cfg, prof)
	if err != nil {
		writeError(w, err)
		return
	}
	cost, err := economics.Annualize(cfg, res, cat.Economics.DiscountRate, cat.Economics.LifetimeYears)
	if err != nil {
		writeError(w, err)
		return
	}

	run := store.NewRun(res, &cost)
	err = s.sink.Save(r.Context(), run)
	metrics.ObserveStore(err)
	if err != nil {
		s.logger.Error("storing run failed", "run_id", run.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, simulateResponse{RunID: run.ID.String(), Result: res, Cost: &cost})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		ve *errs.ValidationError
		ce *errs.CapacityError
		ee *errs.EconomicParameterError
	)
	switch {
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	case errors.As(err, &ce):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &ve), errors.As(err, &ee):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
