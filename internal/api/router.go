// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/metrics"
)

// Ingestor triggers background ingestion runs. Satisfied by
// *pipeline.Orchestrator.
type Ingestor interface {
	TriggerAsync(keywords []string) (string, error)
}

// Router wires the HTTP facade over the database and the orchestrator.
type Router struct {
	db       *database.DB
	ingestor Ingestor
	cfg      *config.APIConfig
}

// NewRouter builds the facade router.
func NewRouter(db *database.DB, ingestor Ingestor, cfg *config.APIConfig) *Router {
	if cfg == nil {
		cfg = &config.APIConfig{}
	}
	return &Router{db: db, ingestor: ingestor, cfg: cfg}
}

// Handler assembles the route tree with the global middleware stack.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	// Health and metrics stay outside the rate limit so monitoring never
	// gets throttled out.
	r.Get("/healthz", rt.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rateLimit())
		r.Use(apiMetrics)

		r.Route("/scraping", func(r chi.Router) {
			r.Post("/trigger", rt.scrapingTrigger)
			r.Get("/status/{taskID}", rt.scrapingStatus)
			r.Get("/history", rt.scrapingHistory)
			r.Get("/stats", rt.scrapingStats)
		})

		r.Get("/items", rt.listItems)
		r.Get("/sources", rt.listSources)
		r.Get("/trends", rt.listTrends)
	})

	return r
}

// apiMetrics records per-endpoint request counts and latency using the
// matched route pattern, keeping label cardinality bounded.
func apiMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		metrics.RecordAPIRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

func (rt *Router) rateLimit() func(http.Handler) http.Handler {
	reqs := rt.cfg.RateLimitReqs
	if reqs <= 0 {
		reqs = 100
	}
	window := rt.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(reqs, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
		}),
	)
}
