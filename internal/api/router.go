package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/metrics"
)

// Config holds the router dependencies. A nil service disables its routes.
type Config struct {
	Vitals         interfaces.VitalsServiceInterface
	Insights       interfaces.InsightServiceInterface
	Checklist      interfaces.ChecklistServiceInterface
	Chat           interfaces.ChatServiceInterface
	Translation    interfaces.TranslationServiceInterface
	Metrics        *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the JSON API.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.Metrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		if cfg.Vitals != nil {
			h := &vitalsHandler{svc: cfg.Vitals}
			r.Route("/vitals", func(r chi.Router) {
				r.Get("/kinds", h.kinds)
				r.Get("/samples", h.samples)
				r.Post("/samples", h.checkIn)
				r.Post("/seed", h.seed)
				r.Get("/months", h.months)
				r.Get("/series", h.series)
			})
		}
		if cfg.Insights != nil {
			h := &insightsHandler{svc: cfg.Insights}
			r.Route("/insights", func(r chi.Router) {
				r.Get("/month", h.month)
				r.Get("/vital", h.vital)
				r.Get("/latest/{slot}", h.latest)
			})
		}
		if cfg.Checklist != nil {
			h := &questionsHandler{svc: cfg.Checklist}
			r.Route("/questions", func(r chi.Router) {
				r.Get("/", h.state)
				r.Post("/generate", h.generate)
				r.Post("/specialties", h.addSpecialty)
				r.Patch("/specialties", h.renameSpecialty)
				r.Delete("/specialties", h.deleteSpecialty)
				r.Put("/specialties/active", h.selectSpecialty)
				r.Post("/items", h.addQuestion)
				r.Post("/items/insert", h.insertMany)
				r.Post("/items/reorder", h.reorder)
				r.Patch("/items/{id}", h.editQuestion)
				r.Post("/items/{id}/toggle", h.toggleQuestion)
				r.Delete("/items/{id}", h.deleteQuestion)
			})
		}
		if cfg.Chat != nil {
			h := &chatHandler{svc: cfg.Chat}
			r.Route("/chat", func(r chi.Router) {
				r.Post("/bullets", h.bullets)
				r.Route("/{feature}/sessions", func(r chi.Router) {
					r.Get("/", h.list)
					r.Post("/", h.create)
					r.Get("/{id}", h.get)
					r.Delete("/{id}", h.delete)
					r.Post("/{id}/messages", h.send)
				})
			})
		}
		if cfg.Translation != nil {
			h := &translateHandler{svc: cfg.Translation}
			r.Get("/translate/languages", h.languages)
			r.Post("/translate", h.translate)
		}
	})
	return r
}

// requestLogger logs each request with its route pattern and feeds the
// HTTP metrics.
func requestLogger(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logger.IntoContext(r.Context(), "request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			m.ObserveRequest(route, r.Method, strconv.Itoa(status), elapsed)
			logger.WithContext(ctx).Debug("Request completed",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}
