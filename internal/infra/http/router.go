package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prodlog/voe-tracker/internal/export"
	"github.com/prodlog/voe-tracker/internal/tracking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Tracking *tracking.Service
	Export   *export.Assembler
	Daily    *export.DailyJob
	Targets  []string
	Metrics  bool
	Log      *slog.Logger
}

type handler struct {
	Deps
}

// NewRouter wires every route of the tracker.
func NewRouter(d Deps) http.Handler {
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if d.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/upload", h.upload)

	r.Route("/production", func(r chi.Router) {
		r.Get("/", h.productionTiles)
		r.Post("/done", h.action(markProduced))
		r.Get("/{batch}", h.productionDetail)
	})

	r.Route("/logistics", func(r chi.Router) {
		r.Get("/", h.logisticsTiles)
		r.Post("/picked", h.action(markPicked))
		r.Post("/delivered", h.action(markDelivered))
		r.Post("/not-found", h.action(markNotFound))
		r.Post("/write-off", h.action(writeOff))
		r.Get("/{batch}", h.logisticsDetail)
	})

	r.Get("/overview", h.overview)
	r.Get("/targets", h.targets)

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.dashboard)
		r.Get("/export", h.dashboardExport)
		r.Post("/reset", h.dashboardReset)
	})

	r.Get("/items/export", h.itemsExport)
	r.Get("/shortages", h.shortages)
	r.Get("/shortages/export", h.shortagesExport)
	r.Post("/daily/export", h.dailyExport)

	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
