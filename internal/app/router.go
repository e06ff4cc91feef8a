package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/nusapos/nusapos/internal/catalog"
	"github.com/nusapos/nusapos/internal/checkout"
	"github.com/nusapos/nusapos/internal/events"
	"github.com/nusapos/nusapos/internal/history"
	"github.com/nusapos/nusapos/internal/observability"
	"github.com/nusapos/nusapos/internal/recognition"
	"github.com/nusapos/nusapos/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CheckoutHandler    *checkout.Handler
	CatalogHandler     *catalog.Handler
	RecognitionHandler *recognition.Handler
	HistoryHandler     *history.Handler
	ReportHandler      *report.Handler
	SSEHandler         *events.SSEHandler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with NusaPOS defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Plain request/response routes get the full stack.
	r.Group(func(r chi.Router) {
		for _, mw := range APIMiddleware(MiddlewareConfig{
			Logger: params.Logger,
			Config: params.Config,
		}) {
			r.Use(mw)
		}

		params.CheckoutHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)

		// Scanner frames arrive in bursts; keep their own budget.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.RecognitionHandler.MountRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			params.CheckoutHandler.MountAdminRoutes(r)
			params.CatalogHandler.MountAdminRoutes(r)
			params.HistoryHandler.MountRoutes(r)
			if params.ReportHandler != nil {
				params.ReportHandler.MountRoutes(r)
			}
		})
	})

	// SSE stream stays outside the timeout/compression stack.
	if params.SSEHandler != nil {
		r.Get("/events", params.SSEHandler.ServeHTTP)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
