package history

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nusapos/nusapos/internal/platform/httpx"
)

// Handler exposes the sales history report.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the history routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/history", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("history summary", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "")
		return
	}
	httpx.Success(w, httpx.Envelope{
		"omzet":         summary.Omzet,
		"omzet_display": summary.OmzetDisplay,
		"count":         summary.Count,
		"transactions":  summary.Transactions,
	})
}
