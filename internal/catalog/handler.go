package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nusapos/nusapos/internal/platform/httpx"
	"github.com/nusapos/nusapos/internal/shared"
)

// Handler exposes catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers public catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
}

// MountAdminRoutes registers routes restricted to the admin role.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/update_stock", h.updateStock)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{"products": products})
}

type updateStockRequest struct {
	ID    int64 `json:"id" validate:"required,gt=0"`
	Stock int64 `json:"stock" validate:"gte=0"`
	Price int64 `json:"price" validate:"gte=0"`
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var req updateStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	err := h.service.UpdateStock(r.Context(), UpdateStockInput{
		ProductID: req.ID,
		Stock:     req.Stock,
		Price:     req.Price,
		ActorID:   principal.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			httpx.Fail(w, http.StatusNotFound, "product not found")
		case errors.Is(err, ErrInvalidStock), errors.Is(err, ErrInvalidPrice):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("update stock", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "")
		}
		return
	}
	httpx.Success(w, nil)
}
