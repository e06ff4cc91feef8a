package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nusapos/nusapos/internal/ledger"
	"github.com/nusapos/nusapos/internal/platform/httpx"
	"github.com/nusapos/nusapos/internal/shared"
)

// Handler exposes the checkout and settlement endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pending   PendingLister
	validator *validator.Validate
}

// PendingLister feeds the admin confirmation queue view.
type PendingLister interface {
	ListPending(ctx context.Context) ([]ledger.Transaction, error)
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, pending PendingLister) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		pending:   pending,
		validator: validator.New(),
	}
}

// MountRoutes registers public checkout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/checkout", h.checkout)
}

// MountAdminRoutes registers routes restricted to the admin role.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/confirm_payment", h.confirmPayment)
	r.Post("/update_transaction", h.updateTransaction)
	r.Post("/delete_transaction/{id}", h.deleteTransaction)
	r.Get("/pending", h.listPending)
}

type checkoutRequest struct {
	Items  []string `json:"items" validate:"required,min=1,dive,required"`
	Method string   `json:"method" validate:"required"`
	CashIn int64    `json:"cash_in" validate:"gte=0"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	receipt, err := h.service.Checkout(r.Context(), CheckoutInput{
		Items:          req.Items,
		Method:         ledger.PaymentMethod(req.Method),
		CashIn:         req.CashIn,
		ActorID:        principal.ID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{
		"id":         receipt.ID,
		"trx_status": receipt.Status,
		"total":      receipt.Total,
		"change":     receipt.Change,
	})
}

type confirmPaymentRequest struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	CashIn *int64 `json:"cash_in"`
	Change *int64 `json:"change"`
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.ConfirmPayment(r.Context(), req.ID, req.CashIn, req.Change, principal.ID); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, nil)
}

type updateTransactionRequest struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	Method string `json:"payment_method" validate:"required"`
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.UpdateMethod(r.Context(), req.ID, ledger.PaymentMethod(req.Method), principal.ID); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, nil)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, principal); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, nil)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.pending.ListPending(r.Context())
	if err != nil {
		h.logger.Error("list pending", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "")
		return
	}
	httpx.Success(w, httpx.Envelope{"transactions": pending})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidMethod), errors.Is(err, ErrInvalidAmount):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrNotPending), errors.Is(err, ErrNotDeletable), errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Fail(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("checkout request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "")
	}
}
