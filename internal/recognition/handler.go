package recognition

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nusapos/nusapos/internal/platform/httpx"
)

// Upload limit for scanned frames.
const maxImageBytes = 10 << 20

// Handler exposes the prediction endpoint used by the scanner client.
type Handler struct {
	logger *slog.Logger
	gate   *Gate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, gate *Gate) *Handler {
	return &Handler{logger: logger, gate: gate}
}

// MountRoutes registers the recognition routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/predict", h.predict)
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "expected multipart form with image")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "image file missing")
		return
	}
	defer file.Close()

	// Read one byte past the limit so truncation is detectable and
	// oversized frames are rejected instead of failing decode later.
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cannot read image")
		return
	}
	if len(data) > maxImageBytes {
		httpx.Fail(w, http.StatusRequestEntityTooLarge, "image exceeds size limit")
		return
	}

	match, err := h.gate.Recognize(r.Context(), data)
	if err != nil {
		h.respondRejection(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{
		"product": match.Product,
		"price":   match.Price,
	})
}

// Recognition rejections are normal outcomes for the scanner loop, not
// server faults: the client reads the fail envelope and rescans.
func (h *Handler) respondRejection(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDecode):
		httpx.Fail(w, http.StatusBadRequest, "cannot decode image")
	case errors.Is(err, ErrTimeout):
		httpx.Fail(w, http.StatusGatewayTimeout, "model timed out")
	case errors.Is(err, ErrLowConfidence):
		httpx.Fail(w, http.StatusOK, "confidence too low")
	case errors.Is(err, ErrUnknownClass):
		httpx.Fail(w, http.StatusOK, "no matching product")
	case errors.Is(err, ErrOutOfStock):
		httpx.Fail(w, http.StatusOK, "Stok Habis!")
	default:
		h.logger.Error("recognition failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "")
	}
}
