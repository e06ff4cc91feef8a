package report

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nusapos/nusapos/internal/history"
	"github.com/nusapos/nusapos/internal/ledger"
	"github.com/nusapos/nusapos/internal/platform/httpx"
)

// SummaryProvider is the history read side the export needs.
type SummaryProvider interface {
	Summary(ctx context.Context) (history.Summary, error)
}

// Handler exposes the PDF export of the sales history.
type Handler struct {
	client  *Client
	history SummaryProvider
	logger  *slog.Logger
}

// NewHandler constructs Handler.
func NewHandler(client *Client, historySvc SummaryProvider, logger *slog.Logger) *Handler {
	return &Handler{client: client, history: historySvc, logger: logger}
}

// MountRoutes registers the export routes. Mounted behind the admin
// guard: the report exposes the full ledger.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/history/export", h.exportHistory)
	r.Get("/report/ping", h.ping)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusServiceUnavailable, "pdf renderer unavailable")
		return
	}
	httpx.Success(w, nil)
}

func (h *Handler) exportHistory(w http.ResponseWriter, r *http.Request) {
	summary, err := h.history.Summary(r.Context())
	if err != nil {
		h.logger.Error("load history summary", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "")
		return
	}

	html, err := renderHistoryHTML(summary)
	if err != nil {
		h.logger.Error("render history html", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "")
		return
	}

	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render history pdf", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadGateway, "pdf renderer failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=riwayat-penjualan.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

var historyTemplate = template.Must(template.New("history").Funcs(template.FuncMap{
	"joinItems": func(items []string) string { return strings.Join(items, ", ") },
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006 15:04")
	},
}).Parse(`<html>
<head><meta charset="utf-8"><title>Riwayat Penjualan</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
</style>
</head>
<body>
<h1>Riwayat Penjualan</h1>
<p>Omzet: {{.OmzetDisplay}} &mdash; {{.Count}} transaksi &mdash; dicetak {{.PrintedAt}}</p>
<table>
<tr><th>ID</th><th>Waktu</th><th>Item</th><th>Total</th><th>Metode</th><th>Status</th></tr>
{{range .Transactions}}<tr>
<td>{{.ID}}</td><td>{{formatTime .CreatedAt}}</td><td>{{joinItems .Items}}</td>
<td>Rp{{.Total}}</td><td>{{.Method}}</td><td>{{.Status}}</td>
</tr>{{end}}
</table>
</body>
</html>`))

type historyView struct {
	OmzetDisplay string
	Count        int
	PrintedAt    string
	Transactions []ledger.Transaction
}

func renderHistoryHTML(summary history.Summary) (string, error) {
	var buf strings.Builder
	err := historyTemplate.Execute(&buf, historyView{
		OmzetDisplay: summary.OmzetDisplay,
		Count:        summary.Count,
		PrintedAt:    time.Now().Format("02 Jan 2006 15:04"),
		Transactions: summary.Transactions,
	})
	if err != nil {
		return "", fmt.Errorf("report: execute template: %w", err)
	}
	return buf.String(), nil
}
