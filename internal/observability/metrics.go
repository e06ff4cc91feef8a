package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	checkoutsTotal    *prometheus.CounterVec
	recognitionsTotal *prometheus.CounterVec
	decrementsSkipped prometheus.Counter
	eventsDropped     *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nusapos_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nusapos_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nusapos_checkouts_total",
		Help: "Jumlah checkout berdasarkan metode pembayaran dan status awal.",
	}, []string{"method", "status"})
	recognitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nusapos_recognitions_total",
		Help: "Hasil pengenalan produk per outcome.",
	}, []string{"outcome"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nusapos_stock_decrements_skipped_total",
		Help: "Baris keranjang yang dilewati saat pemotongan stok.",
	})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nusapos_events_dropped_total",
		Help: "Event broadcast yang gagal terkirim ke subscriber lambat.",
	}, []string{"topic"})
	registry.MustRegister(requests, duration, checkouts, recognitions, skipped, dropped)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		checkoutsTotal:    checkouts,
		recognitionsTotal: recognitions,
		decrementsSkipped: skipped,
		eventsDropped:     dropped,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCheckout mencatat checkout baru.
func (m *Metrics) ObserveCheckout(method, status string) {
	if m == nil {
		return
	}
	m.checkoutsTotal.WithLabelValues(method, status).Inc()
}

// ObserveRecognition mencatat hasil pengenalan produk.
func (m *Metrics) ObserveRecognition(outcome string) {
	if m == nil {
		return
	}
	m.recognitionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSkippedDecrement mencatat baris yang dilewati decrement protocol.
func (m *Metrics) ObserveSkippedDecrement() {
	if m == nil {
		return
	}
	m.decrementsSkipped.Inc()
}

// ObserveDroppedEvent mencatat event yang terjatuh karena buffer penuh.
func (m *Metrics) ObserveDroppedEvent(topic string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(topic).Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush harus tembus ke writer asli; tanpa ini stream SSE mati.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
