package app

import (
	"bufio"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nusapos/nusapos/internal/catalog"
	"github.com/nusapos/nusapos/internal/checkout"
	"github.com/nusapos/nusapos/internal/events"
	"github.com/nusapos/nusapos/internal/history"
	"github.com/nusapos/nusapos/internal/observability"
	"github.com/nusapos/nusapos/internal/recognition"
)

// The event stream runs under the full middleware chain, so the test
// goes through a real server rather than calling the handler directly:
// any wrapper that hides http.Flusher kills the stream.
func TestEventStreamSurvivesMiddlewareChain(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	cfg := &Config{AppEnv: "development", AppRequestTimeout: 30 * time.Second}
	metrics := observability.NewMetrics()
	bus := events.NewBus(4, logger, metrics)

	router := NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		CheckoutHandler:    checkout.NewHandler(logger, nil, nil),
		CatalogHandler:     catalog.NewHandler(logger, nil),
		RecognitionHandler: recognition.NewHandler(logger, nil),
		HistoryHandler:     history.NewHandler(logger, nil),
		SSEHandler:         events.NewSSEHandler(bus, logger),
		Metrics:            metrics,
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The handler subscribes before writing headers, so the event
	// published now is guaranteed to reach this connection.
	bus.Publish(events.TopicNewOrder, map[string]any{"product": "Indomie", "price": 3500})

	type frame struct {
		lines []string
		err   error
	}
	frames := make(chan frame, 1)
	go func() {
		reader := bufio.NewReader(resp.Body)
		var lines []string
		for len(lines) < 3 {
			line, err := reader.ReadString('\n')
			if err != nil {
				frames <- frame{err: err}
				return
			}
			if trimmed := strings.TrimRight(line, "\n"); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		frames <- frame{lines: lines}
	}()

	select {
	case got := <-frames:
		require.NoError(t, got.err)
		require.Len(t, got.lines, 3)
		require.True(t, strings.HasPrefix(got.lines[0], "id: "))
		require.Equal(t, "event: new_order", got.lines[1])
		require.Contains(t, got.lines[2], `"product":"Indomie"`)
	case <-time.After(2 * time.Second):
		t.Fatal("no event frame received through the wired router")
	}
}
