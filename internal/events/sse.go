package events

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const heartbeatInterval = 25 * time.Second

// SSEHandler relays bus events to browser clients over Server-Sent Events.
// It is pure transport: the business layer only ever talks to the Bus.
type SSEHandler struct {
	bus    *Bus
	logger *slog.Logger
}

// NewSSEHandler constructs the relay handler.
func NewSSEHandler(bus *Bus, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{bus: bus, logger: logger}
}

// ServeHTTP streams events until the client disconnects. The optional
// "topics" query parameter narrows the subscription, e.g.
// /events?topics=incoming_payment.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var topics []Topic
	if raw := r.URL.Query().Get("topics"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, Topic(t))
			}
		}
	}

	sub := h.bus.Subscribe(topics...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt, open := <-sub.C():
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Topic, evt.Payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
