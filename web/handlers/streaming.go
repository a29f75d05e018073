package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// handleStream pushes live engine events to the browser using Server-Sent
// Events. The current turn log is replayed first so a reconnecting client
// catches up before receiving live updates.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	slog.Debug("New stream connection", "remote_addr", r.RemoteAddr)

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Subscribe before replay so no event falls between the two.
	events := h.engine.Subscribe()
	defer h.engine.Unsubscribe(events)

	h.sendSSEEvent(w, flusher, "snapshot", h.turnViews())

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Stream connection closed", "remote_addr", r.RemoteAddr)
			return
		case ev, open := <-events:
			if !open {
				// Engine torn down.
				return
			}
			h.sendSSEEvent(w, flusher, string(ev.Type), ev)
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		slog.Error("Failed to write SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		slog.Error("Failed to write SSE data", "error", err)
		return
	}
	flusher.Flush()
}
