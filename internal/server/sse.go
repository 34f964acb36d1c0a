package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/reviewsvc/internal/model"
)

// pingInterval is the SSE heartbeat period, keeping proxies from closing an
// idle connection while a job sits between events.
const pingInterval = 15 * time.Second

// streamEvents writes sub to w as an SSE stream until the channel closes
// (job reached a terminal state) or the client disconnects.
func streamEvents(w http.ResponseWriter, r *http.Request, sub <-chan model.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case event, open := <-sub:
			if !open {
				return
			}
			writeSSEEvent(w, flusher, string(event.Type), event)

		case <-ticker.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, name string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", name)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
