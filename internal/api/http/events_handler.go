package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"playpark-backend/internal/logger"
	"playpark-backend/internal/notify"
)

// EventsHandler streams a branch's timer events to front-of-house
// displays over Server-Sent Events.
type EventsHandler struct {
	router *notify.Router
}

func NewEventsHandler(router *notify.Router) *EventsHandler {
	return &EventsHandler{router: router}
}

// Register mounts the event stream route on the router.
func (h *EventsHandler) Register(r *mux.Router) {
	r.HandleFunc("/v1/branches/{id}/events", h.HandleStream).Methods(http.MethodGet)
}

func (h *EventsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	branchID := mux.Vars(r)["id"]
	sub := h.router.Subscribe(branchID)
	defer h.router.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Debug("Branch event stream opened", "branch_id", branchID)
	defer logger.Debug("Branch event stream closed", "branch_id", branchID)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to marshal event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
