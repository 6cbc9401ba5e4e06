package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// --- Cart ---

func (h *Handlers) apiCartState(w http.ResponseWriter, r *http.Request) {
	cartID := h.sessions.cartID(w, r)
	items, err := h.carts.Items(cartID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totals, err := h.carts.ComputeTotals(cartID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"items": items, "totals": totals})
}

func (h *Handlers) apiCartAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID       string  `json:"itemId"`
		Name         string  `json:"name"`
		RestaurantID string  `json:"restaurantId"`
		Price        float64 `json:"price"`
		Quantity     int     `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	cartID := h.sessions.cartID(w, r)
	if err := h.carts.Add(cartID, req.ItemID, req.Name, req.RestaurantID, req.Price, req.Quantity); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiCartSetQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cartID := h.sessions.cartID(w, r)
	if err := h.carts.SetQuantity(cartID, itemID, req.Quantity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiCartRemove(w http.ResponseWriter, r *http.Request) {
	cartID := h.sessions.cartID(w, r)
	if err := h.carts.Remove(cartID, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Tracking ---

// handleTrackEvents streams progress snapshots for one order. The tracker is
// started by the first subscriber and torn down when the last one leaves, so
// closing the page closes the upstream feeds too.
func (h *Handlers) handleTrackEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	orderID := chi.URLParam(r, "orderID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	t, events := h.trackers.subscribe(orderID)
	defer h.trackers.unsubscribe(t, events)

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", marshalEvent(ev))
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
