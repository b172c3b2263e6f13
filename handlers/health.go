package handlers

import (
	"context"
	"net/http"
	"time"
)

// StorePinger checks that the handoff store is reachable
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the liveness and readiness endpoints
type HealthHandler struct {
	store     StorePinger
	storeName string
	gate      *QueryGate
}

// NewHealthHandler creates a new handler for the given store
func NewHealthHandler(store StorePinger, storeName string, gate *QueryGate) *HealthHandler {
	return &HealthHandler{store: store, storeName: storeName, gate: gate}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Database  string    `json:"database"`
	InFlight  int       `json:"inFlight"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// GetHealth handles GET /health
// Reports 503 when the handoff store does not answer a ping
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ok",
		Store:     h.storeName,
		Database:  "connected",
		Timestamp: time.Now().UTC(),
	}
	if h.gate != nil {
		response.InFlight = h.gate.InFlight()
	}

	if err := h.store.Ping(ctx); err != nil {
		response.Status = "error"
		response.Database = "disconnected"
		response.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
