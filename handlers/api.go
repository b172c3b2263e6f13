package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/you/subwayviz/aggregate"
	"github.com/you/subwayviz/arrivals"
	"github.com/you/subwayviz/models"
)

// APIHandler serves the JSON endpoints
type APIHandler struct {
	fetcher Fetcher
	store   HandoffStore
	ttl     time.Duration
	now     func() time.Time
}

// NewAPIHandler creates a new JSON API handler
func NewAPIHandler(fetcher Fetcher, store HandoffStore, ttl time.Duration) *APIHandler {
	return &APIHandler{
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetArrivals handles GET /api/arrivals?station=
func (h *APIHandler) GetArrivals(w http.ResponseWriter, r *http.Request) {
	station := strings.TrimSpace(r.URL.Query().Get("station"))

	records, err := h.fetcher.Fetch(r.Context(), station)
	if err != nil {
		msg, status := fetchErrorMessage(err)
		writeJSONError(w, status, msg, map[string]interface{}{
			"kind":    arrivals.KindOf(err).String(),
			"station": station,
		})
		return
	}

	now := h.now()
	response := models.ArrivalsResponse{
		Station:   station,
		Arrivals:  records,
		Count:     len(records),
		FetchedAt: now.UTC(),
	}

	handoff, err := saveHandoff(r.Context(), h.store, station, records, h.ttl, now)
	if err != nil {
		log.Error().Err(err).Str("station", station).Msg("Failed to store handoff")
	} else {
		response.HandoffID = handoff.ID.String()
	}

	writeJSON(w, http.StatusOK, response)
}

// GetViews handles GET /api/handoffs/{handoffId}/views
func (h *APIHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "handoffId")

	handoff, ok, err := loadHandoff(r.Context(), h.store, rawID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to load handoff", map[string]interface{}{
			"message": err.Error(),
		})
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, MsgNoData, map[string]interface{}{
			"handoffId": rawID,
		})
		return
	}

	writeJSON(w, http.StatusOK, models.ViewsResponse{
		HandoffID: handoff.ID.String(),
		Station:   handoff.Station,
		Count:     len(handoff.Records),
		Views:     aggregate.BuildViews(handoff.Records),
		ExpiresAt: handoff.ExpiresAt,
	})
}
