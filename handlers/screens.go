package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/you/subwayviz/aggregate"
	"github.com/you/subwayviz/charts"
	"github.com/you/subwayviz/models"
	"github.com/you/subwayviz/web"
)

// QueryScreen is the state rendered by the query screen
type QueryScreen struct {
	Station   string
	Records   []models.ArrivalRecord
	Error     string
	HandoffID string
}

// Reset clears everything but the station input before a new attempt
func (s *QueryScreen) Reset() {
	s.Records = nil
	s.Error = ""
	s.HandoffID = ""
}

// VisualizeScreen is the state rendered by the visualization screen.
// Charts is nil when there is nothing to show.
type VisualizeScreen struct {
	Station string
	Count   int
	Charts  *charts.Rendered
	Message string
}

// ScreenHandler serves the query and visualization screens
type ScreenHandler struct {
	fetcher Fetcher
	store   HandoffStore
	gate    *QueryGate
	tmpl    *template.Template
	ttl     time.Duration
	now     func() time.Time
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(fetcher Fetcher, store HandoffStore, gate *QueryGate, tmpl *template.Template, ttl time.Duration) *ScreenHandler {
	return &ScreenHandler{
		fetcher: fetcher,
		store:   store,
		gate:    gate,
		tmpl:    tmpl,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Home handles GET /
func (h *ScreenHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, web.HomeTemplate, &QueryScreen{})
}

// Query handles POST /
func (h *ScreenHandler) Query(w http.ResponseWriter, r *http.Request) {
	screen := &QueryScreen{Station: r.FormValue("station")}
	screen.Reset()

	session := sessionID(w, r)
	if !h.gate.TryAcquire(session) {
		screen.Error = MsgQueryInFlight
		h.render(w, http.StatusTooManyRequests, web.HomeTemplate, screen)
		return
	}
	defer h.gate.Release(session)

	station := strings.TrimSpace(screen.Station)
	records, err := h.fetcher.Fetch(r.Context(), station)
	if err != nil {
		msg, status := fetchErrorMessage(err)
		screen.Error = msg
		h.render(w, status, web.HomeTemplate, screen)
		return
	}
	screen.Records = records

	handoff, err := saveHandoff(r.Context(), h.store, station, records, h.ttl, h.now())
	if err != nil {
		// The list is still shown, only the visualize link is withheld
		log.Error().Err(err).Str("station", station).Msg("Failed to store handoff")
	} else {
		screen.HandoffID = handoff.ID.String()
	}

	h.render(w, http.StatusOK, web.HomeTemplate, screen)
}

// Visualize handles GET /visualize/{handoffId} and GET /visualize
func (h *ScreenHandler) Visualize(w http.ResponseWriter, r *http.Request) {
	handoff, ok, err := loadHandoff(r.Context(), h.store, chi.URLParam(r, "handoffId"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load handoff")
		h.render(w, http.StatusInternalServerError, web.VisualizeTemplate, &VisualizeScreen{Message: MsgNoData})
		return
	}
	if !ok {
		h.render(w, http.StatusNotFound, web.VisualizeTemplate, &VisualizeScreen{Message: MsgNoData})
		return
	}

	views := aggregate.BuildViews(handoff.Records)
	rendered, err := charts.RenderAll(r.Context(), views)
	if err != nil {
		log.Error().Err(err).Str("handoff_id", handoff.ID.String()).Msg("Failed to render charts")
		h.render(w, http.StatusInternalServerError, web.VisualizeTemplate, &VisualizeScreen{Message: MsgNoData})
		return
	}

	h.render(w, http.StatusOK, web.VisualizeTemplate, &VisualizeScreen{
		Station: handoff.Station,
		Count:   len(handoff.Records),
		Charts:  rendered,
	})
}

// Chart handles GET /visualize/{handoffId}/charts/{chart}, where chart is
// one of bar.svg, bubble.svg or line.svg
func (h *ScreenHandler) Chart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "chart")
	if !strings.HasSuffix(name, ".svg") {
		http.NotFound(w, r)
		return
	}
	kind, err := charts.ParseKind(strings.TrimSuffix(name, ".svg"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	handoff, ok, err := loadHandoff(r.Context(), h.store, chi.URLParam(r, "handoffId"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load handoff")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, kind, aggregate.BuildViews(handoff.Records)); err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to render chart")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// render executes a template into a buffer so a template failure can still
// produce a clean 500
func (h *ScreenHandler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
