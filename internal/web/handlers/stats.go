package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/blockedby/flight-stats/internal/stats"
	"github.com/blockedby/flight-stats/internal/view"
	"github.com/blockedby/flight-stats/internal/web"
)

// StatsHandler serves the stats view over plain HTTP. Every request mounts
// its own view, waits for it to settle and renders the result.
type StatsHandler struct {
	templates   TemplateRenderer
	views       *view.Factory
	defaultYear int
	log         *zerolog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(templates TemplateRenderer, views *view.Factory, defaultYear int, log *zerolog.Logger) *StatsHandler {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &StatsHandler{
		templates:   templates,
		views:       views,
		defaultYear: defaultYear,
		log:         log,
	}
}

var errClientGone = errors.New("client went away")

// load runs one fetch cycle for the requested year.
func (h *StatsHandler) load(r *http.Request) (view.Model, error) {
	year, err := stats.ParseYear(r.URL.Query().Get("year"), h.defaultYear)
	if err != nil {
		return view.Model{}, err
	}

	st, err := h.views.Load(r.Context(), year)
	if err != nil {
		if r.Context().Err() != nil {
			return view.Model{}, errClientGone
		}
		return view.Model{}, err
	}
	return view.Render(st), nil
}

// writeLoadError maps load errors to a plain text reply.
func (h *StatsHandler) writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stats.ErrInvalidYear):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errClientGone):
		h.log.Debug().Msg("stats request canceled by client")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Page renders the dashboard page. HTMX requests get the content only.
func (h *StatsHandler) Page(w http.ResponseWriter, r *http.Request) {
	m, err := h.load(r)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	data := map[string]interface{}{
		"Title":      m.Title,
		"ActivePage": "stats",
		"Model":      m,
	}

	if r.Header.Get("HX-Request") == "true" {
		if err := h.templates.RenderContent(w, "dashboard", data); err != nil {
			http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if err := h.templates.Render(w, "dashboard", data); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// Partial renders only the stats panel.
func (h *StatsHandler) Partial(w http.ResponseWriter, r *http.Request) {
	m, err := h.load(r)
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	if err := h.templates.RenderPartial(w, web.PanelTemplate, m); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// GetStats returns the view model as JSON. A failed upstream fetch is
// reported as 502 with the classified error in the body.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	m, err := h.load(r)
	if err != nil {
		switch {
		case errors.Is(err, stats.ErrInvalidYear):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, errClientGone):
			h.log.Debug().Msg("stats request canceled by client")
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	status := http.StatusOK
	if m.Error != nil {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, m)
}
