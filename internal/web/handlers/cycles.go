package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/blockedby/flight-stats/internal/publisher"
	"github.com/blockedby/flight-stats/internal/repository"
	"github.com/blockedby/flight-stats/internal/stats"
)

// CycleLister reads the fetch cycle history.
type CycleLister interface {
	Recent(ctx context.Context, f repository.CycleFilter) ([]publisher.CycleSettledEvent, error)
}

// CyclesHandler serves the history of settled fetch cycles.
type CyclesHandler struct {
	repo CycleLister
	log  *zerolog.Logger
}

// NewCyclesHandler creates a new CyclesHandler.
func NewCyclesHandler(repo CycleLister, log *zerolog.Logger) *CyclesHandler {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &CyclesHandler{repo: repo, log: log}
}

// ListCycles handles GET /api/v1/cycles?year=&limit=
func (h *CyclesHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f repository.CycleFilter
	if raw := q.Get("year"); raw != "" {
		year, err := stats.ParseYear(raw, 0)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Year = year
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}

	cycles, err := h.repo.Recent(r.Context(), f)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.log.Error().Err(err).Msg("failed to list cycles")
		respondError(w, http.StatusInternalServerError, "failed to list cycles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cycles": cycles,
		"count":  len(cycles),
	})
}
