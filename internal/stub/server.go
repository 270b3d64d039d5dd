package stub

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/blockedby/flight-stats/internal/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler serves a Fixtures set.
type Handler struct {
	fx     *Fixtures
	log    *zerolog.Logger
	router *chi.Mux

	mu   sync.Mutex
	hits map[int]int
}

// NewHandler creates the fixture API handler.
func NewHandler(fx *Fixtures, log *zerolog.Logger) *Handler {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	h := &Handler{
		fx:     fx,
		log:    log,
		router: chi.NewRouter(),
		hits:   make(map[int]int),
	}

	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Recoverer)
	// browsers call the real API directly, so the stub answers preflights too
	h.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	h.router.Get(fx.Path, h.report)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Hits returns how many requests were made for year.
func (h *Handler) Hits(year int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[year]
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year query parameter is required"})
		return
	}

	h.mu.Lock()
	h.hits[year]++
	h.mu.Unlock()

	f := h.fx.Years[year]
	log := h.log.With().Int("year", year).Int("status", f.status()).Logger()

	if f != nil && f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-r.Context().Done():
			log.Debug().Msg("client gave up during delay")
			return
		}
	}

	log.Info().Msg("serving fixture")

	switch {
	case f == nil:
		writeJSON(w, http.StatusOK, stats.Report{Months: []stats.MonthStat{}})
	case f.Body != "":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status())
		_, _ = w.Write([]byte(f.Body))
	case f.status() < 200 || f.status() > 299:
		writeJSON(w, f.status(), map[string]string{"error": http.StatusText(f.status())})
	case f.OmitMonths:
		writeJSON(w, f.status(), struct{}{})
	default:
		months := f.Months
		if months == nil {
			months = []stats.MonthStat{}
		}
		writeJSON(w, f.status(), stats.Report{Months: months})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = err // Client disconnected
	}
}
