// Package handlers exposes the catalog and the lookup pipeline over a
// JSON API. Failure categories map onto HTTP status codes here and
// nowhere else.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/movielog/internal/catalog"
	"github.com/cesargomez89/movielog/internal/domain"
	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/logger"
	"github.com/cesargomez89/movielog/internal/lookup"
	"github.com/cesargomez89/movielog/internal/store"
)

// CacheStore invalidates cached provider responses. Satisfied by store.DB.
type CacheStore interface {
	ClearCache() error
}

type Handler struct {
	Catalog   *catalog.Catalog
	Settings  *store.SettingsRepo
	Pipeline  *lookup.Pipeline
	Queue     *lookup.Queue
	Debouncer *lookup.Debouncer
	Cache     CacheStore
	Log       *logger.Logger

	mu         sync.Mutex
	candidates []domain.MovieBag
	hasView    bool
}

func NewHandler(c *catalog.Catalog, settings *store.SettingsRepo, p *lookup.Pipeline, q *lookup.Queue, d *lookup.Debouncer, cache CacheStore, log *logger.Logger) *Handler {
	return &Handler{
		Catalog:   c,
		Settings:  settings,
		Pipeline:  p,
		Queue:     q,
		Debouncer: d,
		Cache:     cache,
		Log:       log.WithComponent("handlers"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/movies", h.ListMovies)
		r.Get("/movies/one", h.GetMovie)
		r.Post("/movies/match", h.MatchMovies)
		r.Post("/movies", h.AddMovie)
		r.Put("/movies", h.EditMovie)
		r.Delete("/movies", h.DeleteMovie)

		r.Get("/tags", h.ListTags)
		r.Get("/tags/match", h.MatchTags)
		r.Post("/tags", h.AddTags)
		r.Put("/tags", h.EditTag)
		r.Delete("/tags", h.DeleteTag)

		r.Post("/orphans/sweep", h.SweepOrphans)

		r.Post("/lookup", h.StartLookup)
		r.Get("/lookup/results", h.LookupResults)

		r.Get("/settings/apikey", h.GetAPIKey)
		r.Put("/settings/apikey", h.SetAPIKey)
	})
}

// ApplyCandidates replaces the current candidate view. It is the
// consumer's apply function.
func (h *Handler) ApplyCandidates(snapshot []domain.MovieBag) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.candidates = snapshot
	h.hasView = true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			h.Log.Error("response encode failed", "error", err)
		}
	}
}

type faultResponse struct {
	Category string   `json:"category,omitempty"`
	Message  string   `json:"message"`
	Context  []string `json:"context,omitempty"`
}

// writeFault translates a failure into an HTTP response. Categorized
// faults keep their category and context in the body.
func (h *Handler) writeFault(w http.ResponseWriter, err error) {
	body := faultResponse{Message: err.Error()}
	status := http.StatusInternalServerError

	if cat, ok := faults.CategoryOf(err); ok {
		body.Category = string(cat)
		body.Context = faults.ContextOf(err)
		status = statusForCategory(cat)
	}
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, body)
}

func statusForCategory(cat faults.Category) int {
	switch cat {
	case faults.MovieNotFound, faults.TagNotFound:
		return http.StatusNotFound
	case faults.MovieExists, faults.TagExists:
		return http.StatusConflict
	case faults.InvalidTitle, faults.InvalidYear, faults.MalformedRange, faults.InvalidIntCast:
		return http.StatusUnprocessableEntity
	case faults.InvalidAPIKey:
		return http.StatusUnauthorized
	case faults.LookupDisabled:
		return http.StatusForbidden
	case faults.ProviderUnreachable, faults.ProviderRecordMissing, faults.ProviderUnexpected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
