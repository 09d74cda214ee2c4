package handlers

import (
	"context"
	"net/http"

	"github.com/cesargomez89/movielog/internal/store"
)

// StartLookup debounces a title-fragment search into the lookup pipeline.
// Rapid repeated calls collapse into one provider query; the response
// carries the cancellation id of the scheduled submission.
func (h *Handler) StartLookup(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("q")
	if fragment == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	apiKey, err := h.Settings.Get(store.SettingTMDBAPIKey)
	if err != nil {
		h.writeFault(w, err)
		return
	}

	id := h.Debouncer.Notify(func() {
		fut := h.Pipeline.EnqueueSearch(context.Background(), apiKey, fragment, h.Queue)
		go func() {
			if err := fut.Err(); err != nil {
				h.Log.Error("lookup failed", "fragment", fragment, "error", err)
			}
		}()
	})
	h.writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// LookupResults returns the freshest candidate snapshot observed by the
// consumer, or 204 when none has arrived yet.
func (h *Handler) LookupResults(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	candidates, ok := h.candidates, h.hasView
	h.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, candidates)
}
