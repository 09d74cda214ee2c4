package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cesargomez89/movielog/internal/store"
)

func (h *Handler) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.Settings.Get(store.SettingTMDBAPIKey)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

func (h *Handler) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Settings.Set(store.SettingTMDBAPIKey, body.APIKey); err != nil {
		h.writeFault(w, err)
		return
	}
	// Cached provider responses were fetched under the previous key.
	if h.Cache != nil {
		if err := h.Cache.ClearCache(); err != nil {
			h.Log.Error("failed to clear provider cache", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
