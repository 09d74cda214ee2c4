package handlers

import (
	"encoding/json"
	"net/http"
)

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Catalog.SelectAllTags(r.Context())
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tags)
}

func (h *Handler) MatchTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Catalog.MatchTags(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tags)
}

func (h *Handler) AddTags(w http.ResponseWriter, r *http.Request) {
	var texts []string
	if err := json.NewDecoder(r.Body).Decode(&texts); err != nil {
		http.Error(w, "invalid tags: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.AddTags(r.Context(), texts); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *Handler) EditTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid rename: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.EditTag(r.Context(), body.Old, body.New); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteTag(r.Context(), r.URL.Query().Get("text")); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
