package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cesargomez89/movielog/internal/domain"
)

// movieKeyFromQuery reads the (title, year) key from the query string.
func movieKeyFromQuery(r *http.Request) (domain.MovieKey, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return domain.MovieKey{}, err
	}
	return domain.MovieKey{
		Title: r.URL.Query().Get("title"),
		Year:  year,
	}, nil
}

func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Catalog.SelectAllMovies(r.Context())
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	key, err := movieKeyFromQuery(r)
	if err != nil {
		http.Error(w, "title and numeric year are required", http.StatusBadRequest)
		return
	}
	movie, err := h.Catalog.SelectMovie(r.Context(), key)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) MatchMovies(w http.ResponseWriter, r *http.Request) {
	var criteria domain.MatchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		http.Error(w, "invalid criteria: "+err.Error(), http.StatusBadRequest)
		return
	}
	movies, err := h.Catalog.MatchMovies(r.Context(), criteria)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) AddMovie(w http.ResponseWriter, r *http.Request) {
	var bag domain.MovieBag
	if err := json.NewDecoder(r.Body).Decode(&bag); err != nil {
		http.Error(w, "invalid movie: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.AddMovie(r.Context(), bag); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *Handler) EditMovie(w http.ResponseWriter, r *http.Request) {
	key, err := movieKeyFromQuery(r)
	if err != nil {
		http.Error(w, "title and numeric year are required", http.StatusBadRequest)
		return
	}
	var patch domain.MoviePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid patch: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.EditMovie(r.Context(), key, patch); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	key, err := movieKeyFromQuery(r)
	if err != nil {
		http.Error(w, "title and numeric year are required", http.StatusBadRequest)
		return
	}
	// Deleting an absent movie still sweeps orphans for the names it
	// carried, so the full payload is accepted when provided.
	bag := domain.MovieBag{Title: key.Title, Year: key.Year}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&bag); err != nil {
			http.Error(w, "invalid movie: "+err.Error(), http.StatusBadRequest)
			return
		}
		bag.Title, bag.Year = key.Title, key.Year
	}
	if err := h.Catalog.DeleteMovie(r.Context(), bag); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SweepOrphans(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteAllOrphans(r.Context()); err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "swept"})
}
