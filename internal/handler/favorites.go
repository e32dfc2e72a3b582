package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/cinelist/internal/domain"
	"github.com/msomdec/cinelist/internal/service"
)

// FavoriteHandler handles favorite movie requests.
type FavoriteHandler struct {
	favorites *service.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// HandleList returns the user's favorites, newest first.
// GET /api/favorites
// Response: {"favorites": [...]}
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	favorites, err := h.favorites.List(r.Context(), user.ID)
	if err != nil {
		slog.Error("list favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"favorites": toFavoriteDTOs(favorites),
	})
}

// HandleAdd stores a movie as a favorite.
// POST /api/favorites
// Request:  {"id":..,"title":"...","posterPath":"...",...}
// Response: {"favorite": {...}}
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req MovieDTO
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	fav, err := h.favorites.Add(r.Context(), user.ID, req.toDomain())
	if err != nil {
		writeFavoriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"favorite": toFavoriteDTO(*fav),
	})
}

// HandleStatus reports whether a movie is a favorite.
// GET /api/favorites/{movieID}
// Response: {"isFavorite": bool}
func (h *FavoriteHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	movieID, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	is, err := h.favorites.IsFavorite(r.Context(), user.ID, movieID)
	if err != nil {
		writeFavoriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": is})
}

// HandleRemove deletes a favorite.
// DELETE /api/favorites/{movieID}
// Response: 204 No Content
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	movieID, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	if err := h.favorites.Remove(r.Context(), user.ID, movieID); err != nil {
		writeFavoriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle flips the favorite state of a movie. The body carries the
// snapshot stored when the movie is added.
// POST /api/favorites/{movieID}/toggle
// Response: {"isFavorite": bool}
func (h *FavoriteHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	movieID, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	var req MovieDTO
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.ID = movieID

	is, err := h.favorites.Toggle(r.Context(), user.ID, req.toDomain())
	if err != nil {
		writeFavoriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": is})
}

func parseMovieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("movieID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid movie ID.")
		return 0, false
	}
	return id, true
}

func writeFavoriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Favorite not found.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
