package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/cinelist/internal/domain"
	"github.com/msomdec/cinelist/internal/service"
)

// PreferencesHandler handles user preference requests.
type PreferencesHandler struct {
	prefs *service.PreferencesService
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(prefs *service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

// HandleGet returns the user's preferences, or the defaults.
// GET /api/preferences
func (h *PreferencesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	prefs, err := h.prefs.Get(r.Context(), user.ID)
	if err != nil {
		slog.Error("get preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, toPreferencesDTO(prefs))
}

// HandleUpdate changes the fields present in the body.
// PUT /api/preferences
// Request: {"theme":"dark","notifications":false,"autoSync":true} (all optional)
func (h *PreferencesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Theme         *string `json:"theme"`
		Notifications *bool   `json:"notifications"`
		AutoSync      *bool   `json:"autoSync"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	upd := service.PreferencesUpdate{Notifications: req.Notifications, AutoSync: req.AutoSync}
	if req.Theme != nil {
		theme := domain.Theme(*req.Theme)
		upd.Theme = &theme
	}

	prefs, err := h.prefs.Update(r.Context(), user.ID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("update preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, toPreferencesDTO(prefs))
}
