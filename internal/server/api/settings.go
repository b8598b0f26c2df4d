package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/marionette/internal/app"
	"github.com/ayusman/marionette/internal/log"
	"github.com/ayusman/marionette/internal/state"
)

// SettingsHandler serves GET and PUT /api/settings.
type SettingsHandler struct {
	app *app.App
}

// NewSettingsHandler creates a SettingsHandler for a.
func NewSettingsHandler(a *app.App) *SettingsHandler {
	return &SettingsHandler{app: a}
}

// updateSettingsRequest is a partial update. Absent fields keep their value.
type updateSettingsRequest struct {
	PhysicsIntensity  *float64 `json:"physicsIntensity"`
	ModelID           *string  `json:"modelId"`
	Preset            *string  `json:"preset"`
	MovementIntensity *float64 `json:"movementIntensity"`
	TrackingEnabled   *bool    `json:"trackingEnabled"`
}

func (req updateSettingsRequest) apply(s *state.Settings) {
	if req.PhysicsIntensity != nil {
		s.PhysicsIntensity = *req.PhysicsIntensity
	}
	if req.ModelID != nil {
		s.ModelID = *req.ModelID
	}
	if req.Preset != nil {
		s.Preset = state.Preset(*req.Preset)
	}
	if req.MovementIntensity != nil {
		s.MovementIntensity = *req.MovementIntensity
	}
	if req.TrackingEnabled != nil {
		s.TrackingEnabled = *req.TrackingEnabled
	}
}

// ServeHTTP implements http.Handler.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Store().Settings())
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings, err := h.app.UpdateSettings(req.apply)
	switch {
	case errors.Is(err, state.ErrInvalidSettings), errors.Is(err, app.ErrUnknownModel):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
