package api

import (
	"net/http"

	"github.com/ayusman/marionette/internal/app"
	"github.com/ayusman/marionette/internal/rig"
	"github.com/ayusman/marionette/internal/state"
)

// StateHandler serves GET /api/state.
type StateHandler struct {
	app *app.App
}

// NewStateHandler creates a StateHandler for a.
func NewStateHandler(a *app.App) *StateHandler {
	return &StateHandler{app: a}
}

type publishStats struct {
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

type stateResponse struct {
	Session  string             `json:"session"`
	Gesture  state.GestureState `json:"gesture"`
	Settings state.Settings     `json:"settings"`
	Pose     rig.Pose           `json:"pose"`
	Stats    publishStats       `json:"stats"`
}

// ServeHTTP implements http.Handler.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	st := h.app.Store()
	published, dropped := st.Stats()
	writeJSON(w, http.StatusOK, stateResponse{
		Session:  h.app.Session(),
		Gesture:  st.Gesture(),
		Settings: st.Settings(),
		Pose:     h.app.Driver().Pose(),
		Stats:    publishStats{Published: published, Dropped: dropped},
	})
}

// ViewResetHandler serves POST /api/view/reset.
type ViewResetHandler struct {
	app *app.App
}

// NewViewResetHandler creates a ViewResetHandler for a.
func NewViewResetHandler(a *app.App) *ViewResetHandler {
	return &ViewResetHandler{app: a}
}

// ServeHTTP implements http.Handler.
func (h *ViewResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.app.ResetView())
}
