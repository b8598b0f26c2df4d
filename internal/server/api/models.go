package api

import (
	"net/http"

	"github.com/ayusman/marionette/internal/app"
	"github.com/ayusman/marionette/internal/log"
)

// ModelsHandler serves GET /api/models.
type ModelsHandler struct {
	app *app.App
}

// NewModelsHandler creates a ModelsHandler for a.
func NewModelsHandler(a *app.App) *ModelsHandler {
	return &ModelsHandler{app: a}
}

type listModelsResponse struct {
	Models  []app.ModelInfo `json:"models"`
	Current string          `json:"current"`
}

// ServeHTTP implements http.Handler.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	models, err := h.app.Models().List()
	if err != nil {
		log.Error("list models", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, listModelsResponse{
		Models:  models,
		Current: h.app.Store().Settings().ModelID,
	})
}
