package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

type SettingsManager interface {
	Masked(ctx context.Context, provider string) (map[string]string, error)
	Set(ctx context.Context, provider string, values map[string]string) error
}

type SettingsHandler struct {
	service SettingsManager
}

func NewSettingsHandler(service SettingsManager) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetSettings handles GET /api/settings/{provider}. Secret values are masked.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	values, err := h.service.Masked(r.Context(), provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"provider": provider, "values": values})
}

// UpdateSettings handles PUT /api/settings/{provider}. Keys not in the body
// keep their stored values.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := decodeJSON(w, r, &values); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	provider := mux.Vars(r)["provider"]
	if err := h.service.Set(r.Context(), provider, values); err != nil {
		writeError(w, err)
		return
	}
	h.GetSettings(w, r)
}
