package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-camwatch/internal/data"
)

type SettingsHandler struct {
	Repos *data.Repositories
}

func NewSettingsHandler(repos *data.Repositories) *SettingsHandler {
	return &SettingsHandler{Repos: repos}
}

type UpdateSettingRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Repos.Settings.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

func (h *SettingsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.Repos.Settings.Upsert(r.Context(), key, req.Value, req.Description)
	if err != nil {
		http.Error(w, "failed to update setting", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}
