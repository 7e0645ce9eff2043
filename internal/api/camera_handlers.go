package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-camwatch/internal/data"
)

type CameraHandler struct {
	Repos *data.Repositories
}

func NewCameraHandler(repos *data.Repositories) *CameraHandler {
	return &CameraHandler{Repos: repos}
}

func (h *CameraHandler) List(w http.ResponseWriter, r *http.Request) {
	cameras, err := h.Repos.Cameras.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list cameras", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cameras)
}

func (h *CameraHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid camera id", http.StatusBadRequest)
		return
	}

	var params data.UpdateCameraParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if params.Importance != nil && (*params.Importance < data.ImportanceLow || *params.Importance > data.ImportanceHigh) {
		http.Error(w, "importance must be between 1 and 3", http.StatusBadRequest)
		return
	}

	c, err := h.Repos.Cameras.UpdateAdmin(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			http.Error(w, "camera not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update camera", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}
