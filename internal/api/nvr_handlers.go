package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-camwatch/internal/data"
)

type NVRHandler struct {
	Repos *data.Repositories
}

func NewNVRHandler(repos *data.Repositories) *NVRHandler {
	return &NVRHandler{Repos: repos}
}

// --- Requests ---
type CreateNVRRequest struct {
	IP       string `json:"ip"`
	User     string `json:"user"`
	Password string `json:"password"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// --- Handlers ---

func (h *NVRHandler) List(w http.ResponseWriter, r *http.Request) {
	nvrs, err := h.Repos.NVRs.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list nvrs", http.StatusInternalServerError)
		return
	}
	for _, n := range nvrs {
		n.Password = ""
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(nvrs)
}

func (h *NVRHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNVRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.IP == "" {
		http.Error(w, "ip is required", http.StatusBadRequest)
		return
	}

	n := &data.NVR{
		IP:       req.IP,
		User:     req.User,
		Password: req.Password,
		Enabled:  true, // default
	}
	if req.Enabled != nil {
		n.Enabled = *req.Enabled
	}

	if err := h.Repos.NVRs.Create(r.Context(), n); err != nil {
		if errors.Is(err, data.ErrAlreadyExists) {
			http.Error(w, "nvr already exists", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create nvr", http.StatusInternalServerError)
		return
	}

	n.Password = ""
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(n)
}

func (h *NVRHandler) Update(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	var params data.UpdateNVRParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.Repos.NVRs.Update(r.Context(), ip, params)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			http.Error(w, "nvr not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update nvr", http.StatusInternalServerError)
		return
	}

	n.Password = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(n)
}

func (h *NVRHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	if err := h.Repos.NVRs.Delete(r.Context(), ip); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			http.Error(w, "nvr not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete nvr", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
