package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/technosupport/ts-camwatch/internal/data"
)

type LogHandler struct {
	Repos *data.Repositories
}

func NewLogHandler(repos *data.Repositories) *LogHandler {
	return &LogHandler{Repos: repos}
}

func (h *LogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	logs, total, err := h.Repos.Logs.Search(r.Context(), q, limit, offset)
	if err != nil {
		http.Error(w, "failed to search logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": logs, "total": total})
}
