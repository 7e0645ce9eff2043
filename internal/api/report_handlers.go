package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-camwatch/internal/reports"
)

type ReportHandler struct {
	Reports *reports.Builder
}

func NewReportHandler(builder *reports.Builder) *ReportHandler {
	return &ReportHandler{Reports: builder}
}

// Downtime aggregates outage minutes per camera over an RFC3339 range.
func (h *ReportHandler) Downtime(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "invalid start, want RFC3339", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, "invalid end, want RFC3339", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	}

	rows, err := h.Reports.Range(r.Context(), start, end, time.Now())
	if err != nil {
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// CameraStats serves the rolling 1h/24h downtime for one camera.
func (h *ReportHandler) CameraStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid camera id", http.StatusBadRequest)
		return
	}

	stats, err := h.Reports.Stats(r.Context(), id, time.Now())
	if err != nil {
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
