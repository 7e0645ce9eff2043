package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
)

// ConfigHandler serves the camera name map file. Writes go through a temp
// file plus rename so the watcher never reads a half-written CSV.
type ConfigHandler struct {
	CSVPath string
}

func NewConfigHandler(csvPath string) *ConfigHandler {
	return &ConfigHandler{CSVPath: csvPath}
}

type SaveCSVRequest struct {
	Content string `json:"content"`
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(h.CSVPath)
	if err != nil && !os.IsNotExist(err) {
		http.Error(w, "failed to read csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write(content)
}

func (h *ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req SaveCSVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := writeAtomic(h.CSVPath, []byte(req.Content)); err != nil {
		http.Error(w, "failed to save csv", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"saved"}`))
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
