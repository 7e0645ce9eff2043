package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/technosupport/ts-camwatch/internal/api"
)

func TestHandler_CSVSaveAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera_names.csv")
	h := api.NewConfigHandler(path)

	body := `{"content":"ip,name\n10.0.0.51,Gate\n"}`
	req := httptest.NewRequest("POST", "/api/config/csv", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.Put(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved csv: %v", err)
	}
	if string(saved) != "ip,name\n10.0.0.51,Gate\n" {
		t.Errorf("saved = %q", saved)
	}

	req = httptest.NewRequest("GET", "/api/config/csv", nil)
	rr = httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ip,name\n10.0.0.51,Gate\n" {
		t.Errorf("Body = %q", rr.Body.String())
	}
}

func TestHandler_CSVGet_MissingFile(t *testing.T) {
	h := api.NewConfigHandler(filepath.Join(t.TempDir(), "missing.csv"))

	req := httptest.NewRequest("GET", "/api/config/csv", nil)
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", rr.Body.String())
	}
}

func TestHandler_CSVSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camera_names.csv")
	h := api.NewConfigHandler(path)

	req := httptest.NewRequest("POST", "/api/config/csv", bytes.NewBufferString(`{"content":"ip,name\n"}`))
	rr := httptest.NewRecorder()
	h.Put(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "camera_names.csv" {
		t.Errorf("dir entries = %v, want only the csv", entries)
	}
}
