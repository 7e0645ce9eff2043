package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/api"
)

func TestHandler_RestartMonitor(t *testing.T) {
	repos, _ := newMockRepos(t)
	restarter := &MockRestarter{}
	h := api.NewMonitorHandler(repos, restarter, &MockMailSender{}, &MockChatSender{})

	req := httptest.NewRequest("POST", "/api/monitor/restart", nil)
	rr := httptest.NewRecorder()
	h.Restart(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"restarted"`) {
		t.Errorf("Body = %s", rr.Body.String())
	}
	if restarter.Calls != 1 {
		t.Errorf("Restart calls = %d, want 1", restarter.Calls)
	}
}

func TestHandler_TestMail_NotConfigured(t *testing.T) {
	repos, mock := newMockRepos(t)
	expectSettingsMap(mock)
	mailer := &MockMailSender{Err: alerting.ErrNotConfigured}
	h := api.NewMonitorHandler(repos, &MockRestarter{}, mailer, &MockChatSender{})

	req := httptest.NewRequest("POST", "/api/test/mail", nil)
	rr := httptest.NewRecorder()
	h.TestMail(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d. Body: %s", rr.Code, rr.Body.String())
	}
}

func TestHandler_TestMail_Sent(t *testing.T) {
	repos, mock := newMockRepos(t)
	expectSettingsMap(mock)
	mailer := &MockMailSender{}
	h := api.NewMonitorHandler(repos, &MockRestarter{}, mailer, &MockChatSender{})

	req := httptest.NewRequest("POST", "/api/test/mail", nil)
	rr := httptest.NewRecorder()
	h.TestMail(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if len(mailer.Subjects) != 1 {
		t.Fatalf("sends = %d, want 1", len(mailer.Subjects))
	}
}

func TestHandler_TestTelegram_TransportError(t *testing.T) {
	repos, mock := newMockRepos(t)
	expectSettingsMap(mock)
	chat := &MockChatSender{Err: errors.New("chat 42: HTTP 500")}
	h := api.NewMonitorHandler(repos, &MockRestarter{}, &MockMailSender{}, chat)

	req := httptest.NewRequest("POST", "/api/test/telegram", nil)
	rr := httptest.NewRecorder()
	h.TestTelegram(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d. Body: %s", rr.Code, rr.Body.String())
	}
}

func TestHandler_TestTelegram_Sent(t *testing.T) {
	repos, mock := newMockRepos(t)
	expectSettingsMap(mock)
	chat := &MockChatSender{}
	h := api.NewMonitorHandler(repos, &MockRestarter{}, &MockMailSender{}, chat)

	req := httptest.NewRequest("POST", "/api/test/telegram", nil)
	rr := httptest.NewRecorder()
	h.TestTelegram(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if len(chat.Texts) != 1 {
		t.Fatalf("sends = %d, want 1", len(chat.Texts))
	}
}
