package api

import (
	"errors"
	"net/http"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/data"
)

// MonitorHandler drives the engine supervisor and the sink test sends.
type MonitorHandler struct {
	Repos      *data.Repositories
	Supervisor Restarter
	Mailer     MailSender
	Telegram   ChatSender
}

func NewMonitorHandler(repos *data.Repositories, sup Restarter, mailer MailSender, telegram ChatSender) *MonitorHandler {
	return &MonitorHandler{Repos: repos, Supervisor: sup, Mailer: mailer, Telegram: telegram}
}

func (h *MonitorHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.Supervisor.Restart()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"restarted"}`))
}

// TestMail sends one real mail regardless of MAIL_ENABLED so credentials can
// be verified before the sink goes live. Config errors come back as a 400
// with the reason; transport errors as a 502.
func (h *MonitorHandler) TestMail(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.loadSettings(w, r)
	if !ok {
		return
	}

	err := h.Mailer.Send(r.Context(), cfg.Mail, "Camwatch Test Mail",
		[]string{"This is a test alert from the camera monitor."})
	h.writeTestResult(w, err)
}

func (h *MonitorHandler) TestTelegram(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.loadSettings(w, r)
	if !ok {
		return
	}

	err := h.Telegram.Send(r.Context(), cfg.Telegram, "✅ Test message from the camera monitor.")
	h.writeTestResult(w, err)
}

func (h *MonitorHandler) loadSettings(w http.ResponseWriter, r *http.Request) (alerting.Settings, bool) {
	values, err := h.Repos.Settings.Map(r.Context())
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return alerting.Settings{}, false
	}
	return alerting.ParseSettings(values), true
}

func (h *MonitorHandler) writeTestResult(w http.ResponseWriter, err error) {
	if err != nil {
		if errors.Is(err, alerting.ErrNotConfigured) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"sent"}`))
}
