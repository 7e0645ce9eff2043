// Package api exposes the admin surface: fleet CRUD, settings, the name map
// file, log search, monitor control and downtime reports. Everything speaks
// JSON except the CSV endpoints and /metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/data"
	"github.com/technosupport/ts-camwatch/internal/reports"
)

// Restarter recycles the monitor engine; *monitor.Supervisor satisfies it.
type Restarter interface {
	Restart()
}

// MailSender and ChatSender are the raw sink sends behind the test endpoints.
// They bypass the enable flags so an operator can verify credentials before
// switching a sink on.
type MailSender interface {
	Send(ctx context.Context, cfg alerting.MailSettings, subject string, lines []string) error
}

type ChatSender interface {
	Send(ctx context.Context, cfg alerting.TelegramSettings, text string) error
}

type Config struct {
	Repos      *data.Repositories
	Reports    *reports.Builder
	Supervisor Restarter
	Mailer     MailSender
	Telegram   ChatSender
	CSVPath    string
}

func NewRouter(cfg Config) http.Handler {
	nvrs := NewNVRHandler(cfg.Repos)
	cameras := NewCameraHandler(cfg.Repos)
	settings := NewSettingsHandler(cfg.Repos)
	csv := NewConfigHandler(cfg.CSVPath)
	logs := NewLogHandler(cfg.Repos)
	mon := NewMonitorHandler(cfg.Repos, cfg.Supervisor, cfg.Mailer, cfg.Telegram)
	rep := NewReportHandler(cfg.Reports)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/nvrs", nvrs.List)
		r.Post("/nvrs", nvrs.Create)
		r.Put("/nvrs/{ip}", nvrs.Update)
		r.Delete("/nvrs/{ip}", nvrs.Delete)

		r.Get("/cameras", cameras.List)
		r.Put("/cameras/{id}", cameras.Update)

		r.Get("/settings", settings.List)
		r.Put("/settings/{key}", settings.Upsert)

		r.Get("/config/csv", csv.Get)
		r.Post("/config/csv", csv.Put)

		r.Get("/logs", logs.Search)

		r.Post("/monitor/restart", mon.Restart)
		r.Post("/test/mail", mon.TestMail)
		r.Post("/test/telegram", mon.TestTelegram)

		r.Get("/reports/downtime", rep.Downtime)
		r.Get("/stats/cameras/{id}", rep.CameraStats)
	})

	return r
}
