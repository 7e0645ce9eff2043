// Command camwatch runs the camera fleet monitor: the polling engine, the
// alert scheduler and the admin HTTP API in a single process.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/api"
	"github.com/technosupport/ts-camwatch/internal/config"
	"github.com/technosupport/ts-camwatch/internal/crypto"
	"github.com/technosupport/ts-camwatch/internal/data"
	"github.com/technosupport/ts-camwatch/internal/events"
	"github.com/technosupport/ts-camwatch/internal/isapi"
	"github.com/technosupport/ts-camwatch/internal/monitor"
	"github.com/technosupport/ts-camwatch/internal/reports"
	"github.com/technosupport/ts-camwatch/internal/store"
)

func main() {
	// .env is optional; deployments usually mount a yaml config instead.
	_ = godotenv.Load()

	configPath := flag.String("config", "camwatch.yaml", "path to the yaml config file")
	flag.Parse()

	// 1. Configuration. Load returns usable defaults even on error, so the
	// logger can be built before bailing out.
	cfg, err := config.Load(*configPath)
	log := newLogger(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// 2. Database + Migrations
	ctx := context.Background()
	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("open database")
	}
	defer db.Close()

	if err := store.Migrate(db, cfg.Database.Driver); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	// 3. Repositories
	box := crypto.NewBox(cfg.Crypto.Secret)
	repos := data.NewRepositories(db, box)
	if err := repos.Settings.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed default settings")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 4. Camera name overrides (CSV, hot-reloaded on file change)
	names := monitor.NewNames(cfg.Monitor.NamesCSV, log.With().Str("component", "names").Logger())
	names.Reload()
	names.Watch(runCtx)

	// 5. Transition publishing over NATS. Optional: a dead broker must not
	// keep the monitor from starting.
	var publisher monitor.TransitionPublisher
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("camwatch"))
		if err != nil {
			log.Warn().Err(err).Msg("nats connect failed, transition publishing disabled")
		} else {
			defer nc.Close()
			publisher = events.NewPublisher(nc, cfg.NATS.Subject, 3)
			log.Info().Str("subject", cfg.NATS.Subject).Msg("publishing camera transitions to nats")
		}
	}

	// 6. Monitor engine under its supervisor
	client := isapi.NewClient(time.Duration(cfg.Monitor.PollTimeoutSeconds) * time.Second)
	poller := monitor.NewPoller(client, cfg.Monitor.PollWorkers)
	mailer := alerting.NewMailer()
	telegram := alerting.NewTelegram()

	engine := monitor.NewEngine(repos, poller, names, telegram, mailer, publisher, monitor.Config{
		Interval:    time.Duration(cfg.Monitor.IntervalSeconds) * time.Second,
		IdleSleep:   time.Duration(cfg.Monitor.IdleSleepSeconds) * time.Second,
		ErrorSleep:  time.Duration(cfg.Monitor.ErrorSleepSeconds) * time.Second,
		PollWorkers: cfg.Monitor.PollWorkers,
	}, log.With().Str("component", "monitor").Logger())

	supervisor := monitor.NewSupervisor(engine)
	supervisor.Start()

	// 7. Admin HTTP API
	router := api.NewRouter(api.Config{
		Repos:      repos,
		Reports:    reports.NewBuilder(repos.Downtime),
		Supervisor: supervisor,
		Mailer:     mailer,
		Telegram:   telegram,
		CSVPath:    cfg.Monitor.NamesCSV,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// 8. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	cancel()
	supervisor.Stop()
	log.Info().Msg("stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
