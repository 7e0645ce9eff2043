// Package monitor drives the poll/reconcile/alert cycle against the camera
// fleet. One engine goroutine owns every database write of a tick; polls
// fan out to a worker pool and notification dispatch stays serialized.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/data"
	"github.com/technosupport/ts-camwatch/internal/events"
	"github.com/technosupport/ts-camwatch/internal/metrics"
)

// ChatSink delivers one rendered batch. (false, nil) means the sink was
// disabled or the batch empty; only a true or an error gets a log row.
type ChatSink interface {
	SendBatch(ctx context.Context, cfg alerting.TelegramSettings, header string, lines []string) (bool, error)
}

type MailSink interface {
	SendBatch(ctx context.Context, cfg alerting.MailSettings, subject string, lines []string) (bool, error)
}

// TransitionPublisher mirrors events.Publisher.
type TransitionPublisher interface {
	Publish(ctx context.Context, tr events.Transition) error
}

// Config carries the loop timings; zero values fall back to production
// defaults.
type Config struct {
	Interval    time.Duration
	IdleSleep   time.Duration
	ErrorSleep  time.Duration
	PollWorkers int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = 10 * time.Second
	}
	if c.ErrorSleep <= 0 {
		c.ErrorSleep = 5 * time.Second
	}
	return c
}

var errNoNVRs = errors.New("no enabled nvrs")

// Engine is the periodic monitor loop.
type Engine struct {
	repos     *data.Repositories
	poller    *Poller
	names     *Names
	chat      ChatSink
	mail      MailSink
	publisher TransitionPublisher
	cfg       Config
	log       zerolog.Logger

	lastSummaryHour int
}

func NewEngine(repos *data.Repositories, poller *Poller, names *Names, chat ChatSink, mail MailSink, publisher TransitionPublisher, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		repos:           repos,
		poller:          poller,
		names:           names,
		chat:            chat,
		mail:            mail,
		publisher:       publisher,
		cfg:             cfg.withDefaults(),
		log:             log,
		lastSummaryHour: -1,
	}
}

// Run ticks until ctx is cancelled. Component failures inside a tick are
// logged and absorbed; nothing propagates out of the loop.
func (e *Engine) Run(ctx context.Context) {
	now := time.Now()
	if err := e.repos.Logs.Append(ctx, now, data.LogTypeService, data.StateStarted, "Monitor loop initialized"); err != nil {
		e.log.Error().Err(err).Msg("could not write startup log")
	}
	e.log.Info().Msg("monitor loop started")

	for {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		err := e.tick(ctx, start)
		metrics.TickDuration.Observe(time.Since(start).Seconds())

		switch {
		case ctx.Err() != nil:
			// Fall through to the stop log.
		case errors.Is(err, errNoNVRs):
			sleep(ctx, e.cfg.IdleSleep)
			continue
		case err != nil:
			e.log.Error().Err(err).Msg("tick failed")
			sleep(ctx, e.cfg.ErrorSleep)
			continue
		default:
			sleep(ctx, e.cfg.Interval)
			continue
		}
		break
	}

	// The run context is gone already; the stop marker gets its own.
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.repos.Logs.Append(stopCtx, time.Now(), data.LogTypeService, data.StateStopped, "Monitor loop cancelled"); err != nil {
		e.log.Error().Err(err).Msg("could not write stop log")
	}
	e.log.Info().Msg("monitor loop stopped")
}

func (e *Engine) tick(ctx context.Context, now time.Time) error {
	// 1. Per-tick snapshots: settings and the name map.
	values, err := e.repos.Settings.Map(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	cfg := alerting.ParseSettings(values)
	names := e.names.Snapshot()

	// 2. Enabled recorders. None configured is an idle state, not an error.
	nvrs, err := e.repos.NVRs.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list nvrs: %w", err)
	}
	if len(nvrs) == 0 {
		return errNoNVRs
	}

	// 3. Fan out the polls and wait for the stragglers.
	results := e.poller.PollAll(ctx, nvrs)
	for _, res := range results {
		if res.Err != nil {
			metrics.PollsTotal.WithLabelValues("fail").Inc()
		} else {
			metrics.PollsTotal.WithLabelValues("ok").Inc()
		}
	}

	// 4. Reconcile and evaluate alerts inside one transaction, so a tick
	// either lands completely or not at all. Log rows are collected during
	// the transaction and flushed afterwards so they survive a rollback.
	var out *Outcome
	var batches *alerting.Batches
	err = e.repos.WithTx(ctx, func(r *data.Repositories) error {
		var err error
		out, err = reconcile(ctx, r, now, results, names)
		if err != nil {
			return err
		}
		var dirty []*data.Camera
		batches, dirty = alerting.Evaluate(now, out.Observed, out.OutageStarts, cfg)
		for _, cam := range dirty {
			if err := r.Cameras.UpdateAlertState(ctx, cam); err != nil {
				return err
			}
		}
		return nil
	})
	if out != nil {
		e.flushLogs(ctx, now, out.LogRows)
	}
	if err != nil {
		return fmt.Errorf("reconcile tick: %w", err)
	}

	e.observeFleet(out)
	e.publishTransitions(ctx, out.Transitions)

	// 5. Dispatch after the transaction so a notification hiccup can not
	// roll back state the fleet already agreed on.
	e.dispatch(ctx, now, cfg, batches)

	// 6. Top-of-hour summary.
	e.maybeSummary(ctx, now, cfg)

	return nil
}

func (e *Engine) flushLogs(ctx context.Context, now time.Time, rows []LogRow) {
	for _, row := range rows {
		if err := e.repos.Logs.Append(ctx, now, row.Type, row.State, row.Details); err != nil {
			e.log.Error().Err(err).Str("details", row.Details).Msg("could not write tick log")
		}
	}
}

func (e *Engine) observeFleet(out *Outcome) {
	counts := map[string]int{data.StatusOnline: 0, data.StatusOffline: 0}
	for _, cam := range out.Observed {
		counts[cam.Status]++
	}
	for status, count := range counts {
		metrics.CamerasByStatus.WithLabelValues(status).Set(float64(count))
	}
}

func (e *Engine) publishTransitions(ctx context.Context, transitions []events.Transition) {
	for _, tr := range transitions {
		metrics.TransitionsTotal.WithLabelValues(tr.To).Inc()
		if e.publisher == nil {
			continue
		}
		if err := e.publisher.Publish(ctx, tr); err != nil {
			e.log.Warn().Err(err).Int64("camera_id", tr.CameraID).Msg("transition publish failed")
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, now time.Time, cfg alerting.Settings, b *alerting.Batches) {
	e.deliverChat(ctx, now, cfg.Telegram, alerting.ChatOutageHeader, b.ChatOutages)
	e.deliverChat(ctx, now, cfg.Telegram, alerting.ChatRecoveryHeader, b.ChatRecoveries)
	e.deliverMail(ctx, now, cfg.Mail, alerting.MailOutageSubject, b.MailOutages)
	e.deliverMail(ctx, now, cfg.Mail, alerting.MailRecoverySubject, b.MailRecoveries)
}

func (e *Engine) deliverChat(ctx context.Context, now time.Time, cfg alerting.TelegramSettings, header string, lines []string) {
	delivered, err := e.chat.SendBatch(ctx, cfg, header, lines)
	e.logDelivery(ctx, now, "telegram", data.LogTypeTelegram, len(lines), delivered, err)
}

func (e *Engine) deliverMail(ctx context.Context, now time.Time, cfg alerting.MailSettings, subject string, lines []string) {
	delivered, err := e.mail.SendBatch(ctx, cfg, subject, lines)
	e.logDelivery(ctx, now, "mail", data.LogTypeMail, len(lines), delivered, err)
}

func (e *Engine) logDelivery(ctx context.Context, now time.Time, sink, logType string, n int, delivered bool, sendErr error) {
	switch {
	case sendErr != nil:
		metrics.NotificationsTotal.WithLabelValues(sink, "failed").Inc()
		if err := e.repos.Logs.Append(ctx, now, logType, data.StateFailed, sendErr.Error()); err != nil {
			e.log.Error().Err(err).Msg("could not write delivery log")
		}
		e.log.Warn().Err(sendErr).Str("sink", sink).Msg("notification failed")
	case delivered:
		metrics.NotificationsTotal.WithLabelValues(sink, "sent").Inc()
		if err := e.repos.Logs.Append(ctx, now, logType, data.StateSent, fmt.Sprintf("Sent %d alerts", n)); err != nil {
			e.log.Error().Err(err).Msg("could not write delivery log")
		}
	}
}

// maybeSummary posts the hourly downtime digest once per wall-clock hour,
// on the first tick that lands on minute zero. The guard moves even when
// there is nothing to report so the hour is never retried.
func (e *Engine) maybeSummary(ctx context.Context, now time.Time, cfg alerting.Settings) {
	if now.Minute() != 0 || now.Hour() == e.lastSummaryHour {
		return
	}
	e.lastSummaryHour = now.Hour()

	offline, err := e.repos.Cameras.ListByStatus(ctx, data.StatusOffline)
	if err != nil {
		e.log.Warn().Err(err).Msg("summary query failed")
		return
	}
	header, lines := alerting.BuildSummary(now, offline)
	if len(lines) == 0 {
		return
	}

	delivered, err := e.chat.SendBatch(ctx, cfg.Telegram, header, lines)
	switch {
	case err != nil:
		metrics.NotificationsTotal.WithLabelValues("telegram", "failed").Inc()
		if err := e.repos.Logs.Append(ctx, now, data.LogTypeTelegram, data.StateFailed, err.Error()); err != nil {
			e.log.Error().Err(err).Msg("could not write summary log")
		}
	case delivered:
		metrics.NotificationsTotal.WithLabelValues("telegram", "sent").Inc()
		if err := e.repos.Logs.Append(ctx, now, data.LogTypeTelegram, data.StateSent, "Hourly Summary"); err != nil {
			e.log.Error().Err(err).Msg("could not write summary log")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
