// Package daemon wires the long-lived publisher process: the publish
// loop, a daily store-maintenance job and an optional metrics
// listener.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/worktracker/internal/mqtt"
	"git.home.luguber.info/inful/worktracker/internal/service"
	"git.home.luguber.info/inful/worktracker/internal/store"
)

// pruneAt is the local time of day the retention job runs; chosen to
// sit well away from midnight so it never races a day rollover tick.
var pruneAt = gocron.NewAtTime(3, 17, 0)

// Daemon runs the publisher with its supporting jobs.
type Daemon struct {
	publisher     *mqtt.Publisher
	store         *store.Store
	retentionDays int
	scheduler     gocron.Scheduler

	metricsServer *http.Server
}

// New assembles a daemon. metricsListen may be empty to disable the
// metrics endpoint; metricsHandler is ignored in that case.
func New(publisher *mqtt.Publisher, st *store.Store, retentionDays int, metricsListen string, metricsHandler http.Handler) (*Daemon, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	d := &Daemon{
		publisher:     publisher,
		store:         st,
		retentionDays: retentionDays,
		scheduler:     scheduler,
	}

	if metricsListen != "" && metricsHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		d.metricsServer = &http.Server{Addr: metricsListen, Handler: mux}
	}

	return d, nil
}

// Start launches the publish loop, schedules the daily prune and, if
// configured, serves metrics. It notifies systemd once everything is
// up.
func (d *Daemon) Start() error {
	if err := d.publisher.Start(); err != nil {
		return err
	}

	_, err := d.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(pruneAt)),
		gocron.NewTask(d.pruneOldLogs),
		gocron.WithName("daily-prune"),
	)
	if err != nil {
		d.publisher.Stop()
		return fmt.Errorf("schedule prune job: %w", err)
	}
	d.scheduler.Start()

	if d.metricsServer != nil {
		go func() {
			slog.Info("metrics listener started", "addr", d.metricsServer.Addr)
			if err := d.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
	}

	service.NotifyReady()
	return nil
}

// Wait blocks until the context is canceled or the publish loop dies.
func (d *Daemon) Wait(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.publisher.IsRunning() {
				return
			}
		}
	}
}

// Stop shuts everything down in reverse order. Safe to call more than
// once.
func (d *Daemon) Stop() {
	service.NotifyStopping()

	d.publisher.Stop()

	if err := d.scheduler.Shutdown(); err != nil {
		slog.Warn("scheduler shutdown", "error", err)
	}

	if d.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Shutdown(ctx); err != nil {
			slog.Warn("metrics listener shutdown", "error", err)
		}
	}
}

// pruneOldLogs removes DailyLog rows older than the retention window.
func (d *Daemon) pruneOldLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -d.retentionDays)
	n, err := d.store.PruneBefore(ctx, cutoff)
	if err != nil {
		slog.Warn("daily prune failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("pruned old daily logs", "removed", n, "cutoff", cutoff.Format(store.DateLayout))
	}
}
