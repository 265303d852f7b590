// Package tracker implements the accrual engine: it turns session
// idle samples into clamped time deltas on the persisted daily
// counter.
//
// The engine keeps no state of its own. Every invocation re-derives
// active/idle from a live idle sample and the stored DailyLog, so the
// process-per-tick model needs nothing in memory between ticks.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/worktracker/internal/idle"
	"git.home.luguber.info/inful/worktracker/internal/store"
)

// Status labels reported by Status and published to the broker.
const (
	StatusActive = "active"
	StatusIdle   = "idle"
)

// Snapshot is the value returned by status queries and published to
// the broker.
type Snapshot struct {
	StatusLabel        string
	TotalActiveSeconds int64
	LastUpdate         time.Time
}

// Engine decides active/idle per tick and advances the Store.
type Engine struct {
	store         *store.Store
	source        idle.Source
	idleThreshold time.Duration
	maxTickGap    time.Duration
}

// New constructs an engine from explicit inputs. idleThreshold is the
// idle duration above which a session no longer counts as active;
// maxTickGap bounds the delta credited by a single tick.
func New(s *store.Store, src idle.Source, idleThreshold, maxTickGap time.Duration) *Engine {
	return &Engine{
		store:         s,
		source:        src,
		idleThreshold: idleThreshold,
		maxTickGap:    maxTickGap,
	}
}

// active derives the tick state from a sample. A locked session never
// counts as active.
func (e *Engine) active(sample idle.Sample) bool {
	return !sample.Locked && sample.IdleDuration < e.idleThreshold
}

// clamp bounds elapsed to [0, maxTickGap]. A suspend, a delayed timer
// or the first tick after row creation must not be credited as hours
// of activity.
func (e *Engine) clamp(elapsed time.Duration) time.Duration {
	if elapsed < 0 {
		return 0
	}
	if elapsed > e.maxTickGap {
		return e.maxTickGap
	}
	return elapsed
}

// Update performs one accrual tick: sample the session, clamp the
// time since the last write, and advance today's total if the session
// is active.
//
// A failed idle query degrades to idle (the counter is never inflated
// on a guess) but still advances last_update so later ticks are not
// penalized by the gap; it is logged as a warning, not returned.
// Store failures are returned; the caller exits non-zero and the next
// scheduled tick retries naturally.
func (e *Engine) Update(ctx context.Context, now time.Time) (Snapshot, error) {
	isActive := false
	sample, err := e.source.Query(ctx)
	if err != nil {
		slog.Warn("idle query failed, treating tick as idle", "error", err)
	} else {
		isActive = e.active(sample)
	}

	log, err := e.store.GetToday(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}

	elapsed := e.clamp(now.Sub(log.LastUpdate))
	newTotal := log.TotalActive
	if isActive {
		newTotal += elapsed
	}

	if err := e.store.UpsertToday(ctx, now, newTotal, log.TotalActive); err != nil {
		return Snapshot{}, err
	}

	slog.Debug("tick recorded",
		"active", isActive,
		"elapsed", elapsed,
		"total", newTotal,
		"date", log.Date)

	return Snapshot{
		StatusLabel:        label(isActive),
		TotalActiveSeconds: int64(newTotal / time.Second),
		LastUpdate:         now,
	}, nil
}

// Status answers a read-only status query: a live idle sample plus
// the stored totals. It never writes a new total and is safe to call
// arbitrarily often.
func (e *Engine) Status(ctx context.Context, now time.Time) (Snapshot, error) {
	isActive := false
	sample, err := e.source.Query(ctx)
	if err != nil {
		slog.Warn("idle query failed, reporting idle", "error", err)
	} else {
		isActive = e.active(sample)
	}

	log, err := e.store.GetToday(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		StatusLabel:        label(isActive),
		TotalActiveSeconds: log.TotalActiveSeconds(),
		LastUpdate:         log.LastUpdate,
	}, nil
}

func label(active bool) string {
	if active {
		return StatusActive
	}
	return StatusIdle
}
