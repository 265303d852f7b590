package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/worktracker/internal/config"
	"git.home.luguber.info/inful/worktracker/internal/metrics"
	"git.home.luguber.info/inful/worktracker/internal/retry"
	"git.home.luguber.info/inful/worktracker/internal/tracker"
)

// stopPollSlice bounds each individual wait so a stop request is
// observed within roughly one second even mid-interval.
const stopPollSlice = time.Second

// lastUpdateLayout renders the persisted last_update timestamp in the
// published payload and the human status output.
const lastUpdateLayout = "15:04"

// StatusProvider yields the current status snapshot. The accrual
// engine implements it; the publisher only ever reads.
type StatusProvider interface {
	Status(ctx context.Context, now time.Time) (tracker.Snapshot, error)
}

// statusPayload is the documented wire format.
type statusPayload struct {
	TotalTime  int64  `json:"total_time"`
	Status     string `json:"status"`
	LastUpdate string `json:"last_update"`
}

// Publisher owns a broker session and the periodic publish loop.
type Publisher struct {
	cfg      config.MQTTConfig
	hostID   string
	provider StatusProvider
	client   brokerClient
	recorder metrics.Recorder
	backoff  retry.Policy

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// WithBackoff overrides the reconnect backoff policy.
func WithBackoff(policy retry.Policy) Option {
	return func(p *Publisher) { p.backoff = policy }
}

// withClient substitutes the broker client; used by tests.
func withClient(c brokerClient) Option {
	return func(p *Publisher) { p.client = c }
}

// New creates a publisher for the given immutable configuration and
// host identifier. The host identifier is resolved once at startup by
// the caller, never looked up during formatting.
func New(cfg config.MQTTConfig, hostID string, provider StatusProvider, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		hostID:   hostID,
		provider: provider,
		recorder: metrics.NoopRecorder{},
		backoff:  retry.DefaultPolicy(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = newPahoClient(cfg, hostID)
	}
	return p
}

// Topic returns the status topic for this host.
func (p *Publisher) Topic() string {
	return fmt.Sprintf("%s/%s/status", p.cfg.TopicPrefix, p.hostID)
}

// Connect opens a session to the configured broker. Ordinary
// connectivity failure is reported as false, not an error value.
func (p *Publisher) Connect() bool {
	if err := p.client.Connect(); err != nil {
		slog.Warn("broker connect failed", "broker", p.cfg.BrokerURL(), "error", err)
		p.recorder.SetConnected(false)
		return false
	}
	slog.Info("connected to broker", "broker", p.cfg.BrokerURL(), "topic", p.Topic())
	p.recorder.SetConnected(true)
	return true
}

// Disconnect closes the broker session.
func (p *Publisher) Disconnect() {
	p.client.Disconnect()
	p.recorder.SetConnected(false)
}

// PublishStatus serializes the snapshot and publishes it as a
// retained message at the configured quality of service.
func (p *Publisher) PublishStatus(snapshot tracker.Snapshot) bool {
	payload, err := json.Marshal(statusPayload{
		TotalTime:  snapshot.TotalActiveSeconds,
		Status:     snapshot.StatusLabel,
		LastUpdate: snapshot.LastUpdate.Format(lastUpdateLayout),
	})
	if err != nil {
		slog.Error("marshal status payload", "error", err)
		return false
	}

	start := time.Now()
	err = p.client.Publish(p.Topic(), byte(p.cfg.QoS), true, payload)
	p.recorder.ObservePublishDuration(time.Since(start))
	if err != nil {
		slog.Warn("publish failed", "topic", p.Topic(), "error", err)
		p.recorder.IncPublish(false)
		return false
	}

	p.recorder.IncPublish(true)
	p.recorder.SetLastPublish(time.Now())
	slog.Debug("status published",
		"topic", p.Topic(),
		"status", snapshot.StatusLabel,
		"total_time", snapshot.TotalActiveSeconds)
	return true
}

// Start begins the publish loop: every update_interval it queries the
// status provider and publishes the result. Connection loss is
// retried with bounded exponential backoff; a failed individual
// publish is logged and retried naturally on the next interval. The
// loop only terminates on Stop.
func (p *Publisher) Start() error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("publisher already running")
	}

	p.wg.Add(1)
	go p.run()
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	defer p.running.Store(false)

	attempt := 0
	for {
		if p.stopped() {
			return
		}

		if !p.client.IsConnected() {
			if attempt > 0 {
				p.recorder.IncReconnect()
			}
			if !p.Connect() {
				attempt++
				delay := p.backoff.Delay(attempt)
				slog.Debug("reconnect backoff", "attempt", attempt, "delay", delay)
				if !p.sleep(delay) {
					return
				}
				continue
			}
			attempt = 0
		}

		p.publishOnce()

		if !p.sleep(p.cfg.UpdateIntervalDuration()) {
			return
		}
	}
}

func (p *Publisher) publishOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	snapshot, err := p.provider.Status(ctx, time.Now())
	if err != nil {
		slog.Warn("status query failed, skipping publish", "error", err)
		return
	}
	p.PublishStatus(snapshot)
}

// sleep waits for d in bounded slices, returning false as soon as a
// stop is requested.
func (p *Publisher) sleep(d time.Duration) bool {
	timer := time.NewTimer(stopPollSlice)
	defer timer.Stop()

	for remaining := d; remaining > 0; remaining -= stopPollSlice {
		slice := stopPollSlice
		if remaining < slice {
			slice = remaining
		}
		timer.Reset(slice)
		select {
		case <-p.stopCh:
			return false
		case <-timer.C:
		}
	}
	return !p.stopped()
}

func (p *Publisher) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// Stop requests loop termination and closes the broker session. It is
// idempotent and safe to call from a signal handler's goroutine; the
// loop observes the request within one polling slice.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	p.Disconnect()
}

// IsRunning reports whether the publish loop is alive.
func (p *Publisher) IsRunning() bool {
	return p.running.Load()
}
