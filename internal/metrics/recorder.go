// Package metrics defines observability hooks for the publisher loop.
package metrics

import "time"

// Recorder defines observability hooks for the publish loop.
// Implementations may forward to Prometheus, etc. The NoopRecorder is
// the default when no metrics listener is configured.
type Recorder interface {
	IncPublish(success bool)
	IncReconnect()
	SetConnected(connected bool)
	ObservePublishDuration(d time.Duration)
	SetLastPublish(t time.Time)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncPublish(bool)                    {}
func (NoopRecorder) IncReconnect()                      {}
func (NoopRecorder) SetConnected(bool)                  {}
func (NoopRecorder) ObservePublishDuration(time.Duration) {}
func (NoopRecorder) SetLastPublish(time.Time)           {}
