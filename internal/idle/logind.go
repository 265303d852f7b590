package idle

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"

	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
)

const (
	login1Dest    = "org.freedesktop.login1"
	sessionIface  = "org.freedesktop.login1.Session"
	autoSession   = dbus.ObjectPath("/org/freedesktop/login1/session/auto")
	queryDeadline = 2 * time.Second
)

// LogindSource reads idle state from systemd-logind over D-Bus, using
// the caller's own session ("auto").
type LogindSource struct {
	clock func() time.Time
}

// NewLogindSource creates an idle source backed by systemd-logind.
func NewLogindSource() *LogindSource {
	return &LogindSource{clock: time.Now}
}

// Query reads IdleHint, IdleSinceHint and LockedHint from the current
// session. Any D-Bus failure is reported as an IdleSourceError; the
// caller degrades to idle.
func (s *LogindSource) Query(ctx context.Context) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, queryDeadline)
	defer cancel()

	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return Sample{}, werrors.IdleSourceError(err, "connect system bus")
	}
	defer conn.Close()

	obj := conn.Object(login1Dest, autoSession)

	idleHint, err := obj.GetProperty(sessionIface + ".IdleHint")
	if err != nil {
		return Sample{}, werrors.IdleSourceError(err, "read IdleHint")
	}
	lockedHint, err := obj.GetProperty(sessionIface + ".LockedHint")
	if err != nil {
		return Sample{}, werrors.IdleSourceError(err, "read LockedHint")
	}

	sample := Sample{}
	if locked, ok := lockedHint.Value().(bool); ok {
		sample.Locked = locked
	}

	isIdle, _ := idleHint.Value().(bool)
	if isIdle {
		since, err := obj.GetProperty(sessionIface + ".IdleSinceHint")
		if err != nil {
			return Sample{}, werrors.IdleSourceError(err, "read IdleSinceHint")
		}
		// IdleHint set with no usable timestamp still counts as idle.
		sample.IdleDuration = 24 * time.Hour
		if usec, ok := since.Value().(uint64); ok && usec > 0 {
			if d := s.clock().Sub(time.UnixMicro(int64(usec))); d > 0 {
				sample.IdleDuration = d
			}
		}
	}

	return sample, nil
}
