package service

import (
	sddaemon "github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells systemd the publisher daemon is up. A false return
// just means there is no NOTIFY_SOCKET (not started by systemd).
func NotifyReady() bool {
	ok, _ := sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
	return ok
}

// NotifyStopping tells systemd the publisher daemon is shutting down.
func NotifyStopping() bool {
	ok, _ := sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)
	return ok
}
