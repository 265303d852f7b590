// Package service manages the systemd user units that schedule the
// accrual tick: a oneshot service invoked by a per-minute timer.
package service

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	sdunit "github.com/coreos/go-systemd/v22/unit"
)

const (
	serviceUnit = "worktracker.service"
	timerUnit   = "worktracker.timer"
)

// commandRunner abstracts systemctl execution for tests.
type commandRunner interface {
	run(args ...string) error
	output(args ...string) (string, error)
}

type systemctlRunner struct{}

func (systemctlRunner) run(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run()
}

func (systemctlRunner) output(args ...string) (string, error) {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

// Manager installs and controls the worktracker timer units.
type Manager struct {
	unitDir string
	runner  commandRunner
}

// NewManager creates a manager for the current user's unit directory.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Manager{
		unitDir: filepath.Join(home, ".config", "systemd", "user"),
		runner:  systemctlRunner{},
	}, nil
}

// InstallTimer writes the service and timer unit files. The service
// runs `worktracker update` once; the timer fires it every minute.
func (m *Manager) InstallTimer() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	if err := os.MkdirAll(m.unitDir, 0o755); err != nil {
		return fmt.Errorf("create unit directory: %w", err)
	}

	service := []*sdunit.UnitOption{
		sdunit.NewUnitOption("Unit", "Description", "worktracker active-time accrual tick"),
		sdunit.NewUnitOption("Service", "Type", "oneshot"),
		sdunit.NewUnitOption("Service", "ExecStart", executable+" update"),
	}
	if err := m.writeUnit(serviceUnit, service); err != nil {
		return err
	}

	timer := []*sdunit.UnitOption{
		sdunit.NewUnitOption("Unit", "Description", "Run worktracker update every minute"),
		sdunit.NewUnitOption("Timer", "OnCalendar", "*-*-* *:*:00"),
		sdunit.NewUnitOption("Timer", "Persistent", "false"),
		sdunit.NewUnitOption("Install", "WantedBy", "timers.target"),
	}
	return m.writeUnit(timerUnit, timer)
}

func (m *Manager) writeUnit(name string, opts []*sdunit.UnitOption) error {
	data, err := io.ReadAll(sdunit.Serialize(opts))
	if err != nil {
		return fmt.Errorf("serialize %s: %w", name, err)
	}
	path := filepath.Join(m.unitDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// UninstallTimer removes the unit files.
func (m *Manager) UninstallTimer() error {
	for _, name := range []string{timerUnit, serviceUnit} {
		path := filepath.Join(m.unitDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// IsTimerInstalled reports whether the timer unit file exists.
func (m *Manager) IsTimerInstalled() bool {
	_, err := os.Stat(filepath.Join(m.unitDir, timerUnit))
	return err == nil
}

// ReloadDaemon asks systemd to re-read unit files.
func (m *Manager) ReloadDaemon() bool {
	return m.runner.run("daemon-reload") == nil
}

// EnableTimer enables the timer unit.
func (m *Manager) EnableTimer() bool {
	return m.runner.run("enable", timerUnit) == nil
}

// DisableTimer disables the timer unit.
func (m *Manager) DisableTimer() bool {
	return m.runner.run("disable", timerUnit) == nil
}

// StartTimer starts the timer unit.
func (m *Manager) StartTimer() bool {
	return m.runner.run("start", timerUnit) == nil
}

// StopTimer stops the timer unit.
func (m *Manager) StopTimer() bool {
	return m.runner.run("stop", timerUnit) == nil
}

// IsTimerRunning reports whether the timer unit is active.
func (m *Manager) IsTimerRunning() bool {
	out, err := m.runner.output("is-active", timerUnit)
	return err == nil && out == "active"
}

// IsTimerEnabled reports whether the timer unit is enabled.
func (m *Manager) IsTimerEnabled() bool {
	out, err := m.runner.output("is-enabled", timerUnit)
	return err == nil && out == "enabled"
}
