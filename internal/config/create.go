package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigTemplate = `# worktracker configuration
mqtt:
  # Address of your MQTT broker (e.g. the Home Assistant host). REQUIRED.
  broker_address: "192.168.1.100"
  port: 1883
  topic_prefix: "worktracker"
  # Seconds between status publishes.
  update_interval: 60
  # MQTT quality of service: 0, 1 or 2.
  qos: 1

tracking:
  # Session counts as active while idle time is below this (seconds).
  idle_threshold: 300
  # Upper bound on the time credited by a single tick (seconds).
  # Must exceed tick_interval; bounds error from suspend/resume.
  max_tick_gap: 120
  # Nominal cadence of the systemd timer (seconds).
  tick_interval: 60
  # Daily logs older than this many days are pruned by the daemon.
  retention_days: 370
`

// CreateDefault writes the default configuration file if it does not
// already exist and returns its path.
func CreateDefault() (string, error) {
	path, err := DefaultPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil // keep the existing file
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return "", fmt.Errorf("write default config: %w", err)
	}
	return path, nil
}
