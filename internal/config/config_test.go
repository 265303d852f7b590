package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_address: "10.0.0.5"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "10.0.0.5", cfg.MQTT.BrokerAddress)
	require.Equal(t, DefaultPort, cfg.MQTT.Port)
	require.Equal(t, DefaultTopicPrefix, cfg.MQTT.TopicPrefix)
	require.Equal(t, DefaultUpdateInterval, cfg.MQTT.UpdateInterval)
	require.Equal(t, 0, cfg.MQTT.QoS) // QoS 0 when omitted
	require.Equal(t, DefaultIdleThreshold, cfg.Tracking.IdleThreshold)
	require.Equal(t, DefaultMaxTickGap, cfg.Tracking.MaxTickGap)
	require.Equal(t, DefaultRetention, cfg.Tracking.RetentionDays)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker_address: "broker.lan"
  port: 8883
  topic_prefix: "office"
  update_interval: 30
  qos: 2
tracking:
  idle_threshold: 240
  max_tick_gap: 90
  tick_interval: 30
  retention_days: 30
database:
  path: "/tmp/wt-test.db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8883, cfg.MQTT.Port)
	require.Equal(t, 2, cfg.MQTT.QoS)
	require.Equal(t, 30*time.Second, cfg.MQTT.UpdateIntervalDuration())
	require.Equal(t, "tcp://broker.lan:8883", cfg.MQTT.BrokerURL())
	require.Equal(t, 240*time.Second, cfg.Tracking.IdleThresholdDuration())
	require.Equal(t, 90*time.Second, cfg.Tracking.MaxTickGapDuration())
	require.Equal(t, "/tmp/wt-test.db", cfg.Database.Path)
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.True(t, werrors.IsCategory(err, werrors.CategoryConfig))
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing broker", `
mqtt:
  port: 1883
`},
		{"bad port", `
mqtt:
  broker_address: "x"
  port: 70000
`},
		{"bad qos", `
mqtt:
  broker_address: "x"
  qos: 3
`},
		{"negative interval", `
mqtt:
  broker_address: "x"
  update_interval: -5
`},
		{"gap below cadence", `
mqtt:
  broker_address: "x"
tracking:
  tick_interval: 60
  max_tick_gap: 60
`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.yaml))
			require.Error(t, err)
			require.True(t, werrors.IsCategory(err, werrors.CategoryConfig), "got %v", err)
		})
	}
}

func TestEnvExpansionInConfig(t *testing.T) {
	t.Setenv("WT_TEST_BROKER", "env-broker.lan")
	path := writeConfig(t, `
mqtt:
  broker_address: "${WT_TEST_BROKER}"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-broker.lan", cfg.MQTT.BrokerAddress)
}

func TestCreateDefaultKeepsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := CreateDefault()
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  broker_address: kept\n"), 0o644))
	again, err := CreateDefault()
	require.NoError(t, err)
	require.Equal(t, path, again)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "kept")
}
