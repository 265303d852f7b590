// Package config loads and validates the worktracker configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
)

// Config represents the application configuration
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Tracking TrackingConfig `yaml:"tracking"`
	Database DatabaseConfig `yaml:"database"`
}

// MQTTConfig represents the publisher configuration. It is loaded once
// at construction and immutable for the daemon's lifetime.
type MQTTConfig struct {
	BrokerAddress  string `yaml:"broker_address"`
	Port           int    `yaml:"port"`
	TopicPrefix    string `yaml:"topic_prefix"`
	UpdateInterval int    `yaml:"update_interval"` // seconds
	QoS            int    `yaml:"qos"`             // 0, 1 or 2
	HostID         string `yaml:"host_id,omitempty"`
	MetricsListen  string `yaml:"metrics_listen,omitempty"` // e.g. "127.0.0.1:9188", empty disables
}

// TrackingConfig holds the accrual policy constants.
type TrackingConfig struct {
	IdleThreshold int `yaml:"idle_threshold"` // seconds; below this the session counts as active
	MaxTickGap    int `yaml:"max_tick_gap"`   // seconds; upper bound on one tick's accrued delta
	TickInterval  int `yaml:"tick_interval"`  // seconds; nominal scheduler cadence
	RetentionDays int `yaml:"retention_days"` // daily logs older than this are pruned
}

// DatabaseConfig locates the persisted counter.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

const (
	DefaultIdleThreshold = 300
	DefaultMaxTickGap    = 120
	DefaultTickInterval  = 60
	DefaultRetention     = 370

	DefaultPort           = 1883
	DefaultTopicPrefix    = "worktracker"
	DefaultUpdateInterval = 60
)

// Dir returns the worktracker state directory (~/.worktracker).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".worktracker"), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the specified file. An empty path
// means the default location.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; existing environment wins.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded environment variables from .env")
	}

	if configPath == "" {
		var err error
		configPath, err = DefaultPath()
		if err != nil {
			return nil, werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "locate configuration")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, werrors.ConfigError(fmt.Sprintf("configuration file not found: %s (run 'worktracker install' to create it)", configPath))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "unmarshal config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.MQTT.Port == 0 {
		c.MQTT.Port = DefaultPort
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if c.MQTT.UpdateInterval == 0 {
		c.MQTT.UpdateInterval = DefaultUpdateInterval
	}
	if c.Tracking.IdleThreshold == 0 {
		c.Tracking.IdleThreshold = DefaultIdleThreshold
	}
	if c.Tracking.MaxTickGap == 0 {
		c.Tracking.MaxTickGap = DefaultMaxTickGap
	}
	if c.Tracking.TickInterval == 0 {
		c.Tracking.TickInterval = DefaultTickInterval
	}
	if c.Tracking.RetentionDays == 0 {
		c.Tracking.RetentionDays = DefaultRetention
	}
	if c.Database.Path == "" {
		if dir, err := Dir(); err == nil {
			c.Database.Path = filepath.Join(dir, "worktracker.db")
		}
	}
}

// Validate checks the configuration before any connection or Store
// access is attempted. All violations are fatal.
func (c *Config) Validate() error {
	if c.MQTT.BrokerAddress == "" {
		return werrors.ConfigError("mqtt.broker_address must be set")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return werrors.ConfigError(fmt.Sprintf("mqtt.port out of range: %d", c.MQTT.Port))
	}
	if c.MQTT.UpdateInterval <= 0 {
		return werrors.ConfigError(fmt.Sprintf("mqtt.update_interval must be positive, got %d", c.MQTT.UpdateInterval))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return werrors.ConfigError(fmt.Sprintf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.Tracking.IdleThreshold <= 0 {
		return werrors.ConfigError("tracking.idle_threshold must be positive")
	}
	if c.Tracking.TickInterval <= 0 {
		return werrors.ConfigError("tracking.tick_interval must be positive")
	}
	// A gap bound at or below the nominal cadence would clamp normal operation.
	if c.Tracking.MaxTickGap <= c.Tracking.TickInterval {
		return werrors.ConfigError(fmt.Sprintf("tracking.max_tick_gap (%ds) must exceed tracking.tick_interval (%ds)",
			c.Tracking.MaxTickGap, c.Tracking.TickInterval))
	}
	if c.Tracking.RetentionDays < 1 {
		return werrors.ConfigError("tracking.retention_days must be at least 1")
	}
	return nil
}

// IdleThresholdDuration returns the idle cutoff as a duration.
func (c *TrackingConfig) IdleThresholdDuration() time.Duration {
	return time.Duration(c.IdleThreshold) * time.Second
}

// MaxTickGapDuration returns the per-tick accrual bound as a duration.
func (c *TrackingConfig) MaxTickGapDuration() time.Duration {
	return time.Duration(c.MaxTickGap) * time.Second
}

// UpdateIntervalDuration returns the publish cadence as a duration.
func (c *MQTTConfig) UpdateIntervalDuration() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

// BrokerURL renders the paho broker URL.
func (c *MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.BrokerAddress, c.Port)
}
