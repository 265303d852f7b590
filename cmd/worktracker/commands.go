package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/worktracker/internal/config"
	"git.home.luguber.info/inful/worktracker/internal/daemon"
	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
	"git.home.luguber.info/inful/worktracker/internal/homeassistant"
	"git.home.luguber.info/inful/worktracker/internal/idle"
	"git.home.luguber.info/inful/worktracker/internal/metrics"
	"git.home.luguber.info/inful/worktracker/internal/mqtt"
	"git.home.luguber.info/inful/worktracker/internal/service"
	"git.home.luguber.info/inful/worktracker/internal/store"
	"git.home.luguber.info/inful/worktracker/internal/tracker"
)

// openEngine loads configuration and assembles the store-backed
// accrual engine. The caller owns closing the returned store.
func openEngine() (*config.Config, *store.Store, *tracker.Engine, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	engine := tracker.New(st, idle.NewLogindSource(),
		cfg.Tracking.IdleThresholdDuration(),
		cfg.Tracking.MaxTickGapDuration())
	return cfg, st, engine, nil
}

// hostIdentifier resolves the host identity once at startup.
func hostIdentifier(cfg *config.Config) (string, error) {
	if cfg.MQTT.HostID != "" {
		return cfg.MQTT.HostID, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "", werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "resolve hostname")
	}
	return hostname, nil
}

// formatHM renders whole seconds as HH:MM.
func formatHM(totalSeconds int64) string {
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func runInstall() error {
	fmt.Println("Installing worktracker...")

	// Initialize database
	cfgDir, err := config.Dir()
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "locate state directory")
	}
	st, err := store.New(filepath.Join(cfgDir, "worktracker.db"))
	if err != nil {
		return err
	}
	_ = st.Close()
	fmt.Println("✓ Database initialized")

	// Create default config file if it doesn't exist
	configPath, err := config.CreateDefault()
	if err != nil {
		fmt.Printf("WARNING: Failed to create configuration file: %v\n", err)
	} else {
		fmt.Printf("✓ Configuration file: %s\n", configPath)
		fmt.Println("  NOTE: Please edit the file to set your MQTT broker address")
	}

	mgr, err := service.NewManager()
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "create service manager")
	}
	if err := mgr.InstallTimer(); err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "install systemd timer")
	}
	fmt.Println("✓ Timer files installed")

	if !mgr.ReloadDaemon() {
		fmt.Println("WARNING: Failed to reload systemd daemon")
	} else {
		fmt.Println("✓ Systemd daemon reloaded")
	}
	if !mgr.EnableTimer() {
		return werrors.ConfigError("failed to enable timer")
	}
	fmt.Println("✓ Timer enabled")
	if !mgr.StartTimer() {
		return werrors.ConfigError("failed to start timer")
	}
	fmt.Println("✓ Timer started")

	fmt.Println()
	fmt.Println("worktracker has been installed and started successfully!")
	fmt.Println("The timer will update your working time every minute.")
	return nil
}

func runUninstall() error {
	fmt.Println("Uninstalling worktracker...")

	mgr, err := service.NewManager()
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "create service manager")
	}
	if !mgr.IsTimerInstalled() {
		fmt.Println("Timer is not installed. Nothing to uninstall.")
		return nil
	}

	if mgr.IsTimerRunning() {
		if !mgr.StopTimer() {
			fmt.Println("WARNING: Failed to stop timer")
		} else {
			fmt.Println("✓ Timer stopped")
		}
	}
	if mgr.IsTimerEnabled() {
		if !mgr.DisableTimer() {
			fmt.Println("WARNING: Failed to disable timer")
		} else {
			fmt.Println("✓ Timer disabled")
		}
	}
	if err := mgr.UninstallTimer(); err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "remove timer files")
	}
	fmt.Println("✓ Timer files removed")

	if !mgr.ReloadDaemon() {
		fmt.Println("WARNING: Failed to reload systemd daemon")
	} else {
		fmt.Println("✓ Systemd daemon reloaded")
	}

	fmt.Println()
	fmt.Println("worktracker has been uninstalled successfully!")
	fmt.Println("Note: files in ~/.worktracker/ were not removed.")
	return nil
}

func runStart() error {
	fmt.Println("Starting worktracker timer...")

	mgr, err := service.NewManager()
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "create service manager")
	}
	if !mgr.IsTimerInstalled() {
		fmt.Println("ERROR: Timer is not installed")
		fmt.Println("Run 'worktracker install' to set up the timer first.")
		return werrors.ConfigError("timer not installed")
	}
	if !mgr.StartTimer() {
		return werrors.ConfigError("failed to start timer")
	}
	fmt.Println("✓ Timer started")

	if !mgr.IsTimerEnabled() {
		if mgr.EnableTimer() {
			fmt.Println("✓ Timer enabled (will run automatically)")
		} else {
			fmt.Println("WARNING: Timer started but failed to enable")
		}
	}
	fmt.Println("worktracker timer is now running.")
	return nil
}

func runStop() error {
	fmt.Println("Stopping worktracker timer...")

	mgr, err := service.NewManager()
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "create service manager")
	}
	if !mgr.IsTimerInstalled() {
		return werrors.ConfigError("timer is not installed")
	}
	if !mgr.StopTimer() {
		return werrors.ConfigError("failed to stop timer")
	}
	if !mgr.DisableTimer() {
		fmt.Println("WARNING: Failed to disable timer")
	} else {
		fmt.Println("✓ Timer stopped and disabled")
	}
	fmt.Println("worktracker timer has been stopped.")
	return nil
}

func runStatus() error {
	mgr, err := service.NewManager()
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryConfig, werrors.SeverityFatal, "create service manager")
	}
	if !mgr.IsTimerInstalled() {
		fmt.Println("Timer status: Not installed")
		fmt.Println()
		fmt.Println("Run 'worktracker install' to set up tracking.")
		return werrors.ConfigError("timer not installed")
	}

	fmt.Println("Timer status:")
	fmt.Println("  Installed: Yes")
	fmt.Printf("  Enabled: %s\n", yesNo(mgr.IsTimerEnabled()))
	fmt.Printf("  Running: %s\n", yesNo(mgr.IsTimerRunning()))

	_, st, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	snapshot, err := engine.Status(context.Background(), time.Now())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Current state:")
	fmt.Printf("  Status: %s\n", snapshot.StatusLabel)

	fmt.Println()
	fmt.Println("Today's summary:")
	fmt.Printf("  Total active time: %s\n", formatHM(snapshot.TotalActiveSeconds))
	fmt.Printf("  Last update: %s\n", snapshot.LastUpdate.Format("15:04"))
	return nil
}

func runUpdate() error {
	_, st, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	_, err = engine.Update(context.Background(), time.Now())
	return err
}

func runMQTTStart() error {
	fmt.Println("Starting MQTT publisher...")

	cfg, st, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	hostID, err := hostIdentifier(cfg)
	if err != nil {
		return err
	}

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	var promRecorder *metrics.PrometheusRecorder
	if cfg.MQTT.MetricsListen != "" {
		promRecorder = metrics.NewPrometheusRecorder(nil)
		recorder = promRecorder
	}

	publisher := mqtt.New(cfg.MQTT, hostID, engine, mqtt.WithRecorder(recorder))

	var metricsHandler http.Handler
	if promRecorder != nil {
		metricsHandler = promRecorder.Handler()
	}

	d, err := daemon.New(publisher, st, cfg.Tracking.RetentionDays, cfg.MQTT.MetricsListen, metricsHandler)
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryInternal, werrors.SeverityFatal, "assemble daemon")
	}

	if err := d.Start(); err != nil {
		return werrors.Wrap(err, werrors.CategoryInternal, werrors.SeverityFatal, "start publisher daemon")
	}
	fmt.Println("✓ MQTT publisher started")
	fmt.Println("Press Ctrl+C to stop...")

	// The signal handler only cancels; all teardown happens below.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d.Wait(ctx)
	fmt.Println("\nStopping MQTT publisher...")
	d.Stop()
	return nil
}

func runMQTTStop() error {
	fmt.Println("Stopping MQTT publisher...")
	fmt.Println("NOTE: If the publisher is running in another terminal, use Ctrl+C there,")
	fmt.Println("      or stop its systemd unit if you created one.")
	return nil
}

func runMQTTStatus() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	fmt.Println("MQTT Configuration:")
	fmt.Printf("  Broker: %s:%d\n", cfg.MQTT.BrokerAddress, cfg.MQTT.Port)
	fmt.Printf("  Topic prefix: %s\n", cfg.MQTT.TopicPrefix)
	fmt.Printf("  Update interval: %ds\n", cfg.MQTT.UpdateInterval)
	fmt.Printf("  QoS: %d\n", cfg.MQTT.QoS)

	fmt.Println()
	fmt.Println("NOTE: Use 'worktracker mqtt start' to run the publisher.")
	return nil
}

func runMQTTPublish() error {
	fmt.Println("Publishing status to MQTT broker...")

	cfg, st, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	hostID, err := hostIdentifier(cfg)
	if err != nil {
		return err
	}

	publisher := mqtt.New(cfg.MQTT, hostID, engine)
	if !publisher.Connect() {
		return werrors.NetworkError(nil, "failed to connect to MQTT broker")
	}
	defer publisher.Disconnect()

	snapshot, err := engine.Status(context.Background(), time.Now())
	if err != nil {
		return err
	}
	if !publisher.PublishStatus(snapshot) {
		return werrors.NetworkError(nil, "failed to publish status")
	}

	fmt.Println("✓ Status published successfully")
	return nil
}

func runHAConfig(hostname string) error {
	cfg, err := config.Load(CLI.Config)
	prefix := config.DefaultTopicPrefix
	if err == nil {
		prefix = cfg.MQTT.TopicPrefix
	}

	yamlConfig, err := homeassistant.GenerateYAMLConfig(hostname, prefix)
	if err != nil {
		return werrors.Wrap(err, werrors.CategoryInternal, werrors.SeverityFatal, "generate Home Assistant config")
	}
	fmt.Print(yamlConfig)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
