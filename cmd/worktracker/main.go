package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Install struct {
	} `cmd:"" help:"Initialize the database, write a default configuration and install the systemd timer"`

	Uninstall struct {
	} `cmd:"" help:"Stop the timer and remove its unit files"`

	Start struct {
	} `cmd:"" help:"Start the worktracker timer"`

	Stop struct {
	} `cmd:"" help:"Stop the worktracker timer"`

	Status struct {
	} `cmd:"" help:"Show timer state, live status and today's summary"`

	Update struct {
	} `cmd:"" hidden:"" help:"Record one accrual tick (invoked by the systemd timer)"`

	Mqtt struct {
		Start struct {
		} `cmd:"" help:"Run the MQTT publisher daemon"`
		Stop struct {
		} `cmd:"" help:"Stop the MQTT publisher daemon"`
		Status struct {
		} `cmd:"" help:"Show the MQTT publisher configuration without connecting"`
		Publish struct {
		} `cmd:"" help:"Connect, publish the current status once and disconnect"`
	} `cmd:"" help:"MQTT publisher commands"`

	HaConfig struct {
		Hostname string `help:"Hostname to embed in the sensor config (default: this machine)"`
	} `cmd:"" help:"Print Home Assistant MQTT sensor configuration"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("worktracker"),
		kong.Description("Track daily active session time and publish it over MQTT."))

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := werrors.NewCLIErrorAdapter(logger)

	var err error
	switch ctx.Command() {
	case "install":
		err = runInstall()
	case "uninstall":
		err = runUninstall()
	case "start":
		err = runStart()
	case "stop":
		err = runStop()
	case "status":
		err = runStatus()
	case "update":
		err = runUpdate()
	case "mqtt start":
		err = runMQTTStart()
	case "mqtt stop":
		err = runMQTTStop()
	case "mqtt status":
		err = runMQTTStatus()
	case "mqtt publish":
		err = runMQTTPublish()
	case "ha-config":
		err = runHAConfig(CLI.HaConfig.Hostname)
	default:
		_ = ctx.PrintUsage(false)
		os.Exit(1)
	}

	if err != nil {
		os.Exit(adapter.Report(err))
	}
}
