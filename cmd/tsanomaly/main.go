// Package main is the entry point for the anomaly detection workbench.
package main

import (
	"errors"
	"os"
	"time"

	"tsanomaly/application"
	"tsanomaly/core/eventbus"
	"tsanomaly/infrastructure/config"
	"tsanomaly/infrastructure/logging"
	"tsanomaly/presentation"
	"tsanomaly/resources"

	"fyne.io/fyne/v2/app"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(2)
	}

	// Initialize logging (dev: console only, prod: rotating file)
	logger, closeLog, err := logging.Setup(cfg.LoggingConfig())
	if err != nil {
		// Fallback to stderr if logging setup fails
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting Anomaly Detection in Time Series", "config_file", cfg.File)

	eventBus := eventbus.New(cfg.EventBus.Buffer, eventbus.WithLogger(logger))
	defer eventBus.Close()

	// The processing context is built in the background; consumers get the
	// holder and wait on its readiness instead of reading a global.
	holder := application.NewContextHolder(&application.HolderConfig{
		Processing: cfg.ProcessingConfig(),
		EventBus:   eventBus,
		Logger:     logger,
	})
	coordinator := application.NewCoordinator(&application.CoordinatorConfig{
		Holder:   holder,
		EventBus: eventBus,
		Logger:   logger,
	})
	defer coordinator.Stop()

	// UI subscribes before the context starts so no state change is missed.
	bridge := presentation.NewUIEventBridge(&presentation.BridgeConfig{
		Coordinator: coordinator,
		EventBus:    eventBus,
		Logger:      logger,
	})
	defer bridge.Close()

	fyneApp := app.NewWithID(cfg.UI.AppID)
	fyneApp.SetIcon(resources.GetAppIcon())

	shell := presentation.NewShell(&presentation.ShellConfig{
		App:        fyneApp,
		Resources:  resources.Layouts,
		LayoutPath: cfg.UI.LayoutPath,
		Bridge:     bridge,
		Logger:     logger,
	})

	coordinator.Start()

	// Launch has already logged the failure.
	if _, err := shell.Launch(); err != nil {
		if cfg.UI.ExitOnMissingLayout {
			coordinator.Stop()
			closeLog()
			os.Exit(1)
		}
		logger.Debug("Continuing without a main window", "error", err)
	}

	fyneApp.Run()

	// Start shutdown timeout - force exit after 10 seconds if cleanup hangs
	go func() {
		time.Sleep(10 * time.Second)
		logger.Warn("Shutdown timeout, forcing exit")
		os.Exit(0)
	}()

	logger.Info("Application shutdown complete")
}
