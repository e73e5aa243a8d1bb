package supervisor

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
	"github.com/core-tools/hsu-healthmon-go/pkg/observability"
)

// Run is the supervisor daemon entry point: it loads and validates the
// configuration, starts monitoring every enabled target, and blocks until
// a termination signal (or the optional debug run duration) arrives
func Run(runDuration int, configFile string, logger logging.Logger) error {
	logger.Infof("Supervisor runner starting...")

	// Log platform information
	logger.Infof("Platform: OS=%s, Arch=%s, CPUs=%d, Go=%s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.Version())

	// Create separate contexts: one for timeout, one for components
	componentCtx := context.Background()
	operationCtx := componentCtx

	var operationCancel context.CancelFunc
	if runDuration > 0 {
		logger.Infof("Using RUN DURATION of %d seconds", runDuration)
		operationCtx, operationCancel = context.WithTimeout(componentCtx, time.Duration(runDuration)*time.Second)
		defer operationCancel()
	}

	logger.Infof("Using CONFIGURATION FILE: %s", configFile)

	config, err := LoadConfigFromFile(configFile)
	if err != nil {
		return errors.NewIOError("failed to load configuration", err).WithContext("config_file", configFile)
	}

	if err := ValidateConfig(config); err != nil {
		return errors.NewValidationError("configuration validation failed", err).WithContext("config_file", configFile)
	}

	summary := GetConfigSummary(config)
	logger.Infof("Configuration loaded successfully from %s", configFile)
	logger.Infof("Monitored targets: %d total, %d enabled, metrics port: %d",
		summary.TotalTargets, summary.EnabledTargets, summary.MetricsPort)

	manager := NewManager(logger)

	var metricsServer *observability.MetricsServer
	if config.Supervisor.MetricsPort > 0 {
		metrics, err := observability.NewHealthMetrics()
		if err != nil {
			return errors.NewInternalError("failed to create health metrics", err)
		}
		manager.SetHealthMetrics(metrics)

		metricsServer = observability.NewMetricsServer(config.Supervisor.MetricsPort, metrics, logger)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	for _, target := range config.MonitoredTargets {
		// Skip disabled targets (only skip if explicitly set to false)
		if target.Enabled != nil && !*target.Enabled {
			logger.Infof("Skipping disabled target, id: %s", target.ID)
			continue
		}
		if err := manager.AddTarget(target); err != nil {
			return errors.NewValidationError("failed to add target", err).WithContext("target_id", target.ID)
		}
	}

	if err := manager.Start(componentCtx); err != nil {
		return errors.NewInternalError("failed to start supervisor", err)
	}

	WaitSignals(operationCtx, logger)

	logger.Infof("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(componentCtx, config.Supervisor.ForceShutdownTimeout)
	defer shutdownCancel()

	shutdownErrors := errors.NewErrorCollection()
	shutdownErrors.Add(manager.Stop(shutdownCtx))
	if metricsServer != nil {
		shutdownErrors.Add(metricsServer.Shutdown(shutdownCtx))
	}

	if err := shutdownErrors.ToError(); err != nil {
		logger.Errorf("Shutdown finished with errors: %v", err)
		return err
	}

	logger.Infof("Supervisor runner finished")
	return nil
}
