package supervisor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/monitoring"
)

// SupervisorConfig represents the top-level configuration file structure
type SupervisorConfig struct {
	Supervisor       SupervisorConfigOptions `yaml:"supervisor"`
	MonitoredTargets []TargetConfig          `yaml:"monitored_targets"`
}

// SupervisorConfigOptions represents supervisor-level configuration
type SupervisorConfigOptions struct {
	LogLevel             string        `yaml:"log_level,omitempty"`
	MetricsPort          int           `yaml:"metrics_port,omitempty"` // 0 disables the metrics endpoint
	ForceShutdownTimeout time.Duration `yaml:"force_shutdown_timeout,omitempty"`
}

// TargetMetadata describes a monitored target
type TargetMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// RestartCommandConfig is the corrective action run when a target becomes
// unhealthy. Restart policy belongs to the supervisor, never to the
// monitored process
type RestartCommandConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// TargetConfig represents a single monitored target
type TargetConfig struct {
	ID             string                       `yaml:"id"`
	Enabled        *bool                        `yaml:"enabled,omitempty"` // pointer to distinguish unset from false
	Metadata       TargetMetadata               `yaml:"metadata"`
	HealthCheck    monitoring.HealthCheckConfig `yaml:"health_check"`
	RestartCommand *RestartCommandConfig        `yaml:"restart_command,omitempty"`
}

const defaultForceShutdownTimeout = 30 * time.Second
const defaultRestartCommandTimeout = 30 * time.Second

// LoadConfigFromFile loads supervisor configuration from a YAML file
func LoadConfigFromFile(filename string) (*SupervisorConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	var config SupervisorConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config)

	return &config, nil
}

func setConfigDefaults(config *SupervisorConfig) {
	if config.Supervisor.ForceShutdownTimeout == 0 {
		config.Supervisor.ForceShutdownTimeout = defaultForceShutdownTimeout
	}
	if config.Supervisor.LogLevel == "" {
		config.Supervisor.LogLevel = "info"
	}

	for i := range config.MonitoredTargets {
		target := &config.MonitoredTargets[i]
		monitoring.SetHealthCheckConfigDefaults(&target.HealthCheck)
		if target.RestartCommand != nil && target.RestartCommand.Timeout == 0 {
			target.RestartCommand.Timeout = defaultRestartCommandTimeout
		}
	}
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *SupervisorConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.Supervisor.MetricsPort < 0 || config.Supervisor.MetricsPort > 65535 {
		return errors.NewValidationError("metrics port out of range", nil).WithContext("port", config.Supervisor.MetricsPort)
	}

	if len(config.MonitoredTargets) == 0 {
		return errors.NewValidationError("configuration must declare at least one monitored target", nil)
	}

	seen := make(map[string]bool)
	for i, target := range config.MonitoredTargets {
		if err := ValidateTargetID(target.ID); err != nil {
			return errors.NewValidationError(
				fmt.Sprintf("invalid target at index %d", i), err)
		}
		if seen[target.ID] {
			return errors.NewValidationError("duplicate target ID", nil).WithContext("target_id", target.ID)
		}
		seen[target.ID] = true

		if err := monitoring.ValidateHealthCheckConfig(&target.HealthCheck); err != nil {
			return errors.NewValidationError("invalid health check configuration", err).WithContext("target_id", target.ID)
		}

		if target.RestartCommand != nil && target.RestartCommand.Command == "" {
			return errors.NewValidationError("restart command cannot be empty when configured", nil).WithContext("target_id", target.ID)
		}
	}

	return nil
}

// ValidateTargetID checks that a target ID is usable as a map key, a log
// token and a filename component
func ValidateTargetID(id string) error {
	if id == "" {
		return errors.NewValidationError("target ID cannot be empty", nil)
	}
	if len(id) > 128 {
		return errors.NewValidationError("target ID too long", nil).WithContext("target_id", id)
	}
	if strings.ContainsAny(id, " \t\n/\\") {
		return errors.NewValidationError("target ID contains invalid characters", nil).WithContext("target_id", id)
	}
	return nil
}

// ConfigSummary provides an overview of a loaded configuration
type ConfigSummary struct {
	LogLevel       string
	MetricsPort    int
	TotalTargets   int
	EnabledTargets int
}

// GetConfigSummary summarizes a configuration for startup logging
func GetConfigSummary(config *SupervisorConfig) ConfigSummary {
	summary := ConfigSummary{
		LogLevel:     config.Supervisor.LogLevel,
		MetricsPort:  config.Supervisor.MetricsPort,
		TotalTargets: len(config.MonitoredTargets),
	}
	for _, target := range config.MonitoredTargets {
		if target.Enabled == nil || *target.Enabled {
			summary.EnabledTargets++
		}
	}
	return summary
}
