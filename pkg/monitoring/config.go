package monitoring

import (
	"time"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/healthrecord"
)

// HealthCheckType selects the probe implementation
type HealthCheckType string

const (
	// HealthCheckTypeFile probes a health record file for the success
	// sentinel. This is the canonical container liveness contract
	HealthCheckTypeFile HealthCheckType = "file"

	// HealthCheckTypeCommand runs a command; exit 0 means healthy
	HealthCheckTypeCommand HealthCheckType = "command"

	// HealthCheckTypeProcess checks OS-level liveness of a PID
	HealthCheckTypeProcess HealthCheckType = "process"
)

// Probe cadence defaults. The interval matches the conventional container
// supervisor cadence of one probe every 30 seconds
const (
	DefaultProbeInterval = 30 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
	DefaultProbeRetries  = 3
)

// FileHealthCheckConfig configures a health record file probe
type FileHealthCheckConfig struct {
	// Path of the health record inside the shared ephemeral directory
	Path string `yaml:"path"`

	// Sentinel is the substring denoting health (default "OK: true").
	// The match is exact: "OK:true" or "OK: false" never match
	Sentinel string `yaml:"sentinel,omitempty"`
}

// CommandHealthCheckConfig configures a command probe
type CommandHealthCheckConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// ProcessHealthCheckConfig configures an OS process liveness probe
type ProcessHealthCheckConfig struct {
	// PIDFile to read the process ID from; ignored when the monitor is
	// constructed with explicit ProcessInfo
	PIDFile string `yaml:"pid_file,omitempty"`
}

// HealthCheckRunOptions controls probe scheduling. These are supervisor
// policy: the monitored process's contract is only the record content
type HealthCheckRunOptions struct {
	Enabled bool `yaml:"enabled"`

	// Interval between probes (default 30s)
	Interval time.Duration `yaml:"interval,omitempty"`

	// Timeout bounds a single probe; a probe that misses its deadline
	// counts as a failure
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// InitialDelay before the first probe, allowing slow starters to
	// write their first record
	InitialDelay time.Duration `yaml:"initial_delay,omitempty"`

	// Retries is the number of consecutive failed probes required to
	// declare the target unhealthy (default 3). Recovery needs a single
	// successful probe
	Retries int `yaml:"retries,omitempty"`
}

// HealthCheckConfig is a union of probe type and per-type configuration
type HealthCheckConfig struct {
	Type       HealthCheckType          `yaml:"type"`
	File       FileHealthCheckConfig    `yaml:"file,omitempty"`
	Command    CommandHealthCheckConfig `yaml:"command,omitempty"`
	Process    ProcessHealthCheckConfig `yaml:"process,omitempty"`
	RunOptions HealthCheckRunOptions    `yaml:"run_options,omitempty"`
}

// SetHealthCheckConfigDefaults fills in unset run options and the file
// sentinel
func SetHealthCheckConfigDefaults(config *HealthCheckConfig) {
	if config.RunOptions.Interval == 0 {
		config.RunOptions.Interval = DefaultProbeInterval
	}
	if config.RunOptions.Timeout == 0 {
		config.RunOptions.Timeout = DefaultProbeTimeout
	}
	if config.RunOptions.Retries == 0 {
		config.RunOptions.Retries = DefaultProbeRetries
	}
	if config.Type == HealthCheckTypeFile && config.File.Sentinel == "" {
		config.File.Sentinel = healthrecord.Sentinel
	}
}

// ValidateHealthCheckConfig validates a health check configuration
func ValidateHealthCheckConfig(config *HealthCheckConfig) error {
	if config == nil {
		return errors.NewValidationError("health check configuration cannot be nil", nil)
	}

	switch config.Type {
	case HealthCheckTypeFile:
		if config.File.Path == "" {
			return errors.NewValidationError("file health check requires a path", nil)
		}
	case HealthCheckTypeCommand:
		if config.Command.Command == "" {
			return errors.NewValidationError("command health check requires a command", nil)
		}
	case HealthCheckTypeProcess:
		// PID is supplied via ProcessInfo or a PID file; both may be
		// absent at configuration time
	default:
		return errors.NewValidationError("unknown health check type", nil).WithContext("type", string(config.Type))
	}

	if config.RunOptions.Interval < 0 {
		return errors.NewValidationError("health check interval cannot be negative", nil)
	}
	if config.RunOptions.Timeout < 0 {
		return errors.NewValidationError("health check timeout cannot be negative", nil)
	}
	if config.RunOptions.Retries < 0 {
		return errors.NewValidationError("health check retries cannot be negative", nil)
	}

	return nil
}
