package monitoring

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
)

// ProcessInfo identifies a running OS process for liveness checks
type ProcessInfo struct {
	PID int
}

// healthChecker executes a single probe. A nil return means healthy;
// any error means unhealthy, with the error explaining why. Checkers are
// stateless: probing an unchanged target yields the same verdict every time
type healthChecker interface {
	Check(ctx context.Context) error
}

func newHealthChecker(config *HealthCheckConfig, processInfo *ProcessInfo) (healthChecker, error) {
	switch config.Type {
	case HealthCheckTypeFile:
		return &fileHealthChecker{path: config.File.Path, sentinel: config.File.Sentinel}, nil
	case HealthCheckTypeCommand:
		return &commandHealthChecker{command: config.Command.Command, args: config.Command.Args}, nil
	case HealthCheckTypeProcess:
		return &processHealthChecker{pidFile: config.Process.PIDFile, processInfo: processInfo}, nil
	default:
		return nil, errors.NewValidationError("unknown health check type", nil).WithContext("type", string(config.Type))
	}
}

// fileHealthChecker reads the health record and matches the sentinel
// substring. A missing file, an unreadable file, or content without the
// sentinel are all unhealthy; no distinction matters to the supervisor
// beyond diagnostics
type fileHealthChecker struct {
	path     string
	sentinel string
}

func (c *fileHealthChecker) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelledError("probe cancelled", err).WithContext("path", c.path)
	}

	content, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("health record not found", err).WithContext("path", c.path)
		}
		return errors.NewIOError("failed to read health record", err).WithContext("path", c.path)
	}

	if !strings.Contains(string(content), c.sentinel) {
		return errors.NewProcessError("health record does not contain success sentinel", nil).
			WithContext("path", c.path).
			WithContext("sentinel", c.sentinel)
	}

	return nil
}

// commandHealthChecker runs a command under the probe deadline; exit code 0
// is healthy, everything else (including spawn failure and timeout) is not
type commandHealthChecker struct {
	command string
	args    []string
}

func (c *commandHealthChecker) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.NewProcessError("health check command failed", err).
			WithContext("command", c.command).
			WithContext("output", strings.TrimSpace(string(output)))
	}
	return nil
}

// processHealthChecker verifies OS-level liveness of a PID, resolved either
// from explicit ProcessInfo or from a PID file on every probe
type processHealthChecker struct {
	pidFile     string
	processInfo *ProcessInfo
}

func (c *processHealthChecker) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelledError("probe cancelled", err)
	}

	pid, err := c.resolvePID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.NewProcessError("process not found", err).WithContext("pid", pid)
	}

	// Signal 0 performs the existence check without delivering anything.
	// EPERM still proves the process exists
	err = process.Signal(syscall.Signal(0))
	if err != nil && err != syscall.EPERM {
		return errors.NewProcessError("process is not running", err).WithContext("pid", pid)
	}

	return nil
}

func (c *processHealthChecker) resolvePID() (int, error) {
	if c.processInfo != nil {
		return c.processInfo.PID, nil
	}
	if c.pidFile == "" {
		return 0, errors.NewValidationError("process health check has no PID source", nil)
	}

	data, err := os.ReadFile(c.pidFile)
	if err != nil {
		return 0, errors.NewNotFoundError("PID file not readable", err).WithContext("pid_file", c.pidFile)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.NewValidationError("PID file content is not a number", err).WithContext("pid_file", c.pidFile)
	}
	return pid, nil
}
