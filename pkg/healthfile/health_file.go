package healthfile

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-healthmon-go/pkg/errors"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

// DefaultAppName is used when no application name is configured
const DefaultAppName = "hsu-healthmon"

// ServiceContext determines where health and PID files live. The health
// record belongs in a shared ephemeral directory: it carries no persistence
// guarantee and may be discarded between restarts
type ServiceContext string

const (
	// SystemService places files in the system-wide ephemeral directory
	// (tmpfs on Linux), readable by an external supervisor
	SystemService ServiceContext = "system"

	// UserService places files in the per-user runtime directory
	UserService ServiceContext = "user"

	// SessionService places files in the session temporary directory
	SessionService ServiceContext = "session"
)

// HealthFileConfig configures well-known file path generation
type HealthFileConfig struct {
	ServiceContext  ServiceContext
	AppName         string
	BaseDirectory   string // overrides the context-derived base when set
	UseSubdirectory bool   // nest files under an app-named subdirectory
}

// HealthFileManager generates and manages the well-known health record and
// PID file paths shared between a monitored process and its supervisor
type HealthFileManager struct {
	config HealthFileConfig
	logger logging.Logger
}

func NewHealthFileManager(config HealthFileConfig, logger logging.Logger) *HealthFileManager {
	if config.AppName == "" {
		config.AppName = DefaultAppName
	}
	if config.ServiceContext == "" {
		config.ServiceContext = UserService
	}

	return &HealthFileManager{
		config: config,
		logger: logger,
	}
}

// GenerateHealthFilePath returns the well-known health record path for a
// process ID
func (m *HealthFileManager) GenerateHealthFilePath(processID string) string {
	return filepath.Join(m.baseDirectory(), processID+".health")
}

// GeneratePIDFilePath returns the PID file path for a process ID
func (m *HealthFileManager) GeneratePIDFilePath(processID string) string {
	return filepath.Join(m.baseDirectory(), processID+".pid")
}

// WritePIDFile records the given PID for discovery by the supervisor
func (m *HealthFileManager) WritePIDFile(processID string, pid int) error {
	path := m.GeneratePIDFilePath(processID)
	if err := ValidateDirectory(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return errors.NewIOError("failed to write PID file", err).WithContext("path", path)
	}
	m.logger.Debugf("PID file written, path: %s, pid: %d", path, pid)
	return nil
}

// ReadPIDFile reads a PID previously recorded with WritePIDFile
func (m *HealthFileManager) ReadPIDFile(processID string) (int, error) {
	path := m.GeneratePIDFilePath(processID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFoundError("PID file not found", err).WithContext("path", path)
		}
		return 0, errors.NewIOError("failed to read PID file", err).WithContext("path", path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.NewValidationError("PID file content is not a number", err).WithContext("path", path)
	}
	return pid, nil
}

// RemoveProcessFiles deletes the health record and PID file for a process
// ID; missing files are not an error
func (m *HealthFileManager) RemoveProcessFiles(processID string) error {
	collection := errors.NewErrorCollection()
	for _, path := range []string{m.GenerateHealthFilePath(processID), m.GeneratePIDFilePath(processID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			collection.Add(errors.NewIOError("failed to remove process file", err).WithContext("path", path))
		}
	}
	return collection.ToError()
}

func (m *HealthFileManager) baseDirectory() string {
	base := m.config.BaseDirectory
	if base == "" {
		base = contextBaseDirectory(m.config.ServiceContext)
	}
	if m.config.UseSubdirectory {
		return filepath.Join(base, m.config.AppName)
	}
	return base
}

func contextBaseDirectory(context ServiceContext) string {
	switch context {
	case SystemService:
		if runtime.GOOS == "linux" {
			// tmpfs: shared, ephemeral, exactly the lifetime the health
			// record is allowed to assume
			if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
				return "/dev/shm"
			}
			return "/run"
		}
		return os.TempDir()
	case UserService:
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return runtimeDir
		}
		return os.TempDir()
	default:
		return os.TempDir()
	}
}

// ValidateDirectory ensures the parent directory of path exists, creating
// it when necessary
func ValidateDirectory(path string) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return errors.NewIOError("failed to create directory", err).WithContext("directory", directory)
	}
	return nil
}

// GetRecommendedHealthFileConfig returns a sensible configuration for a
// deployment scenario: "container" (flat paths in the shared ephemeral
// dir), "system_service" or "development"
func GetRecommendedHealthFileConfig(scenario string, appName string) HealthFileConfig {
	if appName == "" {
		appName = DefaultAppName
	}

	switch scenario {
	case "container":
		return HealthFileConfig{
			ServiceContext:  SystemService,
			AppName:         appName,
			UseSubdirectory: false,
		}
	case "system_service":
		return HealthFileConfig{
			ServiceContext:  SystemService,
			AppName:         appName,
			UseSubdirectory: true,
		}
	default:
		return HealthFileConfig{
			ServiceContext:  UserService,
			AppName:         appName,
			UseSubdirectory: true,
		}
	}
}
