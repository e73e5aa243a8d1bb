package sprintf

import (
	"log"
	"os"
)

// SprintfLogger is a minimal printf-style logging backend
type SprintfLogger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type stdSprintfLogger struct {
	logger *log.Logger
}

// NewStdSprintfLogger creates a backend writing to stderr via the standard
// library logger
func NewStdSprintfLogger() SprintfLogger {
	return &stdSprintfLogger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *stdSprintfLogger) Debugf(format string, args ...interface{}) {
	l.logger.Printf("DEBUG "+format, args...)
}

func (l *stdSprintfLogger) Infof(format string, args ...interface{}) {
	l.logger.Printf("INFO  "+format, args...)
}

func (l *stdSprintfLogger) Warnf(format string, args ...interface{}) {
	l.logger.Printf("WARN  "+format, args...)
}

func (l *stdSprintfLogger) Errorf(format string, args ...interface{}) {
	l.logger.Printf("ERROR "+format, args...)
}
