package logging

// Log levels for LogLevelf
const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger is the logging interface used across all packages. Backends are
// plugged in via LogFuncs so that callers never depend on a concrete
// logging library
type Logger interface {
	LogLevelf(level int, format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// LogFuncs carries the backend log functions for each level
type LogFuncs struct {
	Debugf func(format string, args ...interface{})
	Infof  func(format string, args ...interface{})
	Warnf  func(format string, args ...interface{})
	Errorf func(format string, args ...interface{})
}

type prefixLogger struct {
	prefix   string
	logFuncs LogFuncs
}

// NewLogger creates a logger that prepends prefix to every message and
// forwards to the provided backend functions
func NewLogger(prefix string, logFuncs LogFuncs) Logger {
	return &prefixLogger{
		prefix:   prefix,
		logFuncs: logFuncs,
	}
}

func (l *prefixLogger) LogLevelf(level int, format string, args ...interface{}) {
	switch level {
	case LogLevelDebug:
		l.Debugf(format, args...)
	case LogLevelWarn:
		l.Warnf(format, args...)
	case LogLevelError:
		l.Errorf(format, args...)
	default:
		l.Infof(format, args...)
	}
}

func (l *prefixLogger) Debugf(format string, args ...interface{}) {
	if l.logFuncs.Debugf != nil {
		l.logFuncs.Debugf(l.prefix+format, args...)
	}
}

func (l *prefixLogger) Infof(format string, args ...interface{}) {
	if l.logFuncs.Infof != nil {
		l.logFuncs.Infof(l.prefix+format, args...)
	}
}

func (l *prefixLogger) Warnf(format string, args ...interface{}) {
	if l.logFuncs.Warnf != nil {
		l.logFuncs.Warnf(l.prefix+format, args...)
	}
}

func (l *prefixLogger) Errorf(format string, args ...interface{}) {
	if l.logFuncs.Errorf != nil {
		l.logFuncs.Errorf(l.prefix+format, args...)
	}
}

type nullLogger struct{}

// NewNullLogger creates a logger that discards all messages
func NewNullLogger() Logger {
	return &nullLogger{}
}

func (l *nullLogger) LogLevelf(level int, format string, args ...interface{}) {}
func (l *nullLogger) Debugf(format string, args ...interface{})               {}
func (l *nullLogger) Infof(format string, args ...interface{})                {}
func (l *nullLogger) Warnf(format string, args ...interface{})                {}
func (l *nullLogger) Errorf(format string, args ...interface{})               {}
